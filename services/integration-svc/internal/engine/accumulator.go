// services/integration-svc/internal/engine/accumulator.go
package engine

import (
	"math"
)

// Accumulator достаточные статистики прогона оценщика
type Accumulator struct {
	Sum        float64
	SumSquares float64
	N          uint64

	// Производные величины, пересчитываются Update после каждой порции
	Mean      float64
	StdDev    float64
	HalfWidth float64
}

// Reset обнуляет накопленные суммы
func (a *Accumulator) Reset() {
	*a = Accumulator{}
}

// Add учитывает одно значение
func (a *Accumulator) Add(y float64) {
	a.Sum += y
	a.SumSquares += y * y
	a.N++
}

// Update пересчитывает среднее, СКО оценки и полуширину интервала.
// Дисперсия смещённая: SumSquares/N - Mean², отрицательные значения из-за
// округления зажимаются в ноль.
func (a *Accumulator) Update(scale, z float64) {
	if a.N == 0 {
		a.Mean, a.StdDev, a.HalfWidth = 0, 0, 0
		return
	}

	n := float64(a.N)
	a.Mean = a.Sum / n
	variance := math.Max(0, a.SumSquares/n-a.Mean*a.Mean)
	se := math.Sqrt(variance / n)

	a.StdDev = scale * se
	a.HalfWidth = z * scale * se
}

// Variance смещённая дисперсия одного значения
func (a *Accumulator) Variance() float64 {
	if a.N == 0 {
		return 0
	}
	n := float64(a.N)
	m := a.Sum / n
	return math.Max(0, a.SumSquares/n-m*m)
}

// Finite false, если в суммы попали NaN или Inf
func (a *Accumulator) Finite() bool {
	return !math.IsNaN(a.Sum) && !math.IsInf(a.Sum, 0) &&
		!math.IsNaN(a.SumSquares) && !math.IsInf(a.SumSquares, 0)
}
