package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"montecarlo/pkg/apperror"
	"montecarlo/pkg/piecewise"
)

// DefaultZ квантиль нормального распределения для 95% интервала
const DefaultZ = 1.96

// Points узлы функции на равномерной сетке
type Points struct {
	Xs []float64 `json:"xs"`
	Ys []float64 `json:"ys"`
}

// Len количество узлов
func (p Points) Len() int {
	return len(p.Xs)
}

// Mean выборочное среднее
func Mean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, apperror.ErrEmptySample
	}
	return stat.Mean(values, nil), nil
}

// SampleVar несмещённая выборочная дисперсия (делитель n-1)
func SampleVar(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, apperror.ErrEmptySample
	}
	if len(values) < 2 {
		return 0, apperror.New(apperror.CodeNotEnoughPoints, "sample variance needs at least two values")
	}
	return stat.Variance(values, nil), nil
}

// SampleStdDev корень из SampleVar
func SampleStdDev(values []float64) (float64, error) {
	v, err := SampleVar(values)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(v), nil
}

// Covariance несмещённая выборочная ковариация (делитель n-1)
func Covariance(xs, ys []float64) (float64, error) {
	if len(xs) != len(ys) {
		return 0, apperror.Newf(apperror.CodeLengthMismatch, "samples have different lengths: %d and %d", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return 0, apperror.New(apperror.CodeNotEnoughPoints, "covariance needs at least two pairs")
	}
	return stat.Covariance(xs, ys, nil), nil
}

// ConfidenceIntervalOf интервал mean ± quantile·s/√n по выборке
func ConfidenceIntervalOf(values []float64, quantile float64) (ConfidenceInterval, error) {
	mean, err := Mean(values)
	if err != nil {
		return ConfidenceInterval{}, err
	}
	sd, err := SampleStdDev(values)
	if err != nil {
		return ConfidenceInterval{}, err
	}
	halfWidth := quantile * sd / math.Sqrt(float64(len(values)))
	return NewConfidenceInterval(mean, halfWidth, DefaultPrecision), nil
}

// ExpectedValue математическое ожидание X с плотностью f(x)/A
func ExpectedValue(f *piecewise.Function) (float64, error) {
	if f.Area() == 0 {
		return 0, apperror.ErrZeroArea
	}

	var sum float64
	for _, p := range f.Pieces() {
		if p.Y0+p.Y1 <= 0 {
			continue
		}
		// центр масс трапеции
		centroid := (p.Y0*(2*p.X0+p.X1) + p.Y1*(p.X0+2*p.X1)) / (3 * (p.Y0 + p.Y1))
		sum += centroid * p.Area
	}
	return sum / f.Area(), nil
}

// CreatePoints n равномерных узлов f на [a, b] включая концы
func CreatePoints(n int, f func(float64) float64, a, b float64) (Points, error) {
	if n < 2 {
		return Points{}, apperror.NewWithField(apperror.CodeInvalidArgument,
			"at least two points are required", "points")
	}
	if a > b {
		return Points{}, apperror.NewWithField(apperror.CodeInvalidArgument,
			"lower bound exceeds upper bound", "lower")
	}

	pts := Points{Xs: make([]float64, n), Ys: make([]float64, n)}
	width := (b - a) / float64(n-1)
	for i := 0; i < n; i++ {
		x := a + width*float64(i)
		pts.Xs[i] = x
		pts.Ys[i] = f(x)
	}
	// правый конец без накопленной ошибки округления
	pts.Xs[n-1] = b
	pts.Ys[n-1] = f(b)
	return pts, nil
}

// ZScore двусторонний квантиль нормального распределения для уровня доверия
func ZScore(level float64) (float64, error) {
	if !(level > 0 && level < 1) {
		return 0, apperror.NewWithField(apperror.CodeInvalidArgument,
			"confidence level must be in (0, 1)", "confidence_level")
	}
	if level == 0.95 {
		return DefaultZ, nil
	}
	return distuv.UnitNormal.Quantile((1 + level) / 2), nil
}
