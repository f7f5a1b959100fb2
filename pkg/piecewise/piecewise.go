// Package piecewise реализует кусочно-линейную функцию по узлам (x, y)
// и выборку из неё как из плотности методом обратного преобразования.
package piecewise

import (
	"math"
	"sort"

	"montecarlo/pkg/apperror"
)

// Piece отрезок [X0, X1] с линейной функцией от Y0 до Y1
type Piece struct {
	X0   float64 `json:"x0"`
	X1   float64 `json:"x1"`
	Y0   float64 `json:"y0"`
	Y1   float64 `json:"y1"`
	Area float64 `json:"area"` // (X1-X0)(Y0+Y1)/2
}

// Eval значение линейной функции отрезка в точке x
func (p Piece) Eval(x float64) float64 {
	return p.Y0 + (p.Y1-p.Y0)*(x-p.X0)/(p.X1-p.X0)
}

// Width длина отрезка
func (p Piece) Width() float64 {
	return p.X1 - p.X0
}

// AreaBetween площадь под отрезком на [lo, hi] ∩ [X0, X1]
func (p Piece) AreaBetween(lo, hi float64) float64 {
	lo = math.Max(lo, p.X0)
	hi = math.Min(hi, p.X1)
	if hi <= lo {
		return 0
	}
	return (hi - lo) * (p.Eval(lo) + p.Eval(hi)) / 2
}

// Function кусочно-линейная функция. После New не меняется,
// безопасна для чтения из нескольких горутин.
type Function struct {
	xs     []float64
	ys     []float64
	pieces []Piece
	area   float64
}

// New строит функцию по узлам. xs строго возрастают, len(xs) == len(ys) >= 2.
func New(xs, ys []float64) (*Function, error) {
	if len(xs) != len(ys) {
		return nil, apperror.Newf(apperror.CodeLengthMismatch,
			"xs and ys must have the same length, got %d and %d", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, apperror.Newf(apperror.CodeNotEnoughPoints,
			"at least two points are required, got %d", len(xs))
	}
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsInf(xs[i], 0) || math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			return nil, apperror.Newf(apperror.CodeNonFinite, "point %d is not finite", i).
				WithDetails("x", xs[i]).WithDetails("y", ys[i])
		}
		if i > 0 && xs[i] <= xs[i-1] {
			return nil, apperror.Newf(apperror.CodeNonMonotonic,
				"xs must be strictly increasing: xs[%d]=%g <= xs[%d]=%g", i, xs[i], i-1, xs[i-1])
		}
	}

	f := &Function{
		xs:     append([]float64(nil), xs...),
		ys:     append([]float64(nil), ys...),
		pieces: make([]Piece, len(xs)-1),
	}
	for k := range f.pieces {
		p := Piece{X0: xs[k], X1: xs[k+1], Y0: ys[k], Y1: ys[k+1]}
		p.Area = (p.X1 - p.X0) * (p.Y0 + p.Y1) / 2
		f.pieces[k] = p
		f.area += p.Area
	}

	return f, nil
}

// Xs копия абсцисс узлов
func (f *Function) Xs() []float64 {
	return append([]float64(nil), f.xs...)
}

// Ys копия ординат узлов
func (f *Function) Ys() []float64 {
	return append([]float64(nil), f.ys...)
}

// Len количество узлов
func (f *Function) Len() int {
	return len(f.xs)
}

// Pieces отрезки функции (копия)
func (f *Function) Pieces() []Piece {
	return append([]Piece(nil), f.pieces...)
}

// Piece k-й отрезок
func (f *Function) Piece(k int) Piece {
	return f.pieces[k]
}

// Area полная площадь под функцией (со знаком)
func (f *Function) Area() float64 {
	return f.area
}

// Domain границы области определения
func (f *Function) Domain() (lo, hi float64) {
	return f.xs[0], f.xs[len(f.xs)-1]
}

// AreaBetween точная площадь под функцией на [lo, hi] ∩ Domain
func (f *Function) AreaBetween(lo, hi float64) float64 {
	var total float64
	for _, p := range f.pieces {
		if p.X1 <= lo || p.X0 >= hi {
			continue
		}
		total += p.AreaBetween(lo, hi)
	}
	return total
}

// FindPiece индекс отрезка, содержащего x. Правая граница области
// принадлежит последнему отрезку, внутренний узел - отрезку справа.
func (f *Function) FindPiece(x float64) (int, error) {
	lo, hi := f.Domain()
	if !(x >= lo && x <= hi) {
		return 0, apperror.Newf(apperror.CodeOutOfDomain, "x=%g is outside [%g, %g]", x, lo, hi)
	}
	return f.findPiece(x), nil
}

// findPiece без проверки области
func (f *Function) findPiece(x float64) int {
	// первый узел строго правее x
	k := sort.Search(len(f.xs), func(i int) bool { return f.xs[i] > x }) - 1
	if k < 0 {
		return 0
	}
	if k > len(f.pieces)-1 {
		return len(f.pieces) - 1
	}
	return k
}

// Eval значение функции в x
func (f *Function) Eval(x float64) (float64, error) {
	k, err := f.FindPiece(x)
	if err != nil {
		return 0, err
	}
	return f.pieces[k].Eval(x), nil
}

// MustEval значение функции в x, который заведомо лежит в области
// определения. Точки вне области зажимаются к ближайшему отрезку.
func (f *Function) MustEval(x float64) float64 {
	return f.pieces[f.findPiece(x)].Eval(x)
}

// Density значение нормированной плотности f(x)/A
func (f *Function) Density(x float64) (float64, error) {
	if f.area == 0 {
		return 0, apperror.ErrZeroArea
	}
	y, err := f.Eval(x)
	if err != nil {
		return 0, err
	}
	return y / f.area, nil
}

// ValidateDensity проверяет, что функцию можно использовать как плотность
func (f *Function) ValidateDensity() error {
	for i, y := range f.ys {
		if y < 0 {
			return apperror.Newf(apperror.CodeNegativeDensity, "density must be non-negative, ys[%d]=%g", i, y)
		}
	}
	if !(f.area > 0) {
		return apperror.ErrZeroArea
	}
	return nil
}
