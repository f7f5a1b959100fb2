// services/integration-svc/internal/engine/importance.go
package engine

import (
	"golang.org/x/exp/rand"

	"montecarlo/pkg/api"
	"montecarlo/pkg/apperror"
	"montecarlo/pkg/piecewise"
)

// Importance выборка по значимости с кусочно-линейной плотностью
type Importance struct {
	g       Integrand
	fn      *piecewise.Function
	sampler *piecewise.Sampler
}

// NewImportance строит плотность по узлам (xs, ys); ys >= 0, площадь > 0
func NewImportance(g Integrand, xs, ys []float64) (*Importance, error) {
	fn, err := piecewise.New(xs, ys)
	if err != nil {
		return nil, err
	}
	return NewImportanceFromFunction(g, fn)
}

// NewImportanceFromFunction оценщик с готовой плотностью
func NewImportanceFromFunction(g Integrand, fn *piecewise.Function) (*Importance, error) {
	if g == nil {
		return nil, apperror.New(apperror.CodeNilInput, "integrand is nil")
	}
	sampler, err := piecewise.NewSampler(fn)
	if err != nil {
		return nil, err
	}
	return &Importance{g: g, fn: fn, sampler: sampler}, nil
}

func (s *Importance) Method() api.Method { return api.MethodImportance }

func (s *Importance) Reset() {}

// DrawBatch X ~ f/A, Y = g(X)·A/f(X). Точка с f(X) = 0 даёт вес 0.
func (s *Importance) DrawBatch(rng *rand.Rand, acc *Accumulator, step uint64) {
	area := s.fn.Area()
	for i := uint64(0); i < step; i++ {
		x := s.sampler.Draw(rng)
		fx := s.fn.MustEval(x)
		if fx <= 0 {
			acc.Add(0)
			continue
		}
		acc.Add(s.g(x) * area / fx)
	}
}

// Scale оценка уже в единицах интеграла
func (s *Importance) Scale() float64 { return 1 }

func (s *Importance) Estimate(acc *Accumulator) float64 {
	return acc.Mean
}

// Density плотность выборки
func (s *Importance) Density() *piecewise.Function {
	return s.fn
}
