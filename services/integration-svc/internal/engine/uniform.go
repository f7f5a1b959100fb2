// services/integration-svc/internal/engine/uniform.go
package engine

import (
	"math"

	"golang.org/x/exp/rand"

	"montecarlo/pkg/api"
	"montecarlo/pkg/apperror"
)

// Uniform обычный Monte Carlo на [a, b]
type Uniform struct {
	g    Integrand
	a, b float64
}

// NewUniform проверяет границы и создаёт оценщик
func NewUniform(g Integrand, a, b float64) (*Uniform, error) {
	if g == nil {
		return nil, apperror.New(apperror.CodeNilInput, "integrand is nil")
	}
	if err := validateBounds(a, b); err != nil {
		return nil, err
	}
	return &Uniform{g: g, a: a, b: b}, nil
}

func (u *Uniform) Method() api.Method { return api.MethodUniform }

func (u *Uniform) Reset() {}

// DrawBatch X = U·(b-a) + a, Y = g(X)
func (u *Uniform) DrawBatch(rng *rand.Rand, acc *Accumulator, step uint64) {
	width := u.b - u.a
	for i := uint64(0); i < step; i++ {
		x := rng.Float64()*width + u.a
		acc.Add(u.g(x))
	}
}

func (u *Uniform) Scale() float64 { return u.b - u.a }

// Estimate (b-a)·mean
func (u *Uniform) Estimate(acc *Accumulator) float64 {
	return (u.b - u.a) * acc.Mean
}

func validateBounds(a, b float64) error {
	if math.IsNaN(a) || math.IsInf(a, 0) || math.IsNaN(b) || math.IsInf(b, 0) {
		return apperror.Newf(apperror.CodeInvalidBounds, "bounds must be finite, got [%g, %g]", a, b)
	}
	if b <= a {
		return apperror.Newf(apperror.CodeInvalidBounds,
			"upper bound must be greater than lower bound, got [%g, %g]", a, b)
	}
	return nil
}
