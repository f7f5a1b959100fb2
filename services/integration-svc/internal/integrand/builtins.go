package integrand

import (
	"math"

	"montecarlo/pkg/apperror"
)

// Benchmark тестовая функция сравнения методов, ∫[0,15] ≈ 601.9705
func Benchmark(x float64) float64 {
	return (25 + x*(x-6)*(x-8)*(x-14)/25) * math.Exp(math.Sqrt(1+math.Cos(x*x/10)))
}

func builtins() []Definition {
	return []Definition{
		{
			Name:        "benchmark",
			Description: "(25 + x(x-6)(x-8)(x-14)/25) * exp(sqrt(1 + cos(x^2/10)))",
			Lower:       0,
			Upper:       15,
			Build: func(map[string]float64, []float64) (Func, error) {
				return Benchmark, nil
			},
		},
		{
			Name:        "constant",
			Description: "c",
			Lower:       0,
			Upper:       1,
			Params:      map[string]float64{"c": 1},
			Build: func(p map[string]float64, _ []float64) (Func, error) {
				c := p["c"]
				return func(float64) float64 { return c }, nil
			},
		},
		{
			Name:        "linear",
			Description: "k*x + m",
			Lower:       0,
			Upper:       1,
			Params:      map[string]float64{"k": 1, "m": 0},
			Build: func(p map[string]float64, _ []float64) (Func, error) {
				k, m := p["k"], p["m"]
				return func(x float64) float64 { return k*x + m }, nil
			},
		},
		{
			Name:        "polynomial",
			Description: "sum of coefficients[i] * x^i",
			Lower:       0,
			Upper:       1,
			Build: func(_ map[string]float64, coeffs []float64) (Func, error) {
				if len(coeffs) == 0 {
					return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
						"polynomial needs at least one coefficient", "integrand.coefficients")
				}
				for _, c := range coeffs {
					if math.IsNaN(c) || math.IsInf(c, 0) {
						return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
							"coefficients must be finite", "integrand.coefficients")
					}
				}
				cs := append([]float64(nil), coeffs...)
				return func(x float64) float64 {
					// схема Горнера
					y := 0.0
					for i := len(cs) - 1; i >= 0; i-- {
						y = y*x + cs[i]
					}
					return y
				}, nil
			},
		},
		{
			Name:        "sin",
			Description: "amplitude * sin(omega*x)",
			Lower:       0,
			Upper:       math.Pi,
			Params:      map[string]float64{"amplitude": 1, "omega": 1},
			Build: func(p map[string]float64, _ []float64) (Func, error) {
				amp, omega := p["amplitude"], p["omega"]
				return func(x float64) float64 { return amp * math.Sin(omega*x) }, nil
			},
		},
		{
			Name:        "gaussian",
			Description: "normal density with mean mu and deviation sigma",
			Lower:       -3,
			Upper:       3,
			Params:      map[string]float64{"mu": 0, "sigma": 1},
			Build: func(p map[string]float64, _ []float64) (Func, error) {
				mu, sigma := p["mu"], p["sigma"]
				if sigma <= 0 {
					return nil, apperror.NewWithField(apperror.CodeInvalidArgument,
						"sigma must be positive", "integrand.params")
				}
				norm := 1 / (sigma * math.Sqrt(2*math.Pi))
				return func(x float64) float64 {
					z := (x - mu) / sigma
					return norm * math.Exp(-z*z/2)
				}, nil
			},
		},
		{
			Name:        "exp",
			Description: "exp(k*x)",
			Lower:       0,
			Upper:       1,
			Params:      map[string]float64{"k": 1},
			Build: func(p map[string]float64, _ []float64) (Func, error) {
				k := p["k"]
				return func(x float64) float64 { return math.Exp(k * x) }, nil
			},
		},
	}
}
