// services/integration-svc/internal/engine/control_variable.go
package engine

import (
	"golang.org/x/exp/rand"

	"montecarlo/pkg/api"
	"montecarlo/pkg/apperror"
	"montecarlo/pkg/piecewise"
	"montecarlo/pkg/stats"
)

// DefaultPilotSize объём пилотной выборки для коэффициента c
const DefaultPilotSize = 1000

// ControlVariable метод контрольной переменной: h - кусочно-линейная
// аппроксимация g с точно известной площадью
type ControlVariable struct {
	g         Integrand
	a, b      float64
	h         *piecewise.Function
	hLo, hHi  float64
	areaH     float64 // площадь h на [a, b]
	pilotSize int

	c       float64
	piloted bool
}

// NewControlVariable проверяет границы и узлы h; pilotSize <= 0 - DefaultPilotSize
func NewControlVariable(g Integrand, a, b float64, xs, ys []float64, pilotSize int) (*ControlVariable, error) {
	h, err := piecewise.New(xs, ys)
	if err != nil {
		return nil, err
	}
	return NewControlVariableFromFunction(g, a, b, h, pilotSize)
}

// NewControlVariableFromFunction оценщик с готовой функцией h
func NewControlVariableFromFunction(g Integrand, a, b float64, h *piecewise.Function, pilotSize int) (*ControlVariable, error) {
	if g == nil {
		return nil, apperror.New(apperror.CodeNilInput, "integrand is nil")
	}
	if err := validateBounds(a, b); err != nil {
		return nil, err
	}
	if pilotSize <= 0 {
		pilotSize = DefaultPilotSize
	}
	if pilotSize < 2 {
		return nil, apperror.NewWithField(apperror.CodeInvalidArgument, "pilot size must be at least 2", "pilot_size")
	}

	lo, hi := h.Domain()
	return &ControlVariable{
		g:         g,
		a:         a,
		b:         b,
		h:         h,
		hLo:       lo,
		hHi:       hi,
		areaH:     h.AreaBetween(a, b),
		pilotSize: pilotSize,
	}, nil
}

func (cv *ControlVariable) Method() api.Method { return api.MethodControlVariable }

// Reset пилот выполняется заново в следующем прогоне
func (cv *ControlVariable) Reset() {
	cv.piloted = false
	cv.c = 0
}

// evalH h(x) на пересечении областей, вне - 0
func (cv *ControlVariable) evalH(x float64) float64 {
	if x < cv.hLo || x > cv.hHi {
		return 0
	}
	return cv.h.MustEval(x)
}

// pilot оценивает c = Cov(g, h)/Var(h) по pilotSize равномерным точкам
func (cv *ControlVariable) pilot(rng *rand.Rand) {
	width := cv.b - cv.a
	gs := make([]float64, cv.pilotSize)
	hs := make([]float64, cv.pilotSize)
	for i := range gs {
		x := rng.Float64()*width + cv.a
		gs[i] = cv.g(x)
		hs[i] = cv.evalH(x)
	}

	cv.c = 0
	if constant(hs) {
		cv.piloted = true
		return
	}
	varH, err := stats.SampleVar(hs)
	if err == nil && varH > 0 {
		if cov, err := stats.Covariance(gs, hs); err == nil {
			cv.c = cov / varH
		}
	}
	cv.piloted = true
}

// constant все значения совпадают: Var(h) = 0 без учёта округления
func constant(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// DrawBatch первая порция после Reset начинается с пилота; пилотные точки
// в аккумулятор не попадают
func (cv *ControlVariable) DrawBatch(rng *rand.Rand, acc *Accumulator, step uint64) {
	if !cv.piloted {
		cv.pilot(rng)
	}

	width := cv.b - cv.a
	for i := uint64(0); i < step; i++ {
		x := rng.Float64()*width + cv.a
		acc.Add(cv.g(x) - cv.c*cv.evalH(x))
	}
}

func (cv *ControlVariable) Scale() float64 { return cv.b - cv.a }

// Estimate (b-a)·mean(Y) + c·A_h
func (cv *ControlVariable) Estimate(acc *Accumulator) float64 {
	return (cv.b-cv.a)*acc.Mean + cv.c*cv.areaH
}

// Coefficient коэффициент c последнего пилота
func (cv *ControlVariable) Coefficient() float64 {
	return cv.c
}

// Surrogate функция h
func (cv *ControlVariable) Surrogate() *piecewise.Function {
	return cv.h
}
