// services/integration-svc/internal/engine/build.go
package engine

import (
	"montecarlo/pkg/api"
	"montecarlo/pkg/apperror"
	"montecarlo/pkg/stats"
)

// DefaultPoints узлов кусочно-линейной аппроксимации
const DefaultPoints = 30

// Params параметры построения оценщика
type Params struct {
	Method    api.Method
	Lower     float64
	Upper     float64
	Points    int // узлов для importance и control_variable
	PilotSize int // для control_variable
}

// Build создаёт оценщик method. Для importance и control_variable
// аппроксимация строится по Points равномерным узлам g на [Lower, Upper].
func Build(g Integrand, p Params) (Drawer, error) {
	if g == nil {
		return nil, apperror.New(apperror.CodeNilInput, "integrand is nil")
	}
	if p.Points == 0 {
		p.Points = DefaultPoints
	}

	var (
		d   Drawer
		err error
	)
	switch p.Method {
	case api.MethodUniform:
		d, err = NewUniform(g, p.Lower, p.Upper)
	case api.MethodImportance:
		d, err = buildWithPoints(g, p, func(pts stats.Points) (Drawer, error) {
			return NewImportance(g, pts.Xs, pts.Ys)
		})
	case api.MethodControlVariable:
		d, err = buildWithPoints(g, p, func(pts stats.Points) (Drawer, error) {
			return NewControlVariable(g, p.Lower, p.Upper, pts.Xs, pts.Ys, p.PilotSize)
		})
	default:
		return nil, apperror.Newf(apperror.CodeUnknownMethod, "unknown method %q", p.Method).WithField("method")
	}
	// типизированный nil внутри интерфейса не должен уйти вызывающему
	if err != nil {
		return nil, err
	}
	return d, nil
}

// buildWithPoints узлы аппроксимации g на [Lower, Upper] для importance и control_variable
func buildWithPoints(g Integrand, p Params, build func(stats.Points) (Drawer, error)) (Drawer, error) {
	if err := validateBounds(p.Lower, p.Upper); err != nil {
		return nil, err
	}
	pts, err := stats.CreatePoints(p.Points, g, p.Lower, p.Upper)
	if err != nil {
		return nil, err
	}
	return build(pts)
}
