// services/integration-svc/internal/integrand/integrand_test.go
package integrand

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"montecarlo/pkg/api"
	"montecarlo/pkg/apperror"
)

func TestDefault_Names(t *testing.T) {
	r := Default()

	assert.Equal(t,
		[]string{"benchmark", "constant", "exp", "gaussian", "linear", "polynomial", "sin"},
		r.Names(),
	)

	infos := r.List()
	require.Len(t, infos, 7)
	assert.Equal(t, "benchmark", infos[0].Name)
	assert.Equal(t, 15.0, infos[0].Upper)
	assert.Equal(t, []string{"amplitude", "omega"}, infos[6].Params)
}

func TestResolve_Unknown(t *testing.T) {
	_, _, err := Default().Resolve(api.IntegrandSpec{Name: "tan"})
	assert.True(t, apperror.Is(err, apperror.CodeUnknownIntegrand))
}

func TestResolve_Params(t *testing.T) {
	r := Default()

	g, def, err := r.Resolve(api.IntegrandSpec{Name: "linear", Params: map[string]float64{"k": 2}})
	require.NoError(t, err)
	assert.Equal(t, "linear", def.Name)
	assert.Equal(t, 7.0, g(3.5))

	_, _, err = r.Resolve(api.IntegrandSpec{Name: "linear", Params: map[string]float64{"q": 2}})
	assert.True(t, apperror.Is(err, apperror.CodeInvalidArgument))

	_, _, err = r.Resolve(api.IntegrandSpec{Name: "constant", Params: map[string]float64{"c": math.Inf(1)}})
	assert.True(t, apperror.Is(err, apperror.CodeInvalidArgument))

	_, _, err = r.Resolve(api.IntegrandSpec{Name: "gaussian", Params: map[string]float64{"sigma": 0}})
	assert.True(t, apperror.Is(err, apperror.CodeInvalidArgument))
}

func TestResolve_DefaultsNotShared(t *testing.T) {
	r := Default()

	_, _, err := r.Resolve(api.IntegrandSpec{Name: "constant", Params: map[string]float64{"c": 5}})
	require.NoError(t, err)

	g, _, err := r.Resolve(api.IntegrandSpec{Name: "constant"})
	require.NoError(t, err)
	assert.Equal(t, 1.0, g(0))
}

func TestPolynomial(t *testing.T) {
	r := Default()

	g, _, err := r.Resolve(api.IntegrandSpec{Name: "polynomial", Coefficients: []float64{1, -2, 3}})
	require.NoError(t, err)
	assert.Equal(t, 1.0-4+12, g(2))

	_, _, err = r.Resolve(api.IntegrandSpec{Name: "polynomial"})
	assert.True(t, apperror.Is(err, apperror.CodeInvalidArgument))
}

func TestReference(t *testing.T) {
	r := Default()

	tests := []struct {
		spec api.IntegrandSpec
		want float64
	}{
		{api.IntegrandSpec{Name: "benchmark"}, 601.9705},
		{api.IntegrandSpec{Name: "constant", Params: map[string]float64{"c": 3}}, 3},
		{api.IntegrandSpec{Name: "linear"}, 0.5},
		{api.IntegrandSpec{Name: "polynomial", Coefficients: []float64{0, 0, 3}}, 1},
		{api.IntegrandSpec{Name: "sin"}, 2},
		{api.IntegrandSpec{Name: "gaussian"}, 0.9973},
		{api.IntegrandSpec{Name: "exp"}, math.E - 1},
	}

	for _, tt := range tests {
		t.Run(tt.spec.Name, func(t *testing.T) {
			g, def, err := r.Resolve(tt.spec)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, Reference(g, def.Lower, def.Upper, 0), 1e-3)
		})
	}
}

func TestRegister(t *testing.T) {
	r := NewRegistry()
	def := Definition{
		Name:  "square",
		Lower: 0,
		Upper: 1,
		Build: func(map[string]float64, []float64) (Func, error) {
			return func(x float64) float64 { return x * x }, nil
		},
	}

	require.NoError(t, r.Register(def))
	assert.Error(t, r.Register(def))

	bad := def
	bad.Name = "reversed"
	bad.Lower, bad.Upper = 1, 0
	assert.True(t, apperror.Is(r.Register(bad), apperror.CodeInvalidBounds))

	assert.Error(t, r.Register(Definition{Name: "nobuilder", Upper: 1}))
}
