package api

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONCodec(t *testing.T) {
	codec := JSONCodec{}
	assert.Equal(t, "json", codec.Name())

	lower, upper := 0.0, 15.0
	req := &IntegrateRequest{
		Integrand: IntegrandSpec{Name: "benchmark"},
		Lower:     &lower,
		Upper:     &upper,
		Method:    MethodControlVariable,
		Stop:      StopRule{Policy: PolicySize, Size: 100000},
		Seed:      []uint32{24, 512, 42},
	}

	data, err := codec.Marshal(req)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"method":"control_variable"`)
	assert.Contains(t, string(data), `"seed":[24,512,42]`)
	assert.NotContains(t, string(data), "no_cache")

	var decoded IntegrateRequest
	require.NoError(t, codec.Unmarshal(data, &decoded))
	assert.Equal(t, *req, decoded)
}

func TestJSONCodec_EmptyBody(t *testing.T) {
	var req ListIntegrandsRequest
	assert.NoError(t, JSONCodec{}.Unmarshal(nil, &req))
}

func TestJSONCodec_InvalidBody(t *testing.T) {
	var req IntegrateRequest
	err := JSONCodec{}.Unmarshal([]byte("{"), &req)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "unmarshal *api.IntegrateRequest"))
}

func TestStopRule_Budget(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, StopRule{BudgetMs: 1500}.Budget())
	assert.Equal(t, time.Duration(0), StopRule{}.Budget())
}

func TestRun_AbsError(t *testing.T) {
	run := &Run{Estimate: 600, Reference: 601.5}
	assert.InDelta(t, 1.5, run.AbsError(), 1e-12)

	run.Estimate = 603
	assert.InDelta(t, 1.5, run.AbsError(), 1e-12)
}

func TestProcedures(t *testing.T) {
	assert.Equal(t, "/montecarlo.v1.IntegrationService/Integrate", IntegrateProcedure)
	assert.Equal(t, "/montecarlo.v1.IntegrationService/ListIntegrands", ListIntegrandsProcedure)
	assert.Len(t, Methods, 3)
}
