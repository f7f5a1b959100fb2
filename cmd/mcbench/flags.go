package main

import (
	"math"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"montecarlo/pkg/api"
	"montecarlo/pkg/apperror"
)

// requestFlags общие параметры запросов Integrate и Compare
type requestFlags struct {
	integrand    string
	params       map[string]string
	coefficients []float64
	lower        float64
	upper        float64
	method       string
	policy       string
	size         uint64
	width        float64
	budget       time.Duration
	step         uint64
	points       int
	pilot        int
	seed         []uint
	precision    uint
	confidence   float64
	tags         []string
	noCache      bool
}

// compareDefaults параметры исходного сравнения методов
var compareDefaults = requestFlags{
	integrand: "benchmark",
	policy:    string(api.PolicySize),
	size:      100000,
	points:    30,
	seed:      []uint{24, 512, 42},
}

func (f *requestFlags) bind(cmd *cobra.Command, defaults requestFlags, withMethod bool) {
	fs := cmd.Flags()
	fs.StringVar(&f.integrand, "integrand", defaults.integrand, "integrand name (see `remote integrands`)")
	fs.StringToStringVar(&f.params, "param", nil, "integrand parameter, e.g. --param c=2")
	fs.Float64SliceVar(&f.coefficients, "coefficients", nil, "polynomial coefficients a0,a1,...")
	fs.Float64Var(&f.lower, "lower", 0, "lower bound (default: integrand default)")
	fs.Float64Var(&f.upper, "upper", 0, "upper bound (default: integrand default)")
	if withMethod {
		fs.StringVar(&f.method, "method", string(api.MethodUniform), "uniform, importance, control_variable")
	}
	fs.StringVar(&f.policy, "policy", defaults.policy, "size, max_width, max_time")
	fs.Uint64Var(&f.size, "size", defaults.size, "sample count for the size policy")
	fs.Float64Var(&f.width, "width", 0, "target interval width for max_width")
	fs.DurationVar(&f.budget, "budget", 0, "time budget for max_time")
	fs.Uint64Var(&f.step, "step", 0, "batch size for adaptive policies")
	fs.IntVar(&f.points, "points", defaults.points, "piecewise-linear approximation points")
	fs.IntVar(&f.pilot, "pilot", 0, "pilot sample size for the control variable")
	fs.UintSliceVar(&f.seed, "seed", defaults.seed, "seed sequence, e.g. 24,512,42")
	fs.UintVar(&f.precision, "precision", 3, "digits in the printed interval")
	fs.Float64Var(&f.confidence, "confidence", 0, "confidence level (default 0.95)")
	fs.StringSliceVar(&f.tags, "tag", nil, "tags saved with the run")
	fs.BoolVar(&f.noCache, "no-cache", false, "bypass the result cache")
}

func (f *requestFlags) spec() (api.IntegrandSpec, error) {
	spec := api.IntegrandSpec{Name: f.integrand, Coefficients: f.coefficients}
	if len(f.params) > 0 {
		spec.Params = make(map[string]float64, len(f.params))
		for k, v := range f.params {
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return spec, apperror.Newf(apperror.CodeInvalidArgument, "parameter %s: %v", k, err).WithField("param")
			}
			spec.Params[k] = x
		}
	}
	return spec, nil
}

func (f *requestFlags) stop() api.StopRule {
	return api.StopRule{
		Policy:   api.Policy(f.policy),
		Size:     f.size,
		Width:    f.width,
		BudgetMs: f.budget.Milliseconds(),
		Step:     f.step,
	}
}

func (f *requestFlags) seed32() ([]uint32, error) {
	if len(f.seed) == 0 {
		return nil, nil
	}
	seed := make([]uint32, len(f.seed))
	for i, s := range f.seed {
		if s > math.MaxUint32 {
			return nil, apperror.Newf(apperror.CodeInvalidArgument, "seed word %d overflows uint32", s).WithField("seed")
		}
		seed[i] = uint32(s)
	}
	return seed, nil
}

func (f *requestFlags) bounds(cmd *cobra.Command) (lower, upper *float64) {
	if cmd.Flags().Changed("lower") {
		lower = &f.lower
	}
	if cmd.Flags().Changed("upper") {
		upper = &f.upper
	}
	return lower, upper
}

func (f *requestFlags) integrateRequest(cmd *cobra.Command) (*api.IntegrateRequest, error) {
	spec, err := f.spec()
	if err != nil {
		return nil, err
	}
	seed, err := f.seed32()
	if err != nil {
		return nil, err
	}
	lower, upper := f.bounds(cmd)

	return &api.IntegrateRequest{
		Integrand:       spec,
		Lower:           lower,
		Upper:           upper,
		Method:          api.Method(f.method),
		Stop:            f.stop(),
		Points:          f.points,
		PilotSize:       f.pilot,
		Seed:            seed,
		Precision:       &f.precision,
		ConfidenceLevel: f.confidence,
		Tags:            f.tags,
		NoCache:         f.noCache,
	}, nil
}

func (f *requestFlags) compareRequest(cmd *cobra.Command) (*api.CompareRequest, error) {
	spec, err := f.spec()
	if err != nil {
		return nil, err
	}
	seed, err := f.seed32()
	if err != nil {
		return nil, err
	}
	lower, upper := f.bounds(cmd)

	return &api.CompareRequest{
		Integrand: spec,
		Lower:     lower,
		Upper:     upper,
		Stop:      f.stop(),
		Points:    f.points,
		PilotSize: f.pilot,
		Seed:      seed,
		Precision: &f.precision,
		Tags:      f.tags,
	}, nil
}

