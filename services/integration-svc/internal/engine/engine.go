// services/integration-svc/internal/engine/engine.go
package engine

import (
	"context"
	"errors"
	"time"

	"golang.org/x/exp/rand"

	"montecarlo/pkg/api"
	"montecarlo/pkg/apperror"
	"montecarlo/pkg/stats"
)

// Integrand интегрируемая функция: чистая и детерминированная
type Integrand func(x float64) float64

// Drawer примитив конкретного оценщика: извлечь step значений в аккумулятор
type Drawer interface {
	Method() api.Method
	// Reset вызывается перед каждым прогоном
	Reset()
	DrawBatch(rng *rand.Rand, acc *Accumulator, step uint64)
	// Scale множитель СКО и полуширины (b-a для uniform, 1 для importance)
	Scale() float64
	Estimate(acc *Accumulator) float64
}

// coefficienter оценщики с коэффициентом контрольной переменной
type coefficienter interface {
	Coefficient() float64
}

// Sampling результат одного прогона, не меняется после создания
type Sampling struct {
	Method             api.Method               `json:"method"`
	AreaEstimator      float64                  `json:"area_estimator"`
	StdDev             float64                  `json:"std_dev"`
	ConfidenceInterval stats.ConfidenceInterval `json:"confidence_interval"`
	N                  uint64                   `json:"n"`
	TimeElapsed        time.Duration            `json:"time_elapsed"`
	Coefficient        *float64                 `json:"coefficient,omitempty"`
}

// Seconds время прогона в секундах
func (s Sampling) Seconds() float64 {
	return s.TimeElapsed.Seconds()
}

// Defaults
const (
	DefaultBatchSize  uint64 = 1000
	DefaultMaxSamples uint64 = 100_000_000
)

// Engine движок одного оценщика: владеет аккумулятором и генератором.
// Не безопасен для одновременного использования из нескольких горутин.
type Engine struct {
	drawer     Drawer
	acc        Accumulator
	rng        *rand.Rand
	z          float64
	precision  uint
	batchSize  uint64
	maxSamples uint64
}

// Option настройка движка
type Option func(*Engine)

// WithSeed фиксирует последовательность seed
func WithSeed(seq ...uint32) Option {
	return func(e *Engine) {
		e.rng = newRand(seq)
	}
}

// WithZ квантиль для полуширины интервала
func WithZ(z float64) Option {
	return func(e *Engine) {
		if z > 0 {
			e.z = z
		}
	}
}

// WithPrecision знаков в выводе интервала
func WithPrecision(p uint) Option {
	return func(e *Engine) {
		e.precision = p
	}
}

// WithBatchSize размер внутренней порции для SampleWithSize
func WithBatchSize(n uint64) Option {
	return func(e *Engine) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithMaxSamples предохранитель для SampleWithMaxWidth, 0 - без ограничения.
// При срабатывании возвращается частичный результат вместе с TARGET_NOT_REACHED
func WithMaxSamples(n uint64) Option {
	return func(e *Engine) {
		e.maxSamples = n
	}
}

// New создаёт движок для оценщика d
func New(d Drawer, opts ...Option) *Engine {
	e := &Engine{
		drawer:     d,
		z:          stats.DefaultZ,
		precision:  stats.DefaultPrecision,
		batchSize:  DefaultBatchSize,
		maxSamples: DefaultMaxSamples,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = newRand(nil)
	}
	return e
}

// Seed пересоздаёт генератор. Вызывать до первого прогона.
func (e *Engine) Seed(seq ...uint32) {
	e.rng = newRand(seq)
}

// Method метод оценщика
func (e *Engine) Method() api.Method {
	return e.drawer.Method()
}

// SampleWithSize ровно n значений
func (e *Engine) SampleWithSize(n uint64) (Sampling, error) {
	return e.SampleWithSizeContext(context.Background(), n)
}

// SampleWithSizeContext ровно n значений порциями batchSize, с проверкой ctx между порциями
func (e *Engine) SampleWithSizeContext(ctx context.Context, n uint64) (Sampling, error) {
	if n == 0 {
		return Sampling{}, apperror.NewWithField(apperror.CodeInvalidArgument, "sample size must be positive", "size")
	}

	begin := time.Now()
	e.reset()

	for e.acc.N < n {
		if err := ctxError(ctx); err != nil {
			return Sampling{}, err
		}
		step := min(e.batchSize, n-e.acc.N)
		if err := e.draw(step); err != nil {
			return Sampling{}, err
		}
	}

	return e.result(time.Since(begin)), nil
}

// SampleWithMaxWidth порции по step, пока ширина интервала больше width
func (e *Engine) SampleWithMaxWidth(width float64, step uint64) (Sampling, error) {
	return e.SampleWithMaxWidthContext(context.Background(), width, step)
}

// SampleWithMaxWidthContext как SampleWithMaxWidth, с проверкой ctx между порциями.
// Хотя бы одна порция выполняется всегда; нулевая дисперсия завершает цикл сразу.
func (e *Engine) SampleWithMaxWidthContext(ctx context.Context, width float64, step uint64) (Sampling, error) {
	if !(width > 0) {
		return Sampling{}, apperror.NewWithField(apperror.CodeInvalidArgument, "target width must be positive", "width")
	}
	if step == 0 {
		return Sampling{}, apperror.NewWithField(apperror.CodeInvalidStep, "step must be positive", "step")
	}

	begin := time.Now()
	e.reset()

	for {
		if err := e.draw(step); err != nil {
			return Sampling{}, err
		}
		if 2*e.acc.HalfWidth <= width {
			break
		}
		if e.maxSamples > 0 && e.acc.N >= e.maxSamples {
			res := e.result(time.Since(begin))
			return res, apperror.Newf(apperror.CodeTargetNotReached,
				"confidence interval width %g above target %g after %d samples", res.ConfidenceInterval.Width, width, res.N).
				WithField("stop.width").
				WithDetails("method", string(res.Method)).
				WithDetails("samples", res.N).
				WithDetails("width", res.ConfidenceInterval.Width).
				WithDetails("estimate", res.AreaEstimator)
		}
		if err := ctxError(ctx); err != nil {
			return Sampling{}, err
		}
	}

	return e.result(time.Since(begin)), nil
}

// SampleWithMaxTime порции по step, пока суммарное время порций меньше budget
func (e *Engine) SampleWithMaxTime(budget time.Duration, step uint64) (Sampling, error) {
	return e.SampleWithMaxTimeContext(context.Background(), budget, step)
}

// SampleWithMaxTimeContext как SampleWithMaxTime, с проверкой ctx между порциями.
// В результат попадает суммарное время порций. Хотя бы одна порция выполняется
// даже при budget <= 0.
func (e *Engine) SampleWithMaxTimeContext(ctx context.Context, budget time.Duration, step uint64) (Sampling, error) {
	if step == 0 {
		return Sampling{}, apperror.NewWithField(apperror.CodeInvalidStep, "step must be positive", "step")
	}

	e.reset()

	var elapsed time.Duration
	for {
		begin := time.Now()
		if err := e.draw(step); err != nil {
			return Sampling{}, err
		}
		elapsed += time.Since(begin)

		if elapsed >= budget {
			break
		}
		if err := ctxError(ctx); err != nil {
			return Sampling{}, err
		}
	}

	return e.result(elapsed), nil
}

// Accumulator копия текущих статистик
func (e *Engine) Accumulator() Accumulator {
	return e.acc
}

func (e *Engine) reset() {
	e.acc.Reset()
	e.drawer.Reset()
}

// draw одна порция и пересчёт статистик
func (e *Engine) draw(step uint64) error {
	e.drawer.DrawBatch(e.rng, &e.acc, step)
	if !e.acc.Finite() {
		return apperror.Newf(apperror.CodeNonFinite,
			"integrand produced a non-finite value after %d samples", e.acc.N).
			WithDetails("method", string(e.drawer.Method()))
	}
	e.acc.Update(e.drawer.Scale(), e.z)
	return nil
}

func (e *Engine) result(elapsed time.Duration) Sampling {
	estimate := e.drawer.Estimate(&e.acc)
	s := Sampling{
		Method:             e.drawer.Method(),
		AreaEstimator:      estimate,
		StdDev:             e.acc.StdDev,
		ConfidenceInterval: stats.NewConfidenceInterval(estimate, e.acc.HalfWidth, e.precision),
		N:                  e.acc.N,
		TimeElapsed:        elapsed,
	}
	if c, ok := e.drawer.(coefficienter); ok {
		v := c.Coefficient()
		s.Coefficient = &v
	}
	return s
}

// ctxError переводит ошибку контекста в ошибку приложения
func ctxError(ctx context.Context) error {
	err := ctx.Err()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return apperror.Wrap(err, apperror.CodeDeadlineExceeded, "sampling deadline exceeded")
	default:
		return apperror.Wrap(err, apperror.CodeCancelled, "sampling cancelled")
	}
}
