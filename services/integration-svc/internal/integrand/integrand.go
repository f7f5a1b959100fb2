// services/integration-svc/internal/integrand/integrand.go
package integrand

import (
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/integrate/quad"

	"montecarlo/pkg/api"
	"montecarlo/pkg/apperror"
)

// Func подынтегральная функция
type Func func(x float64) float64

// Builder строит функцию по параметрам запроса
type Builder func(params map[string]float64, coefficients []float64) (Func, error)

// Definition описание функции каталога
type Definition struct {
	Name        string
	Description string
	Lower       float64
	Upper       float64
	// Params имена параметров и значения по умолчанию
	Params map[string]float64
	Build  Builder
}

// Info описание для ответа ListIntegrands
func (d Definition) Info() api.IntegrandInfo {
	params := make([]string, 0, len(d.Params))
	for name := range d.Params {
		params = append(params, name)
	}
	sort.Strings(params)

	return api.IntegrandInfo{
		Name:        d.Name,
		Description: d.Description,
		Lower:       d.Lower,
		Upper:       d.Upper,
		Params:      params,
	}
}

// Registry каталог именованных функций
type Registry struct {
	mu   sync.RWMutex
	defs map[string]Definition
}

// NewRegistry пустой каталог
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]Definition)}
}

// Default каталог со встроенными функциями
func Default() *Registry {
	r := NewRegistry()
	for _, def := range builtins() {
		if err := r.Register(def); err != nil {
			panic(err)
		}
	}
	return r
}

// Register добавляет функцию; повторное имя - ошибка
func (r *Registry) Register(def Definition) error {
	if def.Name == "" || def.Build == nil {
		return apperror.New(apperror.CodeInvalidArgument, "integrand definition needs a name and a builder")
	}
	if !(def.Lower < def.Upper) {
		return apperror.Newf(apperror.CodeInvalidBounds, "default bounds of %q are not ordered", def.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.defs[def.Name]; ok {
		return apperror.Newf(apperror.CodeInvalidArgument, "integrand %q already registered", def.Name)
	}
	r.defs[def.Name] = def
	return nil
}

// Lookup описание функции по имени
func (r *Registry) Lookup(name string) (Definition, error) {
	r.mu.RLock()
	def, ok := r.defs[name]
	r.mu.RUnlock()

	if !ok {
		return Definition{}, apperror.Newf(apperror.CodeUnknownIntegrand, "unknown integrand %q", name).
			WithField("integrand.name")
	}
	return def, nil
}

// Resolve строит функцию по спецификации из запроса. Параметры, не
// указанные в запросе, берутся по умолчанию; неизвестные - ошибка.
func (r *Registry) Resolve(spec api.IntegrandSpec) (Func, Definition, error) {
	def, err := r.Lookup(spec.Name)
	if err != nil {
		return nil, Definition{}, err
	}

	params := make(map[string]float64, len(def.Params))
	for name, v := range def.Params {
		params[name] = v
	}
	for name, v := range spec.Params {
		if _, ok := def.Params[name]; !ok {
			return nil, Definition{}, apperror.Newf(apperror.CodeInvalidArgument,
				"integrand %q has no parameter %q", def.Name, name).WithField("integrand.params")
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, Definition{}, apperror.Newf(apperror.CodeInvalidArgument,
				"parameter %q must be finite", name).WithField("integrand.params")
		}
		params[name] = v
	}

	g, err := def.Build(params, spec.Coefficients)
	if err != nil {
		return nil, Definition{}, err
	}
	return g, def, nil
}

// Names имена функций по алфавиту
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List описания всех функций по алфавиту
func (r *Registry) List() []api.IntegrandInfo {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]api.IntegrandInfo, 0, len(names))
	for _, name := range names {
		infos = append(infos, r.defs[name].Info())
	}
	return infos
}

// DefaultReferenceNodes узлов квадратуры Гаусса-Лежандра для эталона
const DefaultReferenceNodes = 2000

// Reference эталонное значение интеграла квадратурой Гаусса-Лежандра
func Reference(g Func, a, b float64, nodes int) float64 {
	if nodes <= 0 {
		nodes = DefaultReferenceNodes
	}
	return quad.Fixed(g, a, b, nodes, nil, 0)
}
