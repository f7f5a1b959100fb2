// Package api описывает контракт IntegrationService: процедуры, сообщения и JSON кодек
// для connect. Сообщения - обычные Go структуры, поэтому сервер и клиент используют
// кодек JSONCodec вместо protobuf.
package api

import "time"

// ServiceName полное имя сервиса
const ServiceName = "montecarlo.v1.IntegrationService"

// Процедуры сервиса
const (
	IntegrateProcedure      = "/" + ServiceName + "/Integrate"
	CompareProcedure        = "/" + ServiceName + "/Compare"
	GetRunProcedure         = "/" + ServiceName + "/GetRun"
	ListRunsProcedure       = "/" + ServiceName + "/ListRuns"
	DeleteRunProcedure      = "/" + ServiceName + "/DeleteRun"
	ReportProcedure         = "/" + ServiceName + "/Report"
	ListIntegrandsProcedure = "/" + ServiceName + "/ListIntegrands"
)

// Method метод оценки интеграла
type Method string

const (
	MethodUniform         Method = "uniform"
	MethodImportance      Method = "importance"
	MethodControlVariable Method = "control_variable"
)

// Methods все методы в порядке сравнения
var Methods = []Method{MethodUniform, MethodImportance, MethodControlVariable}

// Policy правило остановки сэмплирования
type Policy string

const (
	PolicySize     Policy = "size"
	PolicyMaxWidth Policy = "max_width"
	PolicyMaxTime  Policy = "max_time"
)

// Форматы отчётов
const (
	FormatCSV      = "csv"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
	FormatExcel    = "excel"
	FormatPDF      = "pdf"
)

// ==================== Integrate ====================

// IntegrandSpec выбор подынтегральной функции из каталога
type IntegrandSpec struct {
	Name         string             `json:"name" validate:"required,max=64"`
	Params       map[string]float64 `json:"params,omitempty"`
	Coefficients []float64          `json:"coefficients,omitempty" validate:"max=32"`
}

// StopRule правило остановки
type StopRule struct {
	Policy   Policy  `json:"policy,omitempty" validate:"omitempty,oneof=size max_width max_time"`
	Size     uint64  `json:"size,omitempty"`
	Width    float64 `json:"width,omitempty" validate:"gte=0"`
	BudgetMs int64   `json:"budget_ms,omitempty"`
	Step     uint64  `json:"step,omitempty"`
}

// Budget возвращает бюджет времени
func (s StopRule) Budget() time.Duration {
	return time.Duration(s.BudgetMs) * time.Millisecond
}

// IntegrateRequest запрос на одну оценку интеграла
type IntegrateRequest struct {
	Integrand IntegrandSpec `json:"integrand" validate:"required"`
	// Границы; nil - границы по умолчанию для функции
	Lower *float64 `json:"lower,omitempty"`
	Upper *float64 `json:"upper,omitempty"`

	Method          Method   `json:"method,omitempty" validate:"omitempty,oneof=uniform importance control_variable"`
	Stop            StopRule `json:"stop"`
	Points          int      `json:"points,omitempty" validate:"omitempty,min=2,max=100000"`
	PilotSize       int      `json:"pilot_size,omitempty" validate:"omitempty,min=2"`
	Seed            []uint32 `json:"seed,omitempty" validate:"max=16"`
	Precision       *uint    `json:"precision,omitempty" validate:"omitempty,max=15"`
	ConfidenceLevel float64  `json:"confidence_level,omitempty" validate:"omitempty,gt=0,lt=1"`
	Tags            []string `json:"tags,omitempty" validate:"max=16,dive,min=1,max=64"`
	NoCache         bool     `json:"no_cache,omitempty"`
}

// Interval доверительный интервал в ответе
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Width float64 `json:"width"`
	Text  string  `json:"text"`
}

// SamplingResult результат одного прогона оценщика
type SamplingResult struct {
	Method      Method   `json:"method"`
	Estimate    float64  `json:"estimate"`
	StdDev      float64  `json:"std_dev"`
	Interval    Interval `json:"interval"`
	Samples     uint64   `json:"samples"`
	ElapsedMs   float64  `json:"elapsed_ms"`
	Coefficient *float64 `json:"coefficient,omitempty"`
}

// IntegrateResponse ответ на Integrate
type IntegrateResponse struct {
	RunID     string         `json:"run_id"`
	Integrand string         `json:"integrand"`
	Lower     float64        `json:"lower"`
	Upper     float64        `json:"upper"`
	Policy    Policy         `json:"policy"`
	Result    SamplingResult `json:"result"`
	Reference float64        `json:"reference"`
	AbsError  float64        `json:"abs_error"`
	Cached    bool           `json:"cached"`
	CreatedAt time.Time      `json:"created_at"`
}

// ==================== Compare ====================

// CompareRequest запуск нескольких методов с одинаковым seed и правилом остановки
type CompareRequest struct {
	Integrand IntegrandSpec `json:"integrand" validate:"required"`
	Lower     *float64      `json:"lower,omitempty"`
	Upper     *float64      `json:"upper,omitempty"`
	// Пусто - все методы
	Methods   []Method `json:"methods,omitempty" validate:"max=3,dive,oneof=uniform importance control_variable"`
	Stop      StopRule `json:"stop"`
	Points    int      `json:"points,omitempty" validate:"omitempty,min=2,max=100000"`
	PilotSize int      `json:"pilot_size,omitempty" validate:"omitempty,min=2"`
	Seed      []uint32 `json:"seed,omitempty" validate:"max=16"`
	Precision *uint    `json:"precision,omitempty" validate:"omitempty,max=15"`
	Tags      []string `json:"tags,omitempty" validate:"max=16,dive,min=1,max=64"`
}

// CompareResponse результаты методов и выигрыш относительно uniform
type CompareResponse struct {
	Integrand string           `json:"integrand"`
	Lower     float64          `json:"lower"`
	Upper     float64          `json:"upper"`
	Policy    Policy           `json:"policy"`
	Reference float64          `json:"reference"`
	Results   []SamplingResult `json:"results"`
	RunIDs    []string         `json:"run_ids"`
	// Var(uniform)/Var(method) при одинаковом N; 0 если uniform не запускался
	VarianceReduction map[Method]float64 `json:"variance_reduction,omitempty"`
}

// ==================== History ====================

// Run сохранённый прогон
type Run struct {
	ID          string    `json:"id"`
	Integrand   string    `json:"integrand"`
	Method      Method    `json:"method"`
	Policy      Policy    `json:"policy"`
	Lower       float64   `json:"lower"`
	Upper       float64   `json:"upper"`
	Estimate    float64   `json:"estimate"`
	StdDev      float64   `json:"std_dev"`
	HalfWidth   float64   `json:"half_width"`
	Samples     uint64    `json:"samples"`
	ElapsedMs   float64   `json:"elapsed_ms"`
	Reference   float64   `json:"reference"`
	Seed        []uint32  `json:"seed,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Coefficient *float64  `json:"coefficient,omitempty"`
	CreatedAt   time.Time `json:"created_at"`

	ConfidenceLevel float64 `json:"confidence_level"`
}

// AbsError абсолютная ошибка относительно эталона
func (r *Run) AbsError() float64 {
	d := r.Estimate - r.Reference
	if d < 0 {
		return -d
	}
	return d
}

// GetRunRequest запрос прогона по ID
type GetRunRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

// ListRunsRequest фильтр истории
type ListRunsRequest struct {
	Integrand string   `json:"integrand,omitempty"`
	Method    Method   `json:"method,omitempty" validate:"omitempty,oneof=uniform importance control_variable"`
	Tags      []string `json:"tags,omitempty"`
	Limit     int      `json:"limit,omitempty" validate:"gte=0,lte=1000"`
	Offset    int      `json:"offset,omitempty" validate:"gte=0"`
}

// ListRunsResponse страница истории
type ListRunsResponse struct {
	Runs  []*Run `json:"runs"`
	Total int64  `json:"total"`
}

// DeleteRunRequest удаление прогона
type DeleteRunRequest struct {
	ID string `json:"id" validate:"required,uuid"`
}

// DeleteRunResponse результат удаления
type DeleteRunResponse struct {
	Deleted bool `json:"deleted"`
}

// ==================== Report ====================

// ReportRequest отчёт по сохранённым прогонам
type ReportRequest struct {
	RunIDs []string `json:"run_ids" validate:"required,min=1,dive,uuid"`
	Format string   `json:"format,omitempty" validate:"omitempty,oneof=csv json markdown excel pdf"`
	Title  string   `json:"title,omitempty" validate:"max=200"`
}

// ReportResponse содержимое отчёта
type ReportResponse struct {
	Content     []byte `json:"content"`
	ContentType string `json:"content_type"`
	Filename    string `json:"filename"`
}

// ==================== Catalogue ====================

// ListIntegrandsRequest пустой запрос каталога
type ListIntegrandsRequest struct{}

// IntegrandInfo описание функции из каталога
type IntegrandInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Lower       float64  `json:"lower"`
	Upper       float64  `json:"upper"`
	Params      []string `json:"params,omitempty"`
}

// ListIntegrandsResponse каталог функций
type ListIntegrandsResponse struct {
	Integrands []IntegrandInfo `json:"integrands"`
}
