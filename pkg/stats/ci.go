// Package stats доверительные интервалы и выборочные статистики
package stats

import (
	"fmt"
)

// DefaultPrecision знаков после запятой при выводе интервала
const DefaultPrecision uint = 3

// ConfidenceInterval интервал [Lower, Upper] вокруг оценки
type ConfidenceInterval struct {
	Lower            float64 `json:"lower"`
	Upper            float64 `json:"upper"`
	Width            float64 `json:"width"`
	DisplayPrecision uint    `json:"display_precision"`
}

// NewConfidenceInterval интервал center ± halfWidth
func NewConfidenceInterval(center, halfWidth float64, precision uint) ConfidenceInterval {
	return ConfidenceInterval{
		Lower:            center - halfWidth,
		Upper:            center + halfWidth,
		Width:            2 * halfWidth,
		DisplayPrecision: precision,
	}
}

// Center середина интервала
func (ci ConfidenceInterval) Center() float64 {
	return (ci.Lower + ci.Upper) / 2
}

// HalfWidth половина ширины
func (ci ConfidenceInterval) HalfWidth() float64 {
	return ci.Width / 2
}

// Contains проверяет, что x лежит в интервале
func (ci ConfidenceInterval) Contains(x float64) bool {
	return x >= ci.Lower && x <= ci.Upper
}

// WithPrecision копия интервала с другой точностью вывода
func (ci ConfidenceInterval) WithPrecision(precision uint) ConfidenceInterval {
	ci.DisplayPrecision = precision
	return ci
}

// String "[lower,upper]" в фиксированной записи
func (ci ConfidenceInterval) String() string {
	p := int(ci.DisplayPrecision)
	return fmt.Sprintf("[%.*f,%.*f]", p, ci.Lower, p, ci.Upper)
}
