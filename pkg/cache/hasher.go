package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"montecarlo/pkg/api"
)

// keyPrefix префикс всех ключей результатов
const keyPrefix = "integrate:"

// RunKey нормализованные параметры прогона, от которых зависит результат
type RunKey struct {
	Integrand    string
	Params       map[string]float64
	Coefficients []float64
	Lower        float64
	Upper        float64
	Method       api.Method
	Stop         api.StopRule
	Points       int
	PilotSize    int
	Seed         []uint32
	Precision    uint
	Confidence   float64
}

// Cacheable результат детерминирован только при фиксированном seed и правиле, не
// зависящем от времени
func (k RunKey) Cacheable() bool {
	return len(k.Seed) > 0 && k.Stop.Policy != api.PolicyMaxTime
}

// canonical детерминированное текстовое представление (порядок params отсортирован)
func (k RunKey) canonical() []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "f:%s;", k.Integrand)

	names := make([]string, 0, len(k.Params))
	for name := range k.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "p:%s=%s;", name, formatFloat(k.Params[name]))
	}
	for i, c := range k.Coefficients {
		fmt.Fprintf(&b, "c%d=%s;", i, formatFloat(c))
	}

	fmt.Fprintf(&b, "ab:%s,%s;", formatFloat(k.Lower), formatFloat(k.Upper))
	fmt.Fprintf(&b, "m:%s;stop:%s,%d,%s,%d,%d;", k.Method,
		k.Stop.Policy, k.Stop.Size, formatFloat(k.Stop.Width), k.Stop.BudgetMs, k.Stop.Step)
	fmt.Fprintf(&b, "pts:%d;pilot:%d;prec:%d;conf:%s;", k.Points, k.PilotSize, k.Precision, formatFloat(k.Confidence))

	b.WriteString("seed:")
	for _, s := range k.Seed {
		b.WriteString(strconv.FormatUint(uint64(s), 10))
		b.WriteByte(',')
	}

	return []byte(b.String())
}

// formatFloat точное представление без потери битов
func formatFloat(v float64) string {
	return strconv.FormatUint(math.Float64bits(v), 16)
}

// Hash короткий хеш параметров
func (k RunKey) Hash() string {
	return ShortHash(k.canonical())
}

// BuildIntegrateKey ключ кэша для результата
func BuildIntegrateKey(k RunKey) string {
	return keyPrefix + string(k.Method) + ":" + k.Hash()
}

// QuickHash полный sha256 в hex
func QuickHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ShortHash первые 16 байт sha256 в hex
func ShortHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:16])
}
