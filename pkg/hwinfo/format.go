package hwinfo

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a sensor value in a JSON report. Values are rendered at
// single precision and always carry a fractional part, so a whole 40 is
// written as 40.0.
type Number float64

func (n Number) MarshalJSON() ([]byte, error) {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	s := strconv.FormatFloat(f, 'g', -1, 32)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return []byte(s), nil
}

// marshalReport renders v with four-space indentation and without HTML
// escaping, keeping object keys in field order.
func marshalReport(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// formatValue renders a sensor value for PrintAllHardware.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 32)
}
