package codec

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders a decoded value on one line.
func Format(v any) string {
	return formatValue(v)
}

func formatValue(v any) string {
	switch v := v.(type) {
	case Record:
		return v.String()
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = formatValue(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return fmt.Sprint(v)
}
