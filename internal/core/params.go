package core

import (
	"fmt"
	"strconv"
)

// StringParam fetches a profile parameter as a string. YAML scalars arrive
// as string, int or bool depending on quoting, so everything is stringified.
func StringParam(params map[string]interface{}, key string) string {
	v, ok := params[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// BoolParam fetches a boolean parameter, with a default for absent keys.
func BoolParam(params map[string]interface{}, key string, def bool) bool {
	v, ok := params[key]
	if !ok {
		return def
	}
	if b, ok := v.(bool); ok {
		return b
	}
	if s, ok := v.(string); ok {
		if parsed, err := strconv.ParseBool(s); err == nil {
			return parsed
		}
	}
	return def
}
