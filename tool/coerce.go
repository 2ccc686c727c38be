package tool

import (
	"fmt"
	"strconv"
	"strings"
)

// CoerceArgs returns a copy of args with every declared parameter coerced
// to its declared type. Arguments without a declaration pass through
// untouched; missing declared arguments are left for the handler to report.
func CoerceArgs(params map[string]ParamType, args Args) (Args, error) {
	coerced := make(Args, len(args))
	for key, value := range args {
		declared, ok := params[key]
		if !ok {
			coerced[key] = value
			continue
		}
		converted, err := coerceValue(declared, value)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", key, err)
		}
		coerced[key] = converted
	}
	return coerced, nil
}

func coerceValue(declared ParamType, value any) (any, error) {
	switch declared {
	case TypeNumber:
		return coerceNumber(value)
	case TypeBoolean:
		return coerceBoolean(value)
	case TypeString:
		return coerceString(value)
	default:
		return nil, fmt.Errorf("unsupported parameter type %q", declared)
	}
}

func coerceNumber(value any) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("cannot coerce %q to number", v)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("cannot coerce %T to number", value)
	}
}

func coerceBoolean(value any) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return false, fmt.Errorf("cannot coerce %q to boolean", v)
		}
		return parsed, nil
	default:
		return false, fmt.Errorf("cannot coerce %T to boolean", value)
	}
}

func coerceString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("cannot coerce %T to string", value)
	}
}
