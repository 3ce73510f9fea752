package nodes

import "fmt"

// intParam extracts an integer-valued param, tolerating the int/float64
// shapes yaml.v3 and JSON both produce depending on whether the YAML
// literal had a decimal point.
func intParam(params map[string]any, key string) (int, error) {
	raw, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("missing required param %q", key)
	}
	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("param %q has unsupported type %T", key, raw)
	}
}
