package config

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Tree is an already parsed configuration document made of nested maps,
// slices and scalars, as produced by the YAML and JSON parsers.
type Tree map[string]any

var keyFolder = strings.NewReplacer("-", "", "_", "")

// normalizeKey folds case and drops separators so that "activeStore",
// "active_store" and "ACTIVESTORE" compare equal.
func normalizeKey(k string) string {
	return keyFolder.Replace(strings.ToLower(k))
}

// lookup finds key in m. An exact match wins; otherwise the first relaxed
// match in lexical key order is returned.
func lookup(m map[string]any, key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	if v, ok := m[key]; ok {
		return v, true
	}
	want := normalizeKey(key)
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if normalizeKey(k) == want {
			return m[k], true
		}
	}
	return nil, false
}

func asString(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("expected a scalar value, got %T", v)
	}
}

func asInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		if t > math.MaxInt || t < math.MinInt {
			return 0, fmt.Errorf("integer %d out of range", t)
		}
		return int(t), nil
	case uint64:
		if t > math.MaxInt {
			return 0, fmt.Errorf("integer %d out of range", t)
		}
		return int(t), nil
	case float64:
		if t != math.Trunc(t) || t > math.MaxInt || t < math.MinInt {
			return 0, fmt.Errorf("expected an integer, got %v", t)
		}
		return int(t), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, fmt.Errorf("expected an integer, got %q", t)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("expected an integer, got %T", v)
	}
}

func asBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return false, fmt.Errorf("expected a boolean, got %q", t)
		}
		return b, nil
	default:
		return false, fmt.Errorf("expected a boolean, got %T", v)
	}
}

func asMap(v any) (map[string]any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return t, nil
	case Tree:
		return t, nil
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a mapping, got %T", v)
	}
}

func asSlice(v any) ([]any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []any:
		return t, nil
	case []map[string]any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = t[i]
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a list, got %T", v)
	}
}
