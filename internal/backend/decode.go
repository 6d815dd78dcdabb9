package backend

import (
	"encoding/json"
	"fmt"
	"math"

	"codeberg.org/mutker/powerctl/internal/errors"
)

func decodeErr(call string, idx int, v any, want string) error {
	errFactory := errors.New()
	return errFactory.WithData(ErrDecode, fmt.Sprintf("%s[%d]: want %s, got %T(%v)", call, idx, want, v, v))
}

func at(res []any, idx int) (any, bool) {
	if idx < 0 || idx >= len(res) {
		return nil, false
	}

	return res[idx], true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func toInt(v any) (int, bool) {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return int(i), true
		}
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}

	return int(math.Round(f)), true
}

func decodeFloat(call string, res []any, idx int) (float64, error) {
	v, _ := at(res, idx)
	f, ok := toFloat(v)
	if !ok {
		return 0, decodeErr(call, idx, v, "number")
	}

	return f, nil
}

// decodeOptFloat treats a missing or null element as unset.
func decodeOptFloat(call string, res []any, idx int) (*float64, error) {
	v, ok := at(res, idx)
	if !ok || v == nil {
		return nil, nil
	}
	f, ok := toFloat(v)
	if !ok {
		return nil, decodeErr(call, idx, v, "number or null")
	}

	return &f, nil
}

func decodeInt(call string, res []any, idx int) (int, error) {
	v, _ := at(res, idx)
	i, ok := toInt(v)
	if !ok {
		return 0, decodeErr(call, idx, v, "integer")
	}

	return i, nil
}

func decodeOptInt(call string, res []any, idx int) (*int, error) {
	v, ok := at(res, idx)
	if !ok || v == nil {
		return nil, nil
	}
	i, ok := toInt(v)
	if !ok {
		return nil, decodeErr(call, idx, v, "integer or null")
	}

	return &i, nil
}

func decodeBool(call string, res []any, idx int) (bool, error) {
	v, _ := at(res, idx)
	b, ok := v.(bool)
	if !ok {
		return false, decodeErr(call, idx, v, "bool")
	}

	return b, nil
}

func decodeString(call string, res []any, idx int) (string, error) {
	v, _ := at(res, idx)
	s, ok := v.(string)
	if !ok {
		return "", decodeErr(call, idx, v, "string")
	}

	return s, nil
}

func decodeOptString(call string, res []any, idx int) (*string, error) {
	v, ok := at(res, idx)
	if !ok || v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, decodeErr(call, idx, v, "string or null")
	}

	return &s, nil
}

// decodeBools reads the whole tuple as a bool vector.
func decodeBools(call string, res []any) ([]bool, error) {
	out := make([]bool, len(res))
	for i := range res {
		b, err := decodeBool(call, res, i)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}

	return out, nil
}

func decodeStrings(call string, res []any) ([]string, error) {
	out := make([]string, len(res))
	for i := range res {
		s, err := decodeString(call, res, i)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}

	return out, nil
}

// decodeInto converts a structured element into dst. Transports that
// already produce the target type are assigned directly; generic JSON
// values go through a marshal round trip.
func decodeInto[T any](call string, v any, idx int, dst *T) error {
	if typed, ok := v.(T); ok {
		*dst = typed
		return nil
	}
	if v == nil {
		return decodeErr(call, idx, v, fmt.Sprintf("%T", *dst))
	}

	errFactory := errors.New()
	raw, err := json.Marshal(v)
	if err != nil {
		return errFactory.Wrap(ErrDecode, err).WithMessage(fmt.Sprintf("Failed to decode %s[%d]", call, idx))
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errFactory.Wrap(ErrDecode, err).WithMessage(fmt.Sprintf("Failed to decode %s[%d]", call, idx))
	}

	return nil
}
