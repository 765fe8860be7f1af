package convert

import (
	"fmt"
	"time"
)

// Message is one decoded activity-log record.
type Message interface {
	Kind() string
	Value(name string) (any, bool)
}

func floatValue(m Message, name string) (float64, bool) {
	v, ok := m.Value(name)
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}

func intValue(m Message, name string) (int, bool) {
	f, ok := floatValue(m, name)
	if !ok {
		return 0, false
	}
	return int(f), true
}

func requireFloat(m Message, names ...string) (float64, error) {
	for _, name := range names {
		if v, ok := floatValue(m, name); ok {
			return v, nil
		}
	}
	return 0, missingField(m.Kind(), names[0])
}

func requireInt(m Message, name string) (int, error) {
	v, ok := intValue(m, name)
	if !ok {
		return 0, missingField(m.Kind(), name)
	}
	return v, nil
}

func requireTime(m Message, name string) (time.Time, error) {
	v, ok := m.Value(name)
	if !ok {
		return time.Time{}, missingField(m.Kind(), name)
	}
	t, ok := v.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s.%s is %T, not a time", ErrMissingRequiredField, m.Kind(), name, v)
	}
	return t, nil
}

// requireText returns a string field, formatting numeric codes the profile
// could not name.
func requireText(m Message, names ...string) (string, error) {
	for _, name := range names {
		v, ok := m.Value(name)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok {
			if s != "" {
				return s, nil
			}
			continue
		}
		return fmt.Sprint(v), nil
	}
	return "", missingField(m.Kind(), names[0])
}

func optionalInt(m Message, name string) *int {
	v, ok := intValue(m, name)
	if !ok {
		return nil
	}
	return &v
}
