package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"rostercore/pkg/domain"
)

type fieldError struct {
	field   string
	message string
}

// dateLayouts are tried in order when coercing date fields from strings.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// coerceFields converts mapped values to the kinds the catalog declares for
// the entity. Target fields absent from the catalog pass through untouched;
// the typed decode ignores the ones it does not recognize. Nil values are
// dropped since absence means "don't set".
func coerceFields(entity domain.EntityType, values map[string]any) (map[string]any, []fieldError) {
	out := make(map[string]any, len(values))
	var errs []fieldError
	for name, value := range values {
		if value == nil {
			continue
		}
		spec, ok := domain.CatalogField(entity, name)
		if !ok {
			out[name] = value
			continue
		}
		coerced, err := coerceValue(value, spec.Kind)
		if err != nil {
			errs = append(errs, fieldError{field: name, message: err.Error()})
			continue
		}
		if coerced == nil {
			continue
		}
		out[name] = coerced
	}
	return out, errs
}

func coerceValue(value any, kind domain.FieldKind) (any, error) {
	switch kind {
	case domain.FieldString:
		return coerceString(value)
	case domain.FieldInt:
		return coerceInt(value)
	case domain.FieldFloat:
		return coerceFloat(value)
	case domain.FieldBool:
		return coerceBool(value)
	case domain.FieldDate:
		return coerceDate(value)
	default:
		return value, nil
	}
}

func coerceString(value any) (any, error) {
	switch v := value.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		return s, nil
	case bool, int, int64, float64:
		return fmt.Sprintf("%v", v), nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to string", value)
	}
}

func coerceInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return nil, fmt.Errorf("value %v is not a whole number", v)
		}
		return int(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("value %q is not an integer", v)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to int", value)
	}
}

func coerceFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("value %q is not a number", v)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to float", value)
	}
}

func coerceBool(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		s := strings.ToLower(strings.TrimSpace(v))
		if s == "" {
			return nil, nil
		}
		b, err := strconv.ParseBool(s)
		if err != nil {
			return nil, fmt.Errorf("value %q is not a boolean", v)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("cannot coerce %T to bool", value)
	}
}

func coerceDate(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v.UTC(), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil, nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), nil
			}
		}
		return nil, fmt.Errorf("value %q is not a recognized date", v)
	default:
		return nil, fmt.Errorf("cannot coerce %T to date", value)
	}
}
