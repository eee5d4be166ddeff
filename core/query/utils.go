package query

import (
	"database/sql/driver"
	"reflect"
)

// normalizeValue dereferences non-nil pointers that are not driver.Valuers so
// parameters carry plain values.
func normalizeValue(v any) any {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && !rv.IsNil() {
		if _, ok := rv.Interface().(driver.Valuer); ok {
			break
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return nil
	}
	return rv.Interface()
}

// toSlice expands v into its elements when it is a slice or array other than
// []byte. ok is false for scalar values.
func toSlice(v any) (values []any, ok bool) {
	if v == nil {
		return nil, false
	}
	if vals, isAny := v.([]any); isAny {
		return vals, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return nil, false
		}
		values = make([]any, rv.Len())
		for i := range values {
			values[i] = rv.Index(i).Interface()
		}
		return values, true
	}
	return nil, false
}
