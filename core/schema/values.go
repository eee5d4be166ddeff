package schema

import (
	"database/sql/driver"
	"fmt"
	"reflect"

	"github.com/asaidimu/go-crudsql/core"
	"github.com/google/uuid"
)

// Document is the entity form of declaratively defined types. Keys are
// declared member names.
type Document map[string]any

// Record pairs a Document with the registered definition it belongs to, so
// entity operations can resolve its descriptor.
type Record struct {
	Type     Named
	Document Document
}

// IsNull reports whether v represents SQL NULL: nil, a nil pointer, map,
// slice or interface, or a driver.Valuer that yields nil.
func IsNull(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return true
		}
	}
	if valuer, ok := v.(driver.Valuer); ok {
		dv, err := valuer.Value()
		return err == nil && dv == nil
	}
	return false
}

func isZeroUUID(v any) bool {
	switch id := v.(type) {
	case uuid.UUID:
		return id == uuid.Nil
	case string:
		return id == ""
	}
	return false
}

// Value returns the value entity holds for m. Pointers are dereferenced and
// NULL is returned as nil.
func (d *TypeDescriptor) Value(entity any, m *MemberDescriptor) (any, error) {
	if d.IsDocument() {
		doc, err := d.document(entity)
		if err != nil {
			return nil, err
		}
		return normalize(documentValue(doc, m.Name)), nil
	}

	rv, err := d.structValue(entity)
	if err != nil {
		return nil, err
	}
	fv, err := rv.FieldByIndexErr(m.index)
	if err != nil {
		// nil embedded pointer
		return nil, nil
	}
	return normalize(fv.Interface()), nil
}

func normalize(v any) any {
	if IsNull(v) {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if _, ok := v.(driver.Valuer); !ok {
			return rv.Elem().Interface()
		}
	}
	return v
}

func documentValue(doc Document, name string) any {
	if v, ok := doc[name]; ok {
		return v
	}
	for k, v := range doc {
		if EqualFold(k, name) {
			return v
		}
	}
	return nil
}

func (d *TypeDescriptor) document(entity any) (Document, error) {
	switch doc := entity.(type) {
	case Document:
		if doc == nil {
			return nil, &core.ArgumentNullError{Argument: "entity"}
		}
		return doc, nil
	case map[string]any:
		if doc == nil {
			return nil, &core.ArgumentNullError{Argument: "entity"}
		}
		return Document(doc), nil
	case *Document:
		if doc == nil || *doc == nil {
			return nil, &core.ArgumentNullError{Argument: "entity"}
		}
		return *doc, nil
	case Record:
		return d.document(doc.Document)
	case *Record:
		if doc == nil {
			return nil, &core.ArgumentNullError{Argument: "entity"}
		}
		return d.document(doc.Document)
	case nil:
		return nil, &core.ArgumentNullError{Argument: "entity"}
	}
	return nil, core.NewArgumentError("entity", "%s entities must be schema.Document, got %T", d.Name, entity)
}

func (d *TypeDescriptor) structValue(entity any) (reflect.Value, error) {
	rv := reflect.ValueOf(entity)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return rv, &core.ArgumentNullError{Argument: "entity"}
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return rv, &core.ArgumentNullError{Argument: "entity"}
	}
	if rv.Type() != d.GoType {
		return rv, core.NewArgumentError("entity", "expected %s, got %T", d.GoType, entity)
	}
	return rv, nil
}

// checkKey fails when v cannot identify a row: NULL or a zero UUID.
func (d *TypeDescriptor) checkKey(m *MemberDescriptor, v any, operation string) error {
	if v == nil {
		return core.NewInvalidPrimaryKeyError(d.Name, operation, "key %s is absent", m.Name)
	}
	if m.Kind == KindUUID && isZeroUUID(v) {
		return core.NewInvalidPrimaryKeyError(d.Name, operation, "key %s holds the zero UUID", m.Name)
	}
	return nil
}

// KeyValues returns the key values held by entity in key order. Every
// component must be present.
func (d *TypeDescriptor) KeyValues(entity any, operation string) ([]any, error) {
	if d.Strategy == KeyNone {
		return nil, core.NewInvalidPrimaryKeyError(d.Name, operation, "type declares no key")
	}
	values := make([]any, len(d.Keys))
	for i, k := range d.Keys {
		v, err := d.Value(entity, k)
		if err != nil {
			return nil, err
		}
		if err := d.checkKey(k, v, operation); err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// CheckKeys validates explicitly supplied key values: one per key member, in
// key order, none absent.
func (d *TypeDescriptor) CheckKeys(operation string, keys []any) ([]any, error) {
	if d.Strategy == KeyNone {
		return nil, core.NewInvalidPrimaryKeyError(d.Name, operation, "type declares no key")
	}
	if len(keys) != len(d.Keys) {
		return nil, core.NewInvalidPrimaryKeyError(d.Name, operation, "expected %d key values, got %d", len(d.Keys), len(keys))
	}
	values := make([]any, len(keys))
	for i, k := range d.Keys {
		v := normalize(keys[i])
		if err := d.checkKey(k, v, operation); err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// InsertValues returns the values of the insertable members. A single
// assigned UUID key left at its zero value receives a fresh UUID, written back
// to entity when it is addressable. Any other absent key fails.
func (d *TypeDescriptor) InsertValues(entity any, operation string) ([]any, error) {
	members := d.Insertable()
	values := make([]any, len(members))
	for i, m := range members {
		v, err := d.Value(entity, m)
		if err != nil {
			return nil, err
		}
		if m.Key {
			if d.Strategy == KeySingleAssigned && m.Kind == KindUUID && (isZeroUUID(v) || v == nil && d.IsDocument()) {
				id := uuid.New()
				// unaddressable values still get the generated key in the command
				_ = d.SetValue(entity, m, id)
				v = id
			}
			if err := d.checkKey(m, v, operation); err != nil {
				return nil, err
			}
		}
		values[i] = v
	}
	return values, nil
}

// UpdateValues returns the values of the updatable members.
func (d *TypeDescriptor) UpdateValues(entity any) ([]any, error) {
	members := d.Updatable()
	values := make([]any, len(members))
	for i, m := range members {
		v, err := d.Value(entity, m)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// SetValue stores v into entity's member m. Struct entities must be passed by
// pointer. Numeric values are converted to the member's type when possible.
func (d *TypeDescriptor) SetValue(entity any, m *MemberDescriptor, v any) error {
	if d.IsDocument() {
		doc, err := d.document(entity)
		if err != nil {
			return err
		}
		doc[m.Name] = v
		return nil
	}

	fv, err := d.Target(entity, m)
	if err != nil {
		return err
	}
	return assign(fv, v)
}

// Target returns the settable field for m within entity, allocating nil
// embedded pointers on the way.
func (d *TypeDescriptor) Target(entity any, m *MemberDescriptor) (reflect.Value, error) {
	rv := reflect.ValueOf(entity)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return reflect.Value{}, core.NewArgumentError("entity", "%s must be passed by non-nil pointer to be written", d.Name)
	}
	return FieldFor(rv.Elem(), m)
}

// FieldFor walks m's index path from the struct value v, allocating nil
// embedded pointers. v must be addressable.
func FieldFor(v reflect.Value, m *MemberDescriptor) (reflect.Value, error) {
	for i, x := range m.index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}, fmt.Errorf("cannot allocate embedded struct for %s", m.Name)
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	if !v.CanSet() {
		return reflect.Value{}, fmt.Errorf("field %s is not settable", m.Name)
	}
	return v, nil
}

func assign(fv reflect.Value, v any) error {
	if v == nil {
		fv.Set(reflect.Zero(fv.Type()))
		return nil
	}
	target := fv.Type()
	if target.Kind() == reflect.Pointer {
		ptr := reflect.New(target.Elem())
		if err := assign(ptr.Elem(), v); err != nil {
			return err
		}
		fv.Set(ptr)
		return nil
	}
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(target):
		fv.Set(rv)
	case rv.Type().ConvertibleTo(target) && numeric(rv.Kind()) && numeric(target.Kind()):
		fv.Set(rv.Convert(target))
	default:
		return fmt.Errorf("cannot assign %T to %s", v, target)
	}
	return nil
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
