package schema

import (
	"database/sql"
	"database/sql/driver"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// ValueKind is the storage-relevant category of a member's value type.
type ValueKind int

const (
	KindOther   ValueKind = iota // Any driver.Valuer the module does not classify further
	KindString                   // Text data
	KindInteger                  // Signed or unsigned integers
	KindFloat                    // Floating point numbers
	KindDecimal                  // Exact numerics
	KindBool                     // True/false values
	KindUUID                     // 128-bit identifiers
	KindTime                     // Timestamps
	KindBytes                    // Binary data
)

var kindNames = [...]string{
	KindOther:   "other",
	KindString:  "string",
	KindInteger: "integer",
	KindFloat:   "float",
	KindDecimal: "decimal",
	KindBool:    "bool",
	KindUUID:    "uuid",
	KindTime:    "time",
	KindBytes:   "bytes",
}

func (k ValueKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// MemberDescriptor describes one persisted member of a mapped type.
type MemberDescriptor struct {
	Name     string       // Declared name
	Column   string       // Storage name: the alias if one is declared, otherwise Name
	Kind     ValueKind    // Value category
	GoType   reflect.Type // Declared Go type; nil for declarative types
	Nullable bool         // Whether the member may hold NULL
	Key      bool         // Part of the primary key
	Assigned bool         // Key value is supplied by the caller rather than generated
	Insert   bool         // Participates in INSERT statements
	Update   bool         // Participates in UPDATE SET lists

	index []int // reflect field index path, nil for declarative types
}

// Index returns the reflect field index path of the member within its struct,
// or nil for declarative types.
func (m *MemberDescriptor) Index() []int {
	return m.index
}

var (
	timeType   = reflect.TypeOf(time.Time{})
	uuidType   = reflect.TypeOf(uuid.UUID{})
	bytesType  = reflect.TypeOf([]byte(nil))
	valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
)

// nullTypes maps the database/sql null wrappers onto their value kind.
var nullTypes = map[reflect.Type]ValueKind{
	reflect.TypeOf(sql.NullString{}):  KindString,
	reflect.TypeOf(sql.NullInt64{}):   KindInteger,
	reflect.TypeOf(sql.NullInt32{}):   KindInteger,
	reflect.TypeOf(sql.NullInt16{}):   KindInteger,
	reflect.TypeOf(sql.NullByte{}):    KindInteger,
	reflect.TypeOf(sql.NullFloat64{}): KindFloat,
	reflect.TypeOf(sql.NullBool{}):    KindBool,
	reflect.TypeOf(sql.NullTime{}):    KindTime,
	reflect.TypeOf(uuid.NullUUID{}):   KindUUID,
}

// classify reports the value kind of t and whether it may hold NULL. ok is
// false for types that cannot be stored in a single column.
func classify(t reflect.Type) (kind ValueKind, nullable bool, ok bool) {
	if t.Kind() == reflect.Pointer {
		kind, _, ok = classify(t.Elem())
		return kind, true, ok
	}

	switch t {
	case timeType:
		return KindTime, false, true
	case uuidType:
		return KindUUID, false, true
	case bytesType:
		return KindBytes, true, true
	}
	if k, found := nullTypes[t]; found {
		return k, true, true
	}
	if t.Implements(valuerType) || reflect.PointerTo(t).Implements(valuerType) {
		if t.Name() == "Decimal" {
			return KindDecimal, true, true
		}
		return KindOther, true, true
	}

	switch t.Kind() {
	case reflect.String:
		return KindString, false, true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInteger, false, true
	case reflect.Float32, reflect.Float64:
		return KindFloat, false, true
	case reflect.Bool:
		return KindBool, false, true
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return KindBytes, true, true
		}
	}
	return KindOther, false, false
}
