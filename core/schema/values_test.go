package schema

import (
	"database/sql"
	"reflect"
	"testing"

	"github.com/asaidimu/go-crudsql/core"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func describe(t *testing.T, v any) *TypeDescriptor {
	t.Helper()
	d, err := deriveStruct(reflect.TypeOf(v), "postgres", DefaultCacheOptions())
	require.NoError(t, err)
	return d
}

func TestIsNull(t *testing.T) {
	var nilPtr *string
	var nilBytes []byte
	s := "x"

	tests := []struct {
		name string
		v    any
		want bool
	}{
		{"nil", nil, true},
		{"typed nil pointer", nilPtr, true},
		{"nil bytes", nilBytes, true},
		{"invalid null string", sql.NullString{}, true},
		{"null uuid", uuid.NullUUID{}, true},
		{"string", "x", false},
		{"pointer", &s, false},
		{"zero int", 0, false},
		{"valid null string", sql.NullString{String: "a", Valid: true}, false},
		{"uuid", uuid.New(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNull(tt.v))
		})
	}
}

func TestValueDereferencesPointers(t *testing.T) {
	d := describe(t, Customer{})
	email := "a@b.c"
	c := Customer{ID: 7, Name: "Ann", Email: &email}

	v, err := d.Value(c, d.Member("Email"))
	require.NoError(t, err)
	assert.Equal(t, "a@b.c", v)

	v, err = d.Value(&Customer{}, d.Member("Email"))
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = d.Value(OrderLine{}, d.Member("Name"))
	assert.ErrorIs(t, err, core.ErrArgument)

	_, err = d.Value((*Customer)(nil), d.Member("Name"))
	assert.ErrorIs(t, err, core.ErrArgumentNull)
}

func TestKeyValues(t *testing.T) {
	d := describe(t, OrderLine{})

	keys, err := d.KeyValues(OrderLine{OrderID: 3, LineNo: 1}, "update")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(3), 1}, keys)

	none := describe(t, LogEntry{})
	_, err = none.KeyValues(LogEntry{}, "delete")
	assert.ErrorIs(t, err, core.ErrInvalidPrimaryKey)

	tokens := describe(t, Token{})
	_, err = tokens.KeyValues(Token{Subject: "s"}, "find")
	assert.ErrorIs(t, err, core.ErrInvalidPrimaryKey)
}

func TestCheckKeys(t *testing.T) {
	d := describe(t, OrderLine{})

	_, err := d.CheckKeys("find", []any{int64(1)})
	assert.ErrorIs(t, err, core.ErrInvalidPrimaryKey)

	_, err = d.CheckKeys("find", []any{int64(1), nil})
	assert.ErrorIs(t, err, core.ErrInvalidPrimaryKey)

	var nilPtr *int
	_, err = d.CheckKeys("find", []any{nilPtr, 1})
	assert.ErrorIs(t, err, core.ErrInvalidPrimaryKey)

	n := 2
	keys, err := d.CheckKeys("find", []any{int64(1), &n})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), 2}, keys)
}

func TestInsertValuesGeneratesAssignedUUID(t *testing.T) {
	d := describe(t, Token{})

	tok := &Token{Subject: "api"}
	values, err := d.InsertValues(tok, "insert")
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.NotEqual(t, uuid.Nil, tok.Value)
	assert.Equal(t, tok.Value, values[0])

	// not addressable: the command still carries a fresh key
	values, err = d.InsertValues(Token{Subject: "api"}, "insert")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, values[0])

	existing := uuid.New()
	values, err = d.InsertValues(&Token{Value: existing}, "insert")
	require.NoError(t, err)
	assert.Equal(t, existing, values[0])
}

type membership struct {
	Group  uuid.UUID `db:",key"`
	Member uuid.UUID `db:",key"`
}

func (membership) TableName() string { return "memberships" }

func TestInsertValuesRejectsAbsentCompositeComponent(t *testing.T) {
	d := describe(t, membership{})
	assert.Equal(t, KeyComposite, d.Strategy)

	_, err := d.InsertValues(&membership{Group: uuid.New()}, "insert")
	assert.ErrorIs(t, err, core.ErrInvalidPrimaryKey)
}

func TestSetValue(t *testing.T) {
	d := describe(t, Customer{})

	c := &Customer{}
	require.NoError(t, d.SetValue(c, d.Member("ID"), int64(42)))
	assert.Equal(t, int64(42), c.ID)

	require.NoError(t, d.SetValue(c, d.Member("Age"), int64(30)))
	assert.Equal(t, 30, c.Age)

	require.NoError(t, d.SetValue(c, d.Member("Email"), "x@y.z"))
	require.NotNil(t, c.Email)
	assert.Equal(t, "x@y.z", *c.Email)

	assert.Error(t, d.SetValue(c, d.Member("Name"), 12))
	assert.ErrorIs(t, d.SetValue(Customer{}, d.Member("Name"), "x"), core.ErrArgument)
}

type withEmbeddedPointer struct {
	*Auditable
	ID int
}

func (withEmbeddedPointer) TableName() string { return "embedded" }

func TestEmbeddedPointerAllocation(t *testing.T) {
	d := describe(t, withEmbeddedPointer{})

	v, err := d.Value(withEmbeddedPointer{}, d.Member("CreatedBy"))
	require.NoError(t, err)
	assert.Nil(t, v)

	e := &withEmbeddedPointer{}
	require.NoError(t, d.SetValue(e, d.Member("CreatedBy"), "root"))
	require.NotNil(t, e.Auditable)
	assert.Equal(t, "root", e.CreatedBy)
}

func TestDocumentValues(t *testing.T) {
	def := &Definition{
		Name: "Event",
		Fields: []*FieldDefinition{
			{Name: "Id", Type: FieldTypeUUID, Key: true, Assigned: true},
			{Name: "Kind", Type: FieldTypeString},
		},
	}
	d, err := deriveDefinition(def, "postgres", DefaultCacheOptions())
	require.NoError(t, err)

	doc := Document{"kind": "created"}
	values, err := d.InsertValues(doc, "insert")
	require.NoError(t, err)
	assert.IsType(t, uuid.UUID{}, doc["Id"])
	assert.Equal(t, []any{doc["Id"], "created"}, values)

	_, err = d.Value(Customer{}, d.Member("Kind"))
	assert.ErrorIs(t, err, core.ErrArgument)
}
