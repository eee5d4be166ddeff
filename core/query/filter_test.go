package query

import (
	"testing"

	"github.com/asaidimu/go-crudsql/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	d := describe(t, Person{})
	var nilName *string

	tests := []struct {
		name   string
		filter Filter
		want   string
		params []any
	}{
		{"empty matches everything", Filter{}, "", nil},
		{"single value", Filter{"Age": 10}, `"Age" = $1`, []any{10}},
		{"lower case key", Filter{"age": 10}, `"Age" = $1`, []any{10}},
		{"upper case key", Filter{"AGE": 10}, `"Age" = $1`, []any{10}},
		{"null value", Filter{"Name": nil}, `"Name" IS NULL`, nil},
		{"typed nil value", Filter{"Name": nilName}, `"Name" IS NULL`, nil},
		{"string value", Filter{"Name": "x"}, `"Name" = $1`, []any{"x"}},
		{"alias resolves by declared name", Filter{"email": "a@b"}, `"email_address" = $1`, []any{"a@b"}},
		{
			"declaration order",
			Filter{"Email": "a@b", "Age": 3, "ID": int64(9)},
			`"ID" = $1 AND "Age" = $2 AND "email_address" = $3`,
			[]any{int64(9), 3, "a@b"},
		},
		{
			"mixed null and value",
			Filter{"Name": nil, "Age": 3},
			`"Name" IS NULL AND "Age" = $1`,
			[]any{3},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBinder(testDialect())
			got, err := Translate(d, tt.filter, b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			var params []any
			for _, p := range b.Params() {
				params = append(params, p.Value)
			}
			assert.Equal(t, tt.params, params)
		})
	}
}

func TestTranslateCaseInsensitivityIsStructural(t *testing.T) {
	d := describe(t, Person{})

	lower := NewBinder(testDialect())
	a, err := Translate(d, Filter{"age": 10}, lower)
	require.NoError(t, err)
	upper := NewBinder(testDialect())
	b, err := Translate(d, Filter{"Age": 10}, upper)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Equal(t, lower.Params(), upper.Params())
}

func TestTranslateErrors(t *testing.T) {
	d := describe(t, Person{})

	_, err := Translate(d, nil, NewBinder(testDialect()))
	assert.ErrorIs(t, err, core.ErrArgumentNull)
	assert.ErrorIs(t, err, core.ErrArgument)

	_, err = Translate(d, Filter{"Ages": 10}, NewBinder(testDialect()))
	require.ErrorIs(t, err, core.ErrInvalidConditionSchema)
	var schemaErr *core.InvalidConditionSchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "Ages", schemaErr.Key)

	_, err = Translate(d, Filter{"Notes": "x"}, NewBinder(testDialect()))
	assert.ErrorIs(t, err, core.ErrInvalidConditionSchema)

	_, err = Translate(d, Filter{"age": 1, "AGE": 2}, NewBinder(testDialect()))
	assert.ErrorIs(t, err, core.ErrArgument)
}

func TestFilterAsCriteria(t *testing.T) {
	d := describe(t, Person{})

	var c Criteria = Filter{"Age": 4}
	got, err := c.Build(d, NewBinder(testDialect()))
	require.NoError(t, err)
	assert.Equal(t, `"Age" = $1`, got)

	got, err = All.Build(d, NewBinder(testDialect()))
	require.NoError(t, err)
	assert.Empty(t, got)

	var nilFilter Filter
	c = nilFilter
	_, err = c.Build(d, NewBinder(testDialect()))
	assert.ErrorIs(t, err, core.ErrArgumentNull)
}

func TestBinderNumbering(t *testing.T) {
	b := NewBinder(testDialect())
	assert.Equal(t, "$1", b.Bind("a"))
	assert.Equal(t, "$2", b.Bind(2))
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, []Param{{Name: "p1", Value: "a"}, {Name: "p2", Value: 2}}, b.Params())

	cmd := Command{Params: b.Params()}
	assert.Equal(t, []any{"a", 2}, cmd.Args())
}
