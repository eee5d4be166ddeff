package query

import (
	"testing"

	"github.com/asaidimu/go-crudsql/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOrderBy(t *testing.T) {
	d := describe(t, Person{})

	type want struct {
		column string
		desc   bool
	}
	tests := []struct {
		name string
		text string
		want []want
	}{
		{"empty", "", nil},
		{"single column", "Age", []want{{"Age", false}}},
		{"explicit direction", "Age desc", []want{{"Age", true}}},
		{"order by prefix", "ORDER BY Age DESC, Name", []want{{"Age", true}, {"Name", false}}},
		{"lower case prefix", "order by Name asc", []want{{"Name", false}}},
		{"storage name", "email_address DESC", []want{{"email_address", true}}},
		{"declared name", "Email", []want{{"email_address", false}}},
		{"double quoted", `"Age" DESC`, []want{{"Age", true}}},
		{"bracketed", "[Age]", []want{{"Age", false}}},
		{"backticked", "`email_address`", []want{{"email_address", false}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := ParseOrderBy(d, tt.text)
			require.NoError(t, err)
			require.Len(t, items, len(tt.want))
			for i, w := range tt.want {
				assert.Equal(t, w.column, items[i].Member.Column)
				assert.Equal(t, w.desc, items[i].Desc)
			}
		})
	}
}

func TestParseOrderByRejectsUnknownText(t *testing.T) {
	d := describe(t, Person{})

	for _, text := range []string{
		"Height",
		"Age sideways",
		"Age; DROP TABLE people",
		"Age,",
		"Notes",
		"ORDER BY",
	} {
		t.Run(text, func(t *testing.T) {
			_, err := ParseOrderBy(d, text)
			assert.ErrorIs(t, err, core.ErrArgument)
		})
	}
}

func TestDefaultOrder(t *testing.T) {
	keyed := DefaultOrder(describe(t, Enrollment{}))
	require.Len(t, keyed, 2)
	assert.Equal(t, "student_id", keyed[0].Member.Column)
	assert.Equal(t, "course_id", keyed[1].Member.Column)

	keyless := DefaultOrder(describe(t, AuditRecord{}))
	require.Len(t, keyless, 1)
	assert.Equal(t, "Message", keyless[0].Member.Column)
	assert.False(t, keyless[0].Desc)
}
