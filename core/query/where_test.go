package query

import (
	"testing"

	"github.com/asaidimu/go-crudsql/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawBuild(t *testing.T) {
	d := describe(t, Person{})

	tests := []struct {
		name string
		raw  Raw
		want string
		args int
	}{
		{"empty text matches everything", Where(""), "", 0},
		{"blank text matches everything", Where("   "), "", 0},
		{"upper case keyword", Where("WHERE Age = 10"), "Age = 10", 0},
		{"mixed case keyword", Where("Where Age = 10"), "Age = 10", 0},
		{"lower case keyword", Where("  where Age = 10"), "Age = 10", 0},
		{"parenthesized condition", Where("WHERE(Age = 10)"), "(Age = 10)", 0},
		{"arguments bind first", Where("WHERE Age > $1 AND Name LIKE $2", 30, "A%"), "Age > $1 AND Name LIKE $2", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBinder(testDialect())
			got, err := tt.raw.Build(d, b)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.args, b.Len())
		})
	}
}

func TestRawBuildRejectsMissingKeyword(t *testing.T) {
	d := describe(t, Person{})

	for _, text := range []string{"Age = 10", "HAVING Age = 10", "WHEREAge = 10", "WHERE", "where   "} {
		t.Run(text, func(t *testing.T) {
			_, err := Where(text).Build(d, NewBinder(testDialect()))
			assert.ErrorIs(t, err, core.ErrArgument)
		})
	}
}

func TestGuardDelete(t *testing.T) {
	var nilFilter Filter
	var nilQuery *QueryFilter
	var nilRaw *Raw
	raw := Where("WHERE Age = 10")

	tests := []struct {
		name     string
		criteria Criteria
		target   error
	}{
		{"no criteria", nil, core.ErrArgumentNull},
		{"all rows", All, core.ErrArgument},
		{"nil filter", nilFilter, core.ErrArgumentNull},
		{"empty filter", Filter{}, core.ErrArgument},
		{"nil structured filter", nilQuery, core.ErrArgumentNull},
		{"nil raw pointer", nilRaw, core.ErrArgumentNull},
		{"empty text", Where(""), core.ErrArgument},
		{"blank text", Where(" "), core.ErrArgument},
		{"having", Where("HAVING Age = 10"), core.ErrArgument},
		{"bare where", Where("WHERE"), core.ErrArgument},
		{"filter", Filter{"Age": 10}, nil},
		{"upper case where", Where("WHERE Age = 10"), nil},
		{"mixed case where", Where("Where Age = 10"), nil},
		{"lower case where", Where("where Age = 10"), nil},
		{"raw pointer", &raw, nil},
		{"structured filter", &QueryFilter{Condition: &FilterCondition{Field: "Age", Operator: ComparisonOperatorEq, Value: 1}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := GuardDelete(tt.criteria)
			if tt.target == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestCheckCondition(t *testing.T) {
	tests := []struct {
		cond    string
		wantErr bool
	}{
		{"", true},
		{"  ", true},
		{"1=1", true},
		{"1 = 1", true},
		{"(1 = 1)", true},
		{"TRUE", true},
		{"not false", true},
		{"'a' = 'a'", true},
		{"Age = 10 OR 1=1", true},
		{"Age = 10 or TRUE", true},
		{`"Age" = $1`, false},
		{"Age = 10", false},
		{"Age >= Age", false},
		{"Age <> 1", false},
		{"Name = 'ORACLE'", false},
		{"$1 = $1", false},
		{"Age = 1 AND Name = 'x'", false},
		{"1=1 AND 1=1", true},
		{"(1 = 1) and TRUE", true},
		{"(Age = 1 OR 1=1)", true},
		{"Age = 1 AND (1=1)", false},
		{"x = 5 AND (y = 1 OR 1=1)", false},
		{"(x = 5 OR y = 1) AND (1=1 OR z = 2)", false},
		{"Name = 'a OR 1=1'", false},
		{"Age BETWEEN 0 AND 1", false},
		{"Origin = 1 OR Anchor = 2", false},
	}
	for _, tt := range tests {
		t.Run(tt.cond, func(t *testing.T) {
			err := CheckCondition(tt.cond)
			if tt.wantErr {
				assert.ErrorIs(t, err, core.ErrArgument)
				return
			}
			assert.NoError(t, err)
		})
	}
}
