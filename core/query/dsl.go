package query

import (
	"fmt"
	"strings"

	"github.com/asaidimu/go-crudsql/core"
	"github.com/asaidimu/go-crudsql/core/schema"
)

// LogicalOperator combines the conditions of a FilterGroup.
type LogicalOperator string

// Logical operators for combining filter conditions.
const (
	LogicalOperatorAnd LogicalOperator = "and"
	LogicalOperatorOr  LogicalOperator = "or"
	LogicalOperatorNot LogicalOperator = "not" // NOT (a AND b ...)
	LogicalOperatorNor LogicalOperator = "nor" // NOT (a OR b ...)
)

// ComparisonOperator defines the set of operators that can be used in a filter condition.
type ComparisonOperator string

// Supported comparison operators.
const (
	ComparisonOperatorEq          ComparisonOperator = "eq"
	ComparisonOperatorNeq         ComparisonOperator = "neq"
	ComparisonOperatorLt          ComparisonOperator = "lt"
	ComparisonOperatorLte         ComparisonOperator = "lte"
	ComparisonOperatorGt          ComparisonOperator = "gt"
	ComparisonOperatorGte         ComparisonOperator = "gte"
	ComparisonOperatorIn          ComparisonOperator = "in"
	ComparisonOperatorNin         ComparisonOperator = "nin"
	ComparisonOperatorContains    ComparisonOperator = "contains"
	ComparisonOperatorNotContains ComparisonOperator = "ncontains"
	ComparisonOperatorStartsWith  ComparisonOperator = "startswith"
	ComparisonOperatorEndsWith    ComparisonOperator = "endswith"
	ComparisonOperatorExists      ComparisonOperator = "exists"
	ComparisonOperatorNotExists   ComparisonOperator = "nexists"
)

// FilterValue represents the value used in a filter condition.
type FilterValue any

// FilterCondition defines a single condition on one member.
type FilterCondition struct {
	Field    string             `json:"field" yaml:"field"` // Declared member name, case-insensitive
	Operator ComparisonOperator `json:"operator" yaml:"operator"`
	Value    FilterValue        `json:"value,omitempty" yaml:"value,omitempty"`
}

// FilterGroup combines multiple filter conditions using a logical operator.
type FilterGroup struct {
	Operator   LogicalOperator `json:"operator" yaml:"operator"`
	Conditions []QueryFilter   `json:"conditions" yaml:"conditions"`
}

// QueryFilter is a union type that can represent either a single filter condition
// or a group of conditions.
type QueryFilter struct {
	Condition *FilterCondition `json:"condition,omitempty" yaml:"condition,omitempty"`
	Group     *FilterGroup     `json:"group,omitempty" yaml:"group,omitempty"`
}

// SortDirection specifies the direction for sorting.
type SortDirection string

// Supported sort directions.
const (
	SortDirectionAsc  SortDirection = "asc"
	SortDirectionDesc SortDirection = "desc"
)

// SortConfiguration defines the sorting order for a specific field.
type SortConfiguration struct {
	Field     string        `json:"field" yaml:"field"`
	Direction SortDirection `json:"direction,omitempty" yaml:"direction,omitempty"`
}

// QueryDSL bundles a structured filter with its sort order and an optional
// page.
type QueryDSL struct {
	Filters *QueryFilter        `json:"filters,omitempty" yaml:"filters,omitempty"`
	Sort    []SortConfiguration `json:"sort,omitempty" yaml:"sort,omitempty"`
	Page    *Page               `json:"page,omitempty" yaml:"page,omitempty"`
}

// Criteria returns the filter as Criteria, or All when there is none.
func (q QueryDSL) Criteria() Criteria {
	if q.Filters == nil {
		return All
	}
	return q.Filters
}

// OrderBy renders the sort configuration as ORDER BY text for ParseOrderBy.
func (q QueryDSL) OrderBy() string {
	items := make([]string, len(q.Sort))
	for i, s := range q.Sort {
		items[i] = s.Field
		if s.Direction != "" {
			items[i] += " " + strings.ToUpper(string(s.Direction))
		}
	}
	return strings.Join(items, ", ")
}

// standardComparisonOperators is a set of all the standard, built-in comparison operators.
var standardComparisonOperators = map[ComparisonOperator]struct{}{
	ComparisonOperatorEq:          {},
	ComparisonOperatorNeq:         {},
	ComparisonOperatorLt:          {},
	ComparisonOperatorLte:         {},
	ComparisonOperatorGt:          {},
	ComparisonOperatorGte:         {},
	ComparisonOperatorIn:          {},
	ComparisonOperatorNin:         {},
	ComparisonOperatorContains:    {},
	ComparisonOperatorNotContains: {},
	ComparisonOperatorStartsWith:  {},
	ComparisonOperatorEndsWith:    {},
	ComparisonOperatorExists:      {},
	ComparisonOperatorNotExists:   {},
}

// IsStandard checks if a comparison operator is one of the standard, built-in operators.
func (c ComparisonOperator) IsStandard() bool {
	_, ok := standardComparisonOperators[c]
	return ok
}

// Build renders the structured filter. Field names resolve like Filter keys.
func (f *QueryFilter) Build(d *schema.TypeDescriptor, b *Binder) (string, error) {
	if f == nil {
		return "", &core.ArgumentNullError{Argument: "filter"}
	}
	return buildWhereClause(d, f, b)
}

// buildWhereClause recursively builds the condition for a QueryFilter.
func buildWhereClause(d *schema.TypeDescriptor, filter *QueryFilter, b *Binder) (string, error) {
	if filter.Condition != nil && filter.Group != nil {
		return "", core.NewArgumentError("filter", "condition and group are mutually exclusive")
	}
	if filter.Condition != nil {
		return buildCondition(d, filter.Condition, b)
	}
	if filter.Group == nil {
		return "", core.NewArgumentError("filter", "neither condition nor group is set")
	}

	var joiner string
	negate := false
	switch filter.Group.Operator {
	case LogicalOperatorAnd:
		joiner = " AND "
	case LogicalOperatorOr:
		joiner = " OR "
	case LogicalOperatorNot:
		joiner, negate = " AND ", true
	case LogicalOperatorNor:
		joiner, negate = " OR ", true
	case "":
		return "", core.NewArgumentError("filter", "logical operator missing in filter group")
	default:
		return "", core.NewArgumentError("filter", "unsupported logical operator %q", filter.Group.Operator)
	}

	var clauses []string
	for i := range filter.Group.Conditions {
		clause, err := buildWhereClause(d, &filter.Group.Conditions[i], b)
		if err != nil {
			return "", err
		}
		if clause != "" {
			clauses = append(clauses, clause)
		}
	}
	if len(clauses) == 0 {
		return "", nil
	}
	joined := "(" + strings.Join(clauses, joiner) + ")"
	if negate {
		return "NOT " + joined, nil
	}
	return joined, nil
}

// buildCondition translates a single FilterCondition into a SQL condition.
func buildCondition(d *schema.TypeDescriptor, cond *FilterCondition, b *Binder) (string, error) {
	m := d.Member(cond.Field)
	if m == nil {
		return "", &core.InvalidConditionSchemaError{Type: d.Name, Key: cond.Field}
	}
	accessor := b.Quote(m.Column)
	null := schema.IsNull(cond.Value)
	value := normalizeValue(cond.Value)

	switch cond.Operator {
	case ComparisonOperatorEq:
		if null {
			return accessor + " IS NULL", nil
		}
		return accessor + " = " + b.Bind(value), nil
	case ComparisonOperatorNeq:
		if null {
			return accessor + " IS NOT NULL", nil
		}
		return accessor + " <> " + b.Bind(value), nil
	case ComparisonOperatorLt, ComparisonOperatorLte, ComparisonOperatorGt, ComparisonOperatorGte:
		if null {
			return "", core.NewArgumentError("filter", "operator %s on %s requires a value", cond.Operator, cond.Field)
		}
		return accessor + " " + relational[cond.Operator] + " " + b.Bind(value), nil
	case ComparisonOperatorIn, ComparisonOperatorNin:
		vals, ok := toSlice(value)
		if !ok && !null {
			vals = []any{value}
		}
		if len(vals) == 0 {
			return "", core.NewArgumentError("filter", "operator %s on %s requires at least one value", cond.Operator, cond.Field)
		}
		placeholders := make([]string, len(vals))
		for i, v := range vals {
			placeholders[i] = b.Bind(normalizeValue(v))
		}
		op := "IN"
		if cond.Operator == ComparisonOperatorNin {
			op = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", accessor, op, strings.Join(placeholders, ", ")), nil
	case ComparisonOperatorContains, ComparisonOperatorNotContains, ComparisonOperatorStartsWith, ComparisonOperatorEndsWith:
		if null {
			return "", core.NewArgumentError("filter", "operator %s on %s requires a value", cond.Operator, cond.Field)
		}
		pattern := escapeLike(fmt.Sprint(value))
		op := " LIKE "
		switch cond.Operator {
		case ComparisonOperatorContains:
			pattern = "%" + pattern + "%"
		case ComparisonOperatorNotContains:
			pattern, op = "%"+pattern+"%", " NOT LIKE "
		case ComparisonOperatorStartsWith:
			pattern += "%"
		case ComparisonOperatorEndsWith:
			pattern = "%" + pattern
		}
		return accessor + op + b.Bind(pattern) + " ESCAPE '" + likeEscape + "'", nil
	case ComparisonOperatorExists:
		return accessor + " IS NOT NULL", nil
	case ComparisonOperatorNotExists:
		return accessor + " IS NULL", nil
	default:
		return "", core.NewArgumentError("filter", "unsupported comparison operator %q", cond.Operator)
	}
}

// likeEscape prefixes wildcard characters in LIKE patterns. SQL Server also
// treats '[' as a pattern character.
const likeEscape = "!"

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_", "[", "![")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

var relational = map[ComparisonOperator]string{
	ComparisonOperatorLt:  "<",
	ComparisonOperatorLte: "<=",
	ComparisonOperatorGt:  ">",
	ComparisonOperatorGte: ">=",
}
