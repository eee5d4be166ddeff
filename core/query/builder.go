package query

// QueryBuilder provides a fluent API for building QueryDSL structures.
//
//	dsl := query.NewQueryBuilder().
//		Where("Age").Gte(18).
//		WhereGroup(query.LogicalOperatorOr).
//			Where("City").Eq("Lagos").
//			Where("City").Eq("Nairobi").
//		End().
//		OrderByDesc("Age").
//		Page(1, 20).
//		Build()
type QueryBuilder struct {
	query QueryDSL
}

// NewQueryBuilder creates a new, empty query builder instance.
func NewQueryBuilder() *QueryBuilder {
	return &QueryBuilder{
		query: QueryDSL{},
	}
}

// Build returns the constructed QueryDSL object.
func (qb *QueryBuilder) Build() QueryDSL {
	return qb.query
}

// Clone returns a builder with a copy of the current sort and page. Filters
// are shared; adding a condition replaces the top-level filter rather than
// mutating it.
func (qb *QueryBuilder) Clone() *QueryBuilder {
	clone := &QueryBuilder{query: qb.query}
	clone.query.Sort = append([]SortConfiguration(nil), qb.query.Sort...)
	if qb.query.Page != nil {
		page := *qb.query.Page
		clone.query.Page = &page
	}
	return clone
}

// Reset clears all configurations from the query builder, returning it to its initial state.
func (qb *QueryBuilder) Reset() *QueryBuilder {
	qb.query = QueryDSL{}
	return qb
}

// addFilter ANDs filter with any filter already present.
func (qb *QueryBuilder) addFilter(filter QueryFilter) *QueryBuilder {
	switch {
	case qb.query.Filters == nil:
		qb.query.Filters = &filter
	case qb.query.Filters.Group != nil && qb.query.Filters.Group.Operator == LogicalOperatorAnd:
		conditions := append(append([]QueryFilter(nil), qb.query.Filters.Group.Conditions...), filter)
		qb.query.Filters = &QueryFilter{Group: &FilterGroup{Operator: LogicalOperatorAnd, Conditions: conditions}}
	default:
		qb.query.Filters = &QueryFilter{Group: &FilterGroup{
			Operator:   LogicalOperatorAnd,
			Conditions: []QueryFilter{*qb.query.Filters, filter},
		}}
	}
	return qb
}

// Where begins the construction of a filter condition for a specific field.
// Successive conditions are ANDed.
func (qb *QueryBuilder) Where(field string) *FilterConditionBuilder {
	return &FilterConditionBuilder{parent: qb, field: field}
}

// WhereGroup begins the construction of a group of filter conditions, combined
// with a logical operator.
func (qb *QueryBuilder) WhereGroup(operator LogicalOperator) *FilterGroupBuilder {
	return &FilterGroupBuilder{root: qb, operator: operator}
}

// FilterConditionBuilder is used to build a single filter condition (e.g., field = value).
type FilterConditionBuilder struct {
	parent *QueryBuilder
	field  string
}

// Eq adds an equality condition to the query.
func (fcb *FilterConditionBuilder) Eq(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorEq, value)
}

// Neq adds a not-equal condition to the query.
func (fcb *FilterConditionBuilder) Neq(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorNeq, value)
}

// Lt adds a less-than condition to the query.
func (fcb *FilterConditionBuilder) Lt(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorLt, value)
}

// Lte adds a less-than-or-equal condition to the query.
func (fcb *FilterConditionBuilder) Lte(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorLte, value)
}

// Gt adds a greater-than condition to the query.
func (fcb *FilterConditionBuilder) Gt(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorGt, value)
}

// Gte adds a greater-than-or-equal condition to the query.
func (fcb *FilterConditionBuilder) Gte(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorGte, value)
}

// In adds an "in" condition, checking if a field's value is within a set of values.
func (fcb *FilterConditionBuilder) In(values ...FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorIn, values)
}

// Nin adds a "not in" condition, checking if a field's value is not within a set of values.
func (fcb *FilterConditionBuilder) Nin(values ...FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorNin, values)
}

// Contains adds a condition to check if a string field contains a substring.
func (fcb *FilterConditionBuilder) Contains(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorContains, value)
}

// StartsWith adds a condition to check if a string field starts with a specific prefix.
func (fcb *FilterConditionBuilder) StartsWith(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorStartsWith, value)
}

// EndsWith adds a condition to check if a string field ends with a specific suffix.
func (fcb *FilterConditionBuilder) EndsWith(value FilterValue) *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorEndsWith, value)
}

// Exists adds a condition to check if a field is not null.
func (fcb *FilterConditionBuilder) Exists() *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorExists, true)
}

// NotExists adds a condition to check if a field is null.
func (fcb *FilterConditionBuilder) NotExists() *QueryBuilder {
	return fcb.addCondition(ComparisonOperatorNotExists, true)
}

func (fcb *FilterConditionBuilder) addCondition(operator ComparisonOperator, value FilterValue) *QueryBuilder {
	return fcb.parent.addFilter(QueryFilter{Condition: &FilterCondition{
		Field:    fcb.field,
		Operator: operator,
		Value:    value,
	}})
}

// FilterGroupBuilder is used to build a group of filter conditions.
type FilterGroupBuilder struct {
	root       *QueryBuilder
	parent     *FilterGroupBuilder // nil for top-level groups
	operator   LogicalOperator
	conditions []QueryFilter
}

// Where adds a new condition to the current filter group.
func (fgb *FilterGroupBuilder) Where(field string) *FilterConditionBuilderInGroup {
	return &FilterConditionBuilderInGroup{groupBuilder: fgb, field: field}
}

// WhereGroup opens a nested group; close it with EndGroup.
func (fgb *FilterGroupBuilder) WhereGroup(operator LogicalOperator) *FilterGroupBuilder {
	return &FilterGroupBuilder{root: fgb.root, parent: fgb, operator: operator}
}

func (fgb *FilterGroupBuilder) filter() QueryFilter {
	return QueryFilter{Group: &FilterGroup{Operator: fgb.operator, Conditions: fgb.conditions}}
}

// EndGroup closes a nested group and returns to its parent group. A
// top-level group is returned unchanged.
func (fgb *FilterGroupBuilder) EndGroup() *FilterGroupBuilder {
	if fgb.parent == nil {
		return fgb
	}
	fgb.parent.conditions = append(fgb.parent.conditions, fgb.filter())
	return fgb.parent
}

// End finalizes the group, closing any open parents, and returns to the query builder.
func (fgb *FilterGroupBuilder) End() *QueryBuilder {
	if fgb.parent != nil {
		return fgb.EndGroup().End()
	}
	return fgb.root.addFilter(fgb.filter())
}

// FilterConditionBuilderInGroup is used to build a filter condition within a group.
type FilterConditionBuilderInGroup struct {
	groupBuilder *FilterGroupBuilder
	field        string
}

// Eq adds an equality condition to the current filter group.
func (fcbg *FilterConditionBuilderInGroup) Eq(value FilterValue) *FilterGroupBuilder {
	return fcbg.addConditionToGroup(ComparisonOperatorEq, value)
}

// Neq adds a not-equal condition to the current filter group.
func (fcbg *FilterConditionBuilderInGroup) Neq(value FilterValue) *FilterGroupBuilder {
	return fcbg.addConditionToGroup(ComparisonOperatorNeq, value)
}

// Lt adds a less-than condition to the current filter group.
func (fcbg *FilterConditionBuilderInGroup) Lt(value FilterValue) *FilterGroupBuilder {
	return fcbg.addConditionToGroup(ComparisonOperatorLt, value)
}

// Lte adds a less-than-or-equal condition to the current filter group.
func (fcbg *FilterConditionBuilderInGroup) Lte(value FilterValue) *FilterGroupBuilder {
	return fcbg.addConditionToGroup(ComparisonOperatorLte, value)
}

// Gt adds a greater-than condition to the current filter group.
func (fcbg *FilterConditionBuilderInGroup) Gt(value FilterValue) *FilterGroupBuilder {
	return fcbg.addConditionToGroup(ComparisonOperatorGt, value)
}

// Gte adds a greater-than-or-equal condition to the current filter group.
func (fcbg *FilterConditionBuilderInGroup) Gte(value FilterValue) *FilterGroupBuilder {
	return fcbg.addConditionToGroup(ComparisonOperatorGte, value)
}

// In adds an "in" condition to the current filter group.
func (fcbg *FilterConditionBuilderInGroup) In(values ...FilterValue) *FilterGroupBuilder {
	return fcbg.addConditionToGroup(ComparisonOperatorIn, values)
}

// Contains adds a contains condition to the current filter group.
func (fcbg *FilterConditionBuilderInGroup) Contains(value FilterValue) *FilterGroupBuilder {
	return fcbg.addConditionToGroup(ComparisonOperatorContains, value)
}

// Nin adds a "not in" condition to the current filter group.
func (fcbg *FilterConditionBuilderInGroup) Nin(values ...FilterValue) *FilterGroupBuilder {
	return fcbg.addConditionToGroup(ComparisonOperatorNin, values)
}

// StartsWith adds a prefix condition to the current filter group.
func (fcbg *FilterConditionBuilderInGroup) StartsWith(value FilterValue) *FilterGroupBuilder {
	return fcbg.addConditionToGroup(ComparisonOperatorStartsWith, value)
}

// EndsWith adds a suffix condition to the current filter group.
func (fcbg *FilterConditionBuilderInGroup) EndsWith(value FilterValue) *FilterGroupBuilder {
	return fcbg.addConditionToGroup(ComparisonOperatorEndsWith, value)
}

// Exists adds an exists condition to the current filter group.
func (fcbg *FilterConditionBuilderInGroup) Exists() *FilterGroupBuilder {
	return fcbg.addConditionToGroup(ComparisonOperatorExists, true)
}

// NotExists adds a not-exists condition to the current filter group.
func (fcbg *FilterConditionBuilderInGroup) NotExists() *FilterGroupBuilder {
	return fcbg.addConditionToGroup(ComparisonOperatorNotExists, true)
}

func (fcbg *FilterConditionBuilderInGroup) addConditionToGroup(operator ComparisonOperator, value FilterValue) *FilterGroupBuilder {
	fcbg.groupBuilder.conditions = append(fcbg.groupBuilder.conditions, QueryFilter{Condition: &FilterCondition{
		Field:    fcbg.field,
		Operator: operator,
		Value:    value,
	}})
	return fcbg.groupBuilder
}

// OrderBy adds a sorting configuration to the query.
func (qb *QueryBuilder) OrderBy(field string, direction SortDirection) *QueryBuilder {
	qb.query.Sort = append(qb.query.Sort, SortConfiguration{
		Field:     field,
		Direction: direction,
	})
	return qb
}

// OrderByAsc adds an ascending sort order for a specific field.
func (qb *QueryBuilder) OrderByAsc(field string) *QueryBuilder {
	return qb.OrderBy(field, SortDirectionAsc)
}

// OrderByDesc adds a descending sort order for a specific field.
func (qb *QueryBuilder) OrderByDesc(field string) *QueryBuilder {
	return qb.OrderBy(field, SortDirectionDesc)
}

// Page requests the 1-based page index of the given size.
func (qb *QueryBuilder) Page(index, size int64) *QueryBuilder {
	qb.query.Page = &Page{Index: index, Size: size}
	return qb
}
