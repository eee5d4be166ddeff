package query

import (
	"strconv"
	"strings"

	"github.com/asaidimu/go-crudsql/core/schema"
)

// ANSI renders the statement shapes that read the same in every supported
// dialect. Dialects embed it, supply quoting and placeholders, and override
// the shapes that differ (paging, top-N, key return).
type ANSI struct {
	DialectName string
	QuoteIdent  func(ident string) string
	Marker      func(n int) string
	ParamLimit  int
}

// Name returns the dialect identifier.
func (a ANSI) Name() string { return a.DialectName }

// Quote quotes a single identifier.
func (a ANSI) Quote(ident string) string { return a.QuoteIdent(ident) }

// Placeholder returns the marker for the n-th parameter.
func (a ANSI) Placeholder(n int) string { return a.Marker(n) }

// MaxParams returns the parameter limit of one statement.
func (a ANSI) MaxParams() int { return a.ParamLimit }

// MaxRows returns 0: VALUES lists are bounded by MaxParams only.
func (a ANSI) MaxRows() int { return 0 }

// KeyFromResult returns false: generated keys come back as a row.
func (a ANSI) KeyFromResult() bool { return false }

// Table renders the quoted table, schema-qualified when a schema is declared.
func (a ANSI) Table(d *schema.TypeDescriptor) string {
	if d.Table.Schema == "" {
		return a.Quote(d.Table.Name)
	}
	return a.Quote(d.Table.Schema) + "." + a.Quote(d.Table.Name)
}

// ColumnList renders the quoted storage names of members.
func (a ANSI) ColumnList(members []*schema.MemberDescriptor) string {
	cols := make([]string, len(members))
	for i, m := range members {
		cols[i] = a.Quote(m.Column)
	}
	return strings.Join(cols, ", ")
}

// SelectList renders every persisted column in member order.
func (a ANSI) SelectList(d *schema.TypeDescriptor) string {
	return a.ColumnList(d.Members)
}

// WhereClause renders " WHERE cond", or nothing for an empty condition.
func (a ANSI) WhereClause(cond string) string {
	if cond == "" {
		return ""
	}
	return " WHERE " + cond
}

// OrderList renders order items without the ORDER BY keywords.
func (a ANSI) OrderList(items []OrderItem) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = a.Quote(item.Member.Column)
		if item.Desc {
			parts[i] += " DESC"
		} else {
			parts[i] += " ASC"
		}
	}
	return strings.Join(parts, ", ")
}

// OrderClause renders " ORDER BY ...", or nothing without items.
func (a ANSI) OrderClause(items []OrderItem) string {
	if len(items) == 0 {
		return ""
	}
	return " ORDER BY " + a.OrderList(items)
}

// PageOrder returns order, or the default order when it is empty.
func (a ANSI) PageOrder(d *schema.TypeDescriptor, order []OrderItem) []OrderItem {
	if len(order) == 0 {
		return DefaultOrder(d)
	}
	return order
}

// KeyPredicate renders equality on every key column, binding keys in order.
func (a ANSI) KeyPredicate(d *schema.TypeDescriptor, b *Binder, keys []any) string {
	parts := make([]string, len(d.Keys))
	for i, k := range d.Keys {
		parts[i] = a.Quote(k.Column) + " = " + b.Bind(keys[i])
	}
	return strings.Join(parts, " AND ")
}

// ValuesRow binds one row and renders its parenthesized placeholder list.
func (a ANSI) ValuesRow(b *Binder, values []any) string {
	marks := make([]string, len(values))
	for i, v := range values {
		marks[i] = b.Bind(v)
	}
	return "(" + strings.Join(marks, ", ") + ")"
}

// Count renders SELECT COUNT(*).
func (a ANSI) Count(d *schema.TypeDescriptor, where string) string {
	return "SELECT COUNT(*) FROM " + a.Table(d) + a.WhereClause(where)
}

// Find renders a select by full key.
func (a ANSI) Find(d *schema.TypeDescriptor, b *Binder, keys []any) string {
	return "SELECT " + a.SelectList(d) + " FROM " + a.Table(d) + " WHERE " + a.KeyPredicate(d, b, keys)
}

// GetRange renders a filtered, optionally ordered select.
func (a ANSI) GetRange(d *schema.TypeDescriptor, where string, order []OrderItem) string {
	return "SELECT " + a.SelectList(d) + " FROM " + a.Table(d) + a.WhereClause(where) + a.OrderClause(order)
}

// GetPage renders LIMIT take OFFSET skip paging.
func (a ANSI) GetPage(d *schema.TypeDescriptor, where string, order []OrderItem, skip, take int64) string {
	return a.GetRange(d, where, a.PageOrder(d, order)) +
		" LIMIT " + strconv.FormatInt(take, 10) + " OFFSET " + strconv.FormatInt(skip, 10)
}

// GetTop renders the first count rows with LIMIT.
func (a ANSI) GetTop(d *schema.TypeDescriptor, count int64, order []OrderItem, where string) string {
	return a.GetRange(d, where, order) + " LIMIT " + strconv.FormatInt(count, 10)
}

// Insert renders a single-row insert of the insertable columns.
func (a ANSI) Insert(d *schema.TypeDescriptor, b *Binder, values []any) string {
	return "INSERT INTO " + a.Table(d) + " (" + a.ColumnList(d.Insertable()) + ") VALUES " + a.ValuesRow(b, values)
}

// InsertReturningKey renders an insert with a RETURNING clause for the key.
func (a ANSI) InsertReturningKey(d *schema.TypeDescriptor, b *Binder, values []any) string {
	return a.Insert(d, b, values) + " RETURNING " + a.Quote(d.Keys[0].Column)
}

// BulkInsert renders a multi-row VALUES insert.
func (a ANSI) BulkInsert(d *schema.TypeDescriptor, b *Binder, rows [][]any) string {
	tuples := make([]string, len(rows))
	for i, row := range rows {
		tuples[i] = a.ValuesRow(b, row)
	}
	return "INSERT INTO " + a.Table(d) + " (" + a.ColumnList(d.Insertable()) + ") VALUES " + strings.Join(tuples, ", ")
}

// Update renders SET on the updatable columns filtered by the full key.
func (a ANSI) Update(d *schema.TypeDescriptor, b *Binder, values []any, keys []any) string {
	members := d.Updatable()
	sets := make([]string, len(members))
	for i, m := range members {
		sets[i] = a.Quote(m.Column) + " = " + b.Bind(values[i])
	}
	return "UPDATE " + a.Table(d) + " SET " + strings.Join(sets, ", ") + " WHERE " + a.KeyPredicate(d, b, keys)
}

// Delete renders a delete by full key.
func (a ANSI) Delete(d *schema.TypeDescriptor, b *Binder, keys []any) string {
	return "DELETE FROM " + a.Table(d) + " WHERE " + a.KeyPredicate(d, b, keys)
}

// DeleteRange renders a conditional delete.
func (a ANSI) DeleteRange(d *schema.TypeDescriptor, where string) string {
	return "DELETE FROM " + a.Table(d) + a.WhereClause(where)
}

// DeleteAll renders an unconditional delete.
func (a ANSI) DeleteAll(d *schema.TypeDescriptor) string {
	return "DELETE FROM " + a.Table(d)
}
