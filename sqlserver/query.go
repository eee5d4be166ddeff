// Package sqlserver renders SQL Server statements for the command assembler.
//
// Identifiers are bracket-quoted and parameters are named @p1..@pN, matching
// the names go-mssqldb assigns to positional arguments. Paging uses a
// ROW_NUMBER() window so it works on every supported server version, and
// generated keys are read back with SCOPE_IDENTITY() in the same batch.
package sqlserver

import (
	"strconv"
	"strings"

	"github.com/asaidimu/go-crudsql/core/query"
	"github.com/asaidimu/go-crudsql/core/schema"
)

// Name is the dialect identifier used in descriptor cache keys and metrics.
const Name = "sqlserver"

const (
	// MaxParams is the 2100 RPC parameter limit of a single request less the
	// two sp_executesql uses for the statement text and parameter list.
	MaxParams = 2098
	// MaxRows is the row limit of a table value constructor.
	MaxRows = 1000
)

const (
	rowNumberColumn = "__row_number"
	pageAlias       = "__page"
)

// SQLServerQuery is the SQL Server statement builder.
type SQLServerQuery struct {
	query.ANSI
}

var _ query.Dialect = (*SQLServerQuery)(nil)

// NewSQLServerQuery creates the SQL Server dialect.
func NewSQLServerQuery() *SQLServerQuery {
	return &SQLServerQuery{ANSI: query.ANSI{
		DialectName: Name,
		QuoteIdent:  quoteIdentifier,
		Marker:      func(n int) string { return "@p" + strconv.Itoa(n) },
		ParamLimit:  MaxParams,
	}}
}

func quoteIdentifier(s string) string {
	return `[` + strings.ReplaceAll(s, `]`, `]]`) + `]`
}

// MaxRows returns the VALUES row limit.
func (s *SQLServerQuery) MaxRows() int { return MaxRows }

// GetPage numbers the filtered rows with ROW_NUMBER() and keeps rows
// skip+1 through skip+take, in window order.
func (s *SQLServerQuery) GetPage(d *schema.TypeDescriptor, where string, order []query.OrderItem, skip, take int64) string {
	cols := s.SelectList(d)
	rowNumber := s.Quote(rowNumberColumn)

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(cols)
	sb.WriteString(" FROM (SELECT ")
	sb.WriteString(cols)
	sb.WriteString(", ROW_NUMBER() OVER (ORDER BY ")
	sb.WriteString(s.OrderList(s.PageOrder(d, order)))
	sb.WriteString(") AS ")
	sb.WriteString(rowNumber)
	sb.WriteString(" FROM ")
	sb.WriteString(s.Table(d))
	sb.WriteString(s.WhereClause(where))
	sb.WriteString(") AS ")
	sb.WriteString(s.Quote(pageAlias))
	sb.WriteString(" WHERE ")
	sb.WriteString(rowNumber)
	sb.WriteString(" BETWEEN ")
	sb.WriteString(strconv.FormatInt(skip+1, 10))
	sb.WriteString(" AND ")
	sb.WriteString(strconv.FormatInt(skip+take, 10))
	sb.WriteString(" ORDER BY ")
	sb.WriteString(rowNumber)
	return sb.String()
}

// GetTop renders SELECT TOP (count).
func (s *SQLServerQuery) GetTop(d *schema.TypeDescriptor, count int64, order []query.OrderItem, where string) string {
	return "SELECT TOP (" + strconv.FormatInt(count, 10) + ") " + s.SelectList(d) +
		" FROM " + s.Table(d) + s.WhereClause(where) + s.OrderClause(order)
}

// InsertReturningKey appends a SCOPE_IDENTITY() select to the insert batch.
// The key comes back as a single BIGINT column named after the key column.
func (s *SQLServerQuery) InsertReturningKey(d *schema.TypeDescriptor, b *query.Binder, values []any) string {
	return s.Insert(d, b, values) + "; SELECT CAST(SCOPE_IDENTITY() AS BIGINT) AS " + s.Quote(d.Keys[0].Column)
}
