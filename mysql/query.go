// Package mysql renders MySQL statements for the command assembler.
//
// MySQL has no RETURNING clause: InsertReturningKey emits a plain insert and
// flags the command so the generated key is read from the driver result
// (LAST_INSERT_ID()).
package mysql

import (
	"strconv"
	"strings"

	"github.com/asaidimu/go-crudsql/core/query"
	"github.com/asaidimu/go-crudsql/core/schema"
)

// Name is the dialect identifier used in descriptor cache keys and metrics.
const Name = "mysql"

// MaxParams is the prepared statement placeholder limit.
const MaxParams = 65535

// MySQLQuery is the MySQL statement builder.
type MySQLQuery struct {
	query.ANSI
}

var _ query.Dialect = (*MySQLQuery)(nil)

// NewMySQLQuery creates the MySQL dialect.
func NewMySQLQuery() *MySQLQuery {
	return &MySQLQuery{ANSI: query.ANSI{
		DialectName: Name,
		QuoteIdent:  quoteIdentifier,
		Marker:      func(int) string { return "?" },
		ParamLimit:  MaxParams,
	}}
}

func quoteIdentifier(s string) string {
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// KeyFromResult returns true: the generated key comes from LastInsertId.
func (m *MySQLQuery) KeyFromResult() bool { return true }

// GetPage renders LIMIT skip, take paging.
func (m *MySQLQuery) GetPage(d *schema.TypeDescriptor, where string, order []query.OrderItem, skip, take int64) string {
	return m.GetRange(d, where, m.PageOrder(d, order)) +
		" LIMIT " + strconv.FormatInt(skip, 10) + ", " + strconv.FormatInt(take, 10)
}

// InsertReturningKey renders a plain insert; see KeyFromResult.
func (m *MySQLQuery) InsertReturningKey(d *schema.TypeDescriptor, b *query.Binder, values []any) string {
	return m.Insert(d, b, values)
}
