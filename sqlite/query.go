// Package sqlite renders SQLite statements for the command assembler.
// Identifiers are double-quoted, parameters are positional "?" markers, paging
// uses LIMIT/OFFSET and generated keys come back through RETURNING (SQLite
// 3.35.0+).
package sqlite

import (
	"strings"

	"github.com/asaidimu/go-crudsql/core/query"
)

// Name is the dialect identifier used in descriptor cache keys and metrics.
const Name = "sqlite"

// MaxParams is SQLITE_MAX_VARIABLE_NUMBER for SQLite 3.32.0 and later.
const MaxParams = 32766

// SqliteQuery is the SQLite statement builder.
type SqliteQuery struct {
	query.ANSI
}

var _ query.Dialect = (*SqliteQuery)(nil)

// NewSqliteQuery creates the SQLite dialect.
func NewSqliteQuery() *SqliteQuery {
	return &SqliteQuery{ANSI: query.ANSI{
		DialectName: Name,
		QuoteIdent:  quoteIdentifier,
		Marker:      func(int) string { return "?" },
		ParamLimit:  MaxParams,
	}}
}

// quoteIdentifier properly quotes an identifier for SQLite.
func quoteIdentifier(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
