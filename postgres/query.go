// Package postgres renders PostgreSQL statements for the command assembler.
package postgres

import (
	"strconv"

	"github.com/asaidimu/go-crudsql/core/query"
	"github.com/lib/pq"
)

// Name is the dialect identifier used in descriptor cache keys and metrics.
const Name = "postgres"

// MaxParams is the wire protocol's limit on bind parameters per statement.
const MaxParams = 65535

// PostgresQuery is the PostgreSQL statement builder: double-quoted
// identifiers, $N placeholders, LIMIT/OFFSET paging and RETURNING for keys.
type PostgresQuery struct {
	query.ANSI
}

var _ query.Dialect = (*PostgresQuery)(nil)

// NewPostgresQuery creates the PostgreSQL dialect.
func NewPostgresQuery() *PostgresQuery {
	return &PostgresQuery{ANSI: query.ANSI{
		DialectName: Name,
		QuoteIdent:  pq.QuoteIdentifier,
		Marker:      func(n int) string { return "$" + strconv.Itoa(n) },
		ParamLimit:  MaxParams,
	}}
}
