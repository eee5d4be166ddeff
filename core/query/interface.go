// Package query turns type descriptors and caller criteria into
// dialect-specific SQL. It defines the Dialect contract every database
// implements, the Command produced for each operation, and the pieces that
// feed a dialect: filter translation, ORDER BY validation and paging.
package query

import (
	"github.com/asaidimu/go-crudsql/core/schema"
)

// Operation identifies the statement shape a Command was built for.
type Operation string

const (
	OpCount              Operation = "count"
	OpFind               Operation = "find"
	OpGetRange           Operation = "get_range"
	OpGetPage            Operation = "get_page"
	OpGetTop             Operation = "get_top"
	OpInsert             Operation = "insert"
	OpInsertReturningKey Operation = "insert_returning_key"
	OpBulkInsert         Operation = "bulk_insert"
	OpUpdate             Operation = "update"
	OpDelete             Operation = "delete"
	OpDeleteRange        Operation = "delete_range"
	OpDeleteAll          Operation = "delete_all"
)

// Param is one bound statement parameter.
type Param struct {
	Name  string // p1..pN in bind order
	Value any
}

// Command is a generated statement ready for an executor.
type Command struct {
	SQL       string
	Params    []Param
	Operation Operation
	Dialect   string
	// KeyFromResult is set when the generated key of an insert must be read
	// from the driver's LastInsertId instead of a returned row.
	KeyFromResult bool
}

// Args returns the parameter values in bind order, ready for
// database/sql's variadic args.
func (c Command) Args() []any {
	args := make([]any, len(c.Params))
	for i, p := range c.Params {
		args[i] = p.Value
	}
	return args
}

// Dialect generates SQL for one relational database. where arguments are
// rendered conditions without the WHERE keyword; an empty string means no
// condition. Implementations bind values through the Binder they are given
// so placeholders are numbered after any criteria already bound.
type Dialect interface {
	// Name returns the dialect identifier, e.g. "postgres".
	Name() string
	// Quote quotes a single identifier.
	Quote(ident string) string
	// Placeholder returns the parameter marker for the n-th (1-based) parameter.
	Placeholder(n int) string
	// MaxParams returns the maximum number of parameters in one statement.
	MaxParams() int
	// MaxRows returns the maximum number of rows in one VALUES list, or 0 for no limit.
	MaxRows() int
	// KeyFromResult reports whether generated keys come from LastInsertId.
	KeyFromResult() bool

	Count(d *schema.TypeDescriptor, where string) string
	Find(d *schema.TypeDescriptor, b *Binder, keys []any) string
	GetRange(d *schema.TypeDescriptor, where string, order []OrderItem) string
	GetPage(d *schema.TypeDescriptor, where string, order []OrderItem, skip, take int64) string
	GetTop(d *schema.TypeDescriptor, count int64, order []OrderItem, where string) string
	Insert(d *schema.TypeDescriptor, b *Binder, values []any) string
	InsertReturningKey(d *schema.TypeDescriptor, b *Binder, values []any) string
	BulkInsert(d *schema.TypeDescriptor, b *Binder, rows [][]any) string
	Update(d *schema.TypeDescriptor, b *Binder, values []any, keys []any) string
	Delete(d *schema.TypeDescriptor, b *Binder, keys []any) string
	DeleteRange(d *schema.TypeDescriptor, where string) string
	DeleteAll(d *schema.TypeDescriptor) string
}
