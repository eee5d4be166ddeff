package persistence

import (
	"testing"

	"github.com/asaidimu/go-crudsql/core/query"
	"github.com/asaidimu/go-crudsql/core/schema"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type Customer struct {
	ID     int64
	Name   string
	Email  *string `db:"email"`
	Active bool
}

func (Customer) TableName() string { return "customers" }

const customerColumns = `"ID", "Name", "email", "Active"`

type Ticket struct {
	ID    uuid.UUID
	Title string
}

func (Ticket) TableName() string { return "tickets" }

type Membership struct {
	GroupID int64 `db:"group_id,key"`
	UserID  int64 `db:"user_id,key"`
	Role    string
}

func (Membership) TableName() string { return "memberships" }

type LogLine struct {
	Message string
	Level   int
}

func (LogLine) TableName() string { return "log_lines" }

func invoiceDefinition() *schema.Definition {
	return &schema.Definition{
		Name:  "Invoice",
		Table: "invoices",
		Fields: []*schema.FieldDefinition{
			{Name: "id", Type: schema.FieldTypeInteger, Key: true},
			{Name: "number", Type: schema.FieldTypeString},
			{Name: "total", Type: schema.FieldTypeNumber},
		},
	}
}

func newAssembler(t *testing.T, dialect query.Dialect, opts ...AssemblerOption) *Assembler {
	t.Helper()
	cache := schema.NewCache(schema.DefaultCacheOptions())
	require.NoError(t, cache.Register(invoiceDefinition()))
	a, err := NewAssembler(cache, dialect, append([]AssemblerOption{WithLogger(zaptest.NewLogger(t))}, opts...)...)
	require.NoError(t, err)
	return a
}

func paramValues(cmd query.Command) []any {
	var values []any
	for _, p := range cmd.Params {
		values = append(values, p.Value)
	}
	return values
}

func ptr[T any](v T) *T { return &v }
