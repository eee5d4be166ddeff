package postgres

import (
	"reflect"
	"testing"

	"github.com/asaidimu/go-crudsql/core/query"
	"github.com/asaidimu/go-crudsql/core/schema"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Account struct {
	ID      int64
	Owner   string
	Balance float64 `db:"balance,nullable"`
}

func (Account) TableSchema() string { return "billing" }

type Session struct {
	Token  uuid.UUID `db:"token,key"`
	UserID int64     `db:"user_id"`
}

func describe(t *testing.T, v any) *schema.TypeDescriptor {
	t.Helper()
	d, err := schema.NewCache(schema.DefaultCacheOptions()).Describe(reflect.TypeOf(v), Name)
	require.NoError(t, err)
	return d
}

func TestIdentity(t *testing.T) {
	p := NewPostgresQuery()
	assert.Equal(t, Name, p.Name())
	assert.Equal(t, `"Owner"`, p.Quote("Owner"))
	assert.Equal(t, `"a""b"`, p.Quote(`a"b`))
	assert.Equal(t, "$1", p.Placeholder(1))
	assert.Equal(t, "$40", p.Placeholder(40))
	assert.Equal(t, 65535, p.MaxParams())
	assert.Zero(t, p.MaxRows())
	assert.False(t, p.KeyFromResult())
}

func TestStatements(t *testing.T) {
	p := NewPostgresQuery()
	d := describe(t, Account{})
	require.Equal(t, "Accounts", d.Table.Name)
	const cols = `"ID", "Owner", "balance"`

	assert.Equal(t, `SELECT COUNT(*) FROM "billing"."Accounts" WHERE "Owner" = $1`, p.Count(d, `"Owner" = $1`))
	assert.Equal(t,
		`SELECT `+cols+` FROM "billing"."Accounts" ORDER BY "ID" ASC LIMIT 25 OFFSET 50`,
		p.GetPage(d, "", nil, 50, 25))
	assert.Equal(t,
		`SELECT `+cols+` FROM "billing"."Accounts" ORDER BY "balance" DESC LIMIT 3`,
		p.GetTop(d, 3, []query.OrderItem{{Member: d.Member("Balance"), Desc: true}}, ""))
	assert.Equal(t,
		`INSERT INTO "billing"."Accounts" ("Owner", "balance") VALUES ($1, $2) RETURNING "ID"`,
		p.InsertReturningKey(d, query.NewBinder(p), []any{"ada", 10.0}))
	assert.Equal(t,
		`UPDATE "billing"."Accounts" SET "Owner" = $1, "balance" = $2 WHERE "ID" = $3`,
		p.Update(d, query.NewBinder(p), []any{"ada", nil}, []any{int64(4)}))
	assert.Equal(t, `DELETE FROM "billing"."Accounts"`, p.DeleteAll(d))
}

func TestAssignedUUIDKeyIsInserted(t *testing.T) {
	p := NewPostgresQuery()
	d := describe(t, Session{})
	require.Equal(t, schema.KeySingleAssigned, d.Strategy)

	token := uuid.New()
	b := query.NewBinder(p)
	assert.Equal(t,
		`INSERT INTO "Sessions" ("token", "user_id") VALUES ($1, $2)`,
		p.Insert(d, b, []any{token, int64(1)}))
	assert.Equal(t, token, b.Params()[0].Value)
}
