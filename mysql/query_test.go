package mysql

import (
	"reflect"
	"testing"

	"github.com/asaidimu/go-crudsql/core/query"
	"github.com/asaidimu/go-crudsql/core/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Product struct {
	ID    uint32
	Title string
	Price float64
}

func (Product) TableName() string { return "products" }

func describe(t *testing.T, v any) *schema.TypeDescriptor {
	t.Helper()
	d, err := schema.NewCache(schema.DefaultCacheOptions()).Describe(reflect.TypeOf(v), Name)
	require.NoError(t, err)
	return d
}

func TestIdentity(t *testing.T) {
	m := NewMySQLQuery()
	assert.Equal(t, "`Title`", m.Quote("Title"))
	assert.Equal(t, "`a``b`", m.Quote("a`b"))
	assert.Equal(t, "?", m.Placeholder(1))
	assert.Equal(t, "?", m.Placeholder(9))
	assert.Equal(t, 65535, m.MaxParams())
	assert.True(t, m.KeyFromResult())
}

func TestGetPage(t *testing.T) {
	m := NewMySQLQuery()
	d := describe(t, Product{})

	assert.Equal(t,
		"SELECT `ID`, `Title`, `Price` FROM `products` ORDER BY `ID` ASC LIMIT 4, 2",
		m.GetPage(d, "", nil, 4, 2))
	assert.Equal(t,
		"SELECT `ID`, `Title`, `Price` FROM `products` WHERE `Price` > ? ORDER BY `Price` DESC LIMIT 0, 10",
		m.GetPage(d, "`Price` > ?", []query.OrderItem{{Member: d.Member("price"), Desc: true}}, 0, 10))
}

func TestInsertReturningKeyIsPlainInsert(t *testing.T) {
	m := NewMySQLQuery()
	d := describe(t, Product{})
	require.Equal(t, schema.KeySingleAutoGenerated, d.Strategy)

	b := query.NewBinder(m)
	assert.Equal(t,
		"INSERT INTO `products` (`Title`, `Price`) VALUES (?, ?)",
		m.InsertReturningKey(d, b, []any{"lamp", 12.5}))
	assert.Equal(t, 2, b.Len())
}
