package persistence

import (
	"testing"

	"github.com/asaidimu/go-crudsql/core/metrics"
	"github.com/asaidimu/go-crudsql/core/query"
	"github.com/asaidimu/go-crudsql/core/schema"
	"github.com/asaidimu/go-crudsql/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zaptest"
)

func TestFXModuleProvidesAssembler(t *testing.T) {
	var (
		assembler *Assembler
		cache     *schema.Cache
	)
	app := fxtest.New(t,
		FXModule,
		fx.Provide(func() query.Dialect { return postgres.NewPostgresQuery() }),
		fx.Supply([]*schema.Definition{invoiceDefinition()}),
		fx.Supply(zaptest.NewLogger(t)),
		fx.Populate(&assembler, &cache),
	)
	app.RequireStart()
	defer app.RequireStop()

	require.NotNil(t, assembler)
	assert.Equal(t, postgres.Name, assembler.Dialect().Name())

	cmd, err := assembler.Count(schema.Named("Invoice"), nil)
	require.NoError(t, err)
	assert.Equal(t, `SELECT COUNT(*) FROM "invoices"`, cmd.SQL)

	_, err = cache.DescribeNamed("invoice", postgres.Name)
	assert.NoError(t, err)
}

func TestFXModuleUsesInjectedOptions(t *testing.T) {
	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)

	var assembler *Assembler
	app := fxtest.New(t,
		FXModule,
		fx.Provide(func() query.Dialect { return postgres.NewPostgresQuery() }),
		fx.Supply(&schema.CacheOptions{TablePrefix: "app_"}),
		fx.Supply(m),
		fx.Populate(&assembler),
	)
	app.RequireStart()
	defer app.RequireStop()

	cmd, err := assembler.DeleteAll(Customer{})
	require.NoError(t, err)
	assert.Equal(t, `DELETE FROM "app_customers"`, cmd.SQL)
}

func TestFXModuleRejectsInvalidDefinitions(t *testing.T) {
	app := fx.New(
		FXModule,
		fx.Provide(func() query.Dialect { return postgres.NewPostgresQuery() }),
		fx.Supply([]*schema.Definition{{Name: "Empty"}}),
		fx.NopLogger,
	)
	assert.Error(t, app.Err())
}
