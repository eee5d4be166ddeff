package persistence

import (
	"database/sql"

	"github.com/asaidimu/go-crudsql/core/metrics"
	"github.com/asaidimu/go-crudsql/core/query"
	"github.com/asaidimu/go-crudsql/core/schema"
	"github.com/asaidimu/go-events"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// FXModule provides the descriptor cache, an Assembler for the injected
// query.Dialect and a Persistence facade over the injected *sql.DB. Injected
// definitions are registered with the cache.
//
// Usage:
//
//	app := fx.New(
//	    persistence.FXModule,
//	    fx.Provide(func() query.Dialect { return postgres.NewPostgresQuery() }),
//	    fx.Invoke(func(a *persistence.Assembler) { ... }),
//	)
var FXModule = fx.Module("persistence",
	fx.Provide(NewCacheWithDI, NewAssemblerWithDI, NewPersistenceWithDI),
	fx.Invoke(RegisterDefinitions),
)

// CacheParams groups the optional dependencies of the descriptor cache.
type CacheParams struct {
	fx.In

	Options *schema.CacheOptions `optional:"true"`
	Logger  *zap.Logger          `optional:"true"`
	Metrics *metrics.Metrics     `optional:"true"`
}

// AssemblerParams groups the dependencies needed to create an Assembler.
type AssemblerParams struct {
	fx.In

	Cache   *schema.Cache
	Dialect query.Dialect
	Logger  *zap.Logger      `optional:"true"`
	Metrics *metrics.Metrics `optional:"true"`
}

// PersistenceParams groups the dependencies of the Persistence facade.
type PersistenceParams struct {
	fx.In

	DB        *sql.DB
	Assembler *Assembler
	Logger    *zap.Logger                             `optional:"true"`
	Metrics   *metrics.Metrics                        `optional:"true"`
	EventBus  *events.TypedEventBus[PersistenceEvent] `optional:"true"`
}

// DefinitionParams groups declarative definitions to register on start.
type DefinitionParams struct {
	fx.In

	Cache       *schema.Cache
	Definitions []*schema.Definition `optional:"true"`
}

// NewCacheWithDI creates the descriptor cache. Injected options are used as
// given; otherwise DefaultCacheOptions applies. An injected logger or metrics
// fills the matching option when it is unset.
func NewCacheWithDI(params CacheParams) *schema.Cache {
	opts := schema.DefaultCacheOptions()
	if params.Options != nil {
		opts = *params.Options
	}
	if opts.Logger == nil {
		opts.Logger = params.Logger
	}
	if opts.Metrics == nil {
		opts.Metrics = params.Metrics
	}
	return schema.NewCache(opts)
}

// NewAssemblerWithDI creates an Assembler for the injected dialect.
func NewAssemblerWithDI(params AssemblerParams) (*Assembler, error) {
	return NewAssembler(params.Cache, params.Dialect,
		WithLogger(params.Logger), WithMetrics(params.Metrics))
}

// NewPersistenceWithDI creates the facade shared by the application.
func NewPersistenceWithDI(params PersistenceParams) (*Persistence, error) {
	return NewPersistence(params.DB, params.Assembler, &RepositoryOptions{
		Logger:   params.Logger,
		Metrics:  params.Metrics,
		EventBus: params.EventBus,
	})
}

// RegisterDefinitions registers the injected definitions with the cache.
func RegisterDefinitions(params DefinitionParams) error {
	for _, def := range params.Definitions {
		if err := params.Cache.Register(def); err != nil {
			return err
		}
	}
	return nil
}
