package drivers

import (
	"context"
	"database/sql"

	"github.com/asaidimu/go-crudsql/core/query"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// FXModule provides a *sql.DB and its query.Dialect from a Config and closes
// the pool when the application stops.
//
// Usage:
//
//	app := fx.New(
//	    drivers.FXModule,
//	    persistence.FXModule,
//	    fx.Supply(drivers.Config{Dialect: "sqlite", DSN: "file:app.db"}),
//	    fx.Invoke(func(a *persistence.Assembler) { ... }),
//	)
var FXModule = fx.Module("drivers",
	fx.Provide(NewConnectionWithDI),
	fx.Invoke(RegisterConnectionLifecycle),
)

// ConnectionParams groups the dependencies needed to open a connection.
type ConnectionParams struct {
	fx.In

	Config Config
	Logger *zap.Logger `optional:"true"`
}

// ConnectionResult exposes the pool and the dialect it speaks.
type ConnectionResult struct {
	fx.Out

	DB      *sql.DB
	Dialect query.Dialect
}

// ConnectionLifecycleParams groups the dependencies needed to close the pool.
type ConnectionLifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	DB        *sql.DB
	Config    Config
	Logger    *zap.Logger `optional:"true"`
}

// NewConnectionWithDI opens the connection described by the injected Config.
func NewConnectionWithDI(params ConnectionParams) (ConnectionResult, error) {
	db, dialect, err := Open(context.Background(), params.Config)
	if err != nil {
		return ConnectionResult{}, err
	}
	return ConnectionResult{DB: db, Dialect: dialect}, nil
}

// RegisterConnectionLifecycle closes the pool on application stop.
func RegisterConnectionLifecycle(params ConnectionLifecycleParams) {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("dialect", params.Config.Dialect))

	params.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("Database connection initialized")
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing database connection")
			return params.DB.Close()
		},
	})
}
