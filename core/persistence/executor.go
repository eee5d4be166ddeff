package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/asaidimu/go-crudsql/core/query"
	"go.uber.org/zap"
)

// Executor runs generated commands. *sql.DB, *sql.Tx and *sql.Conn satisfy
// it, as does a sqlmock connection in tests.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

var (
	_ Executor = (*sql.DB)(nil)
	_ Executor = (*sql.Tx)(nil)
	_ Executor = (*sql.Conn)(nil)
)

// exec runs a command that returns no rows and reports the rows affected.
func exec(ctx context.Context, logger *zap.Logger, runner Executor, cmd query.Command) (sql.Result, error) {
	logger.Debug("Executing SQL", zap.String("operation", string(cmd.Operation)),
		zap.String("sql", cmd.SQL), zap.Int("params", len(cmd.Params)))

	result, err := runner.ExecContext(ctx, cmd.SQL, cmd.Args()...)
	if err != nil {
		logger.Error("Failed to execute command", zap.Error(err),
			zap.String("operation", string(cmd.Operation)), zap.String("sql", cmd.SQL))
		return nil, fmt.Errorf("failed to execute %s: %w", cmd.Operation, err)
	}
	return result, nil
}

// queryRows runs a command that returns rows. The caller closes them.
func queryRows(ctx context.Context, logger *zap.Logger, runner Executor, cmd query.Command) (*sql.Rows, error) {
	logger.Debug("Executing SQL", zap.String("operation", string(cmd.Operation)),
		zap.String("sql", cmd.SQL), zap.Int("params", len(cmd.Params)))

	rows, err := runner.QueryContext(ctx, cmd.SQL, cmd.Args()...)
	if err != nil {
		logger.Error("Failed to execute query", zap.Error(err),
			zap.String("operation", string(cmd.Operation)), zap.String("sql", cmd.SQL))
		return nil, fmt.Errorf("failed to execute %s: %w", cmd.Operation, err)
	}
	return rows, nil
}
