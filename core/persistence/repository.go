package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/asaidimu/go-crudsql/core"
	"github.com/asaidimu/go-crudsql/core/metrics"
	"github.com/asaidimu/go-crudsql/core/query"
	"github.com/asaidimu/go-crudsql/core/schema"
	"github.com/asaidimu/go-events"
	"go.uber.org/zap"
)

// RepositoryOptions configures a Repository.
type RepositoryOptions struct {
	// Model names the registered definition when T is schema.Document.
	Model schema.Named
	// Logger receives executed SQL at debug level and failures at error level.
	Logger *zap.Logger
	// Metrics records execution durations when set.
	Metrics *metrics.Metrics
	// EventBus is shared with other components; a private bus is created when nil.
	EventBus *events.TypedEventBus[PersistenceEvent]
}

// DefaultRepositoryOptions returns options with a no-op logger, no metrics
// and a private event bus.
func DefaultRepositoryOptions() *RepositoryOptions {
	return &RepositoryOptions{Logger: zap.NewNop()}
}

// Repository runs assembled commands for one mapped type through
// database/sql and materializes the results into T. T is a struct type, or
// schema.Document for declaratively defined types.
type Repository[T any] struct {
	db         *sql.DB
	tx         *sql.Tx
	assembler  *Assembler
	descriptor *schema.TypeDescriptor
	model      any
	logger     *zap.Logger
	metrics    *metrics.Metrics
	events     *emitter
}

var documentType = reflect.TypeOf(schema.Document(nil))

// NewRepository creates a Repository for T over db. Commands are generated by
// assembler, whose dialect must match the database behind db.
func NewRepository[T any](db *sql.DB, assembler *Assembler, options *RepositoryOptions) (*Repository[T], error) {
	if db == nil {
		return nil, &core.ArgumentNullError{Argument: "db"}
	}
	if assembler == nil {
		return nil, &core.ArgumentNullError{Argument: "assembler"}
	}
	if options == nil {
		options = DefaultRepositoryOptions()
	}
	em, err := newEmitter(options.EventBus)
	if err != nil {
		return nil, err
	}
	return newRepository[T](db, assembler, options.Model, options.Logger, options.Metrics, em)
}

func newRepository[T any](db *sql.DB, assembler *Assembler, named schema.Named, logger *zap.Logger, m *metrics.Metrics, em *emitter) (*Repository[T], error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var model any
	t := reflect.TypeFor[T]()
	switch {
	case t == documentType:
		if named == "" {
			return nil, core.NewArgumentError("model", "document repositories need the name of a registered definition")
		}
		model = named
	case t.Kind() == reflect.Struct:
		model = t
	default:
		return nil, core.NewArgumentError("T", "repositories map struct types or schema.Document, got %s", t)
	}

	d, err := assembler.Describe(model)
	if err != nil {
		return nil, err
	}

	return &Repository[T]{
		db:         db,
		assembler:  assembler,
		descriptor: d,
		model:      model,
		logger:     logger.With(zap.String("type", d.Name), zap.String("dialect", assembler.Dialect().Name())),
		metrics:    m,
		events:     em,
	}, nil
}

// Descriptor returns the type descriptor the repository works with.
func (r *Repository[T]) Descriptor() *schema.TypeDescriptor { return r.descriptor }

// runner returns the active transaction, or the connection pool outside one.
func (r *Repository[T]) runner() Executor {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *Repository[T]) table() string { return r.descriptor.Table.String() }

// target returns the form of entity the assembler accepts for writes that may
// store generated keys.
func (r *Repository[T]) target(entity *T) (any, error) {
	if entity == nil {
		return nil, &core.ArgumentNullError{Argument: "entity"}
	}
	if r.descriptor.IsDocument() {
		return r.record(*entity), nil
	}
	return entity, nil
}

func (r *Repository[T]) value(entity T) any {
	if r.descriptor.IsDocument() {
		return r.record(entity)
	}
	return entity
}

func (r *Repository[T]) record(entity T) schema.Record {
	return schema.Record{Type: r.model.(schema.Named), Document: any(entity).(schema.Document)}
}

// fetch runs a row-returning command and materializes the rows.
func (r *Repository[T]) fetch(ctx context.Context, op query.Operation, input any, build func() (query.Command, error)) ([]T, error) {
	return withEventEmission(r.events, op, r.table(), input, func() (items []T, cmd *query.Command, err error) {
		c, err := build()
		if err != nil {
			return nil, nil, err
		}
		cmd = &c
		defer r.metrics.ObserveExecution(time.Now(), string(op), &err)

		rows, err := queryRows(ctx, r.logger, r.runner(), c)
		if err != nil {
			return nil, cmd, err
		}
		defer rows.Close()
		items, err = readRows[T](r.logger, r.descriptor, rows)
		return items, cmd, err
	})
}

// affect runs a command that returns no rows and reports the rows affected.
func (r *Repository[T]) affect(ctx context.Context, op query.Operation, input any, build func() (query.Command, error)) (int64, error) {
	return withEventEmission(r.events, op, r.table(), input, func() (n int64, cmd *query.Command, err error) {
		c, err := build()
		if err != nil {
			return 0, nil, err
		}
		cmd = &c
		defer r.metrics.ObserveExecution(time.Now(), string(op), &err)

		res, err := exec(ctx, r.logger, r.runner(), c)
		if err != nil {
			return 0, cmd, err
		}
		n, err = res.RowsAffected()
		if err != nil {
			return 0, cmd, fmt.Errorf("failed to read rows affected: %w", err)
		}
		return n, cmd, nil
	})
}

// Count returns the number of rows matching criteria; nil counts every row.
func (r *Repository[T]) Count(ctx context.Context, criteria query.Criteria) (int64, error) {
	op := query.OpCount
	return withEventEmission(r.events, op, r.table(), criteria, func() (n int64, cmd *query.Command, err error) {
		c, err := r.assembler.Count(r.model, criteria)
		if err != nil {
			return 0, nil, err
		}
		cmd = &c
		defer r.metrics.ObserveExecution(time.Now(), string(op), &err)

		rows, err := queryRows(ctx, r.logger, r.runner(), c)
		if err != nil {
			return 0, cmd, err
		}
		defer rows.Close()
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return 0, cmd, fmt.Errorf("failed to read count: %w", err)
			}
			return 0, cmd, fmt.Errorf("count returned no rows")
		}
		if err := rows.Scan(&n); err != nil {
			return 0, cmd, fmt.Errorf("failed to scan count: %w", err)
		}
		return n, cmd, rows.Err()
	})
}

// Get returns the row identified by keys, or core.ErrNoRows.
func (r *Repository[T]) Get(ctx context.Context, keys ...any) (T, error) {
	items, err := r.fetch(ctx, query.OpFind, keys, func() (query.Command, error) {
		return r.assembler.Find(r.model, keys...)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return first(r.descriptor, items)
}

// GetAll returns every row, ordered by orderBy when it is set.
func (r *Repository[T]) GetAll(ctx context.Context, orderBy string) ([]T, error) {
	return r.fetch(ctx, query.OpGetRange, orderBy, func() (query.Command, error) {
		return r.assembler.GetAll(r.model, orderBy)
	})
}

// GetRange returns the rows matching criteria.
func (r *Repository[T]) GetRange(ctx context.Context, criteria query.Criteria, orderBy string) ([]T, error) {
	return r.fetch(ctx, query.OpGetRange, criteria, func() (query.Command, error) {
		return r.assembler.GetRange(r.model, criteria, orderBy)
	})
}

// GetPage returns one page of the rows matching criteria. A page past the
// end yields an empty slice.
func (r *Repository[T]) GetPage(ctx context.Context, criteria query.Criteria, orderBy string, page query.Page) ([]T, error) {
	return r.fetch(ctx, query.OpGetPage, page, func() (query.Command, error) {
		return r.assembler.GetPage(r.model, criteria, orderBy, page)
	})
}

// GetTop returns the first count rows matching criteria.
func (r *Repository[T]) GetTop(ctx context.Context, count int64, orderBy string, criteria query.Criteria) ([]T, error) {
	return r.fetch(ctx, query.OpGetTop, count, func() (query.Command, error) {
		return r.assembler.GetTop(r.model, count, orderBy, criteria)
	})
}

// Query runs a structured query, paged when dsl carries a page.
func (r *Repository[T]) Query(ctx context.Context, dsl query.QueryDSL) ([]T, error) {
	op := query.OpGetRange
	if dsl.Page != nil {
		op = query.OpGetPage
	}
	return r.fetch(ctx, op, dsl, func() (query.Command, error) {
		return r.assembler.Select(r.model, dsl)
	})
}

// GetFirst returns the first row matching criteria, or core.ErrNoRows.
func (r *Repository[T]) GetFirst(ctx context.Context, criteria query.Criteria, orderBy string) (T, error) {
	items, err := r.GetTop(ctx, 1, orderBy, criteria)
	if err != nil {
		var zero T
		return zero, err
	}
	return first(r.descriptor, items)
}

// GetFirstOrDefault is GetFirst returning fallback when nothing matches.
func (r *Repository[T]) GetFirstOrDefault(ctx context.Context, criteria query.Criteria, orderBy string, fallback T) (T, error) {
	item, err := r.GetFirst(ctx, criteria, orderBy)
	if errors.Is(err, core.ErrNoRows) {
		return fallback, nil
	}
	return item, err
}

// GetSingle returns the only row matching criteria. It fails with
// core.ErrNoRows when nothing matches and core.ErrNotSingular when more than
// one row does.
func (r *Repository[T]) GetSingle(ctx context.Context, criteria query.Criteria) (T, error) {
	var zero T
	items, err := r.GetTop(ctx, 2, "", criteria)
	if err != nil {
		return zero, err
	}
	if len(items) > 1 {
		return zero, fmt.Errorf("%s: %w", r.descriptor.Name, core.ErrNotSingular)
	}
	return first(r.descriptor, items)
}

// GetSingleOrDefault is GetSingle returning fallback when nothing matches.
// More than one match is still an error.
func (r *Repository[T]) GetSingleOrDefault(ctx context.Context, criteria query.Criteria, fallback T) (T, error) {
	item, err := r.GetSingle(ctx, criteria)
	if errors.Is(err, core.ErrNoRows) {
		return fallback, nil
	}
	return item, err
}

func first[T any](d *schema.TypeDescriptor, items []T) (T, error) {
	if len(items) == 0 {
		var zero T
		return zero, fmt.Errorf("%s: %w", d.Name, core.ErrNoRows)
	}
	return items[0], nil
}

// Insert inserts entity. An assigned UUID key left at its zero value is
// generated and stored in entity.
func (r *Repository[T]) Insert(ctx context.Context, entity *T) (int64, error) {
	return r.affect(ctx, query.OpInsert, entity, func() (query.Command, error) {
		e, err := r.target(entity)
		if err != nil {
			return query.Command{}, err
		}
		return r.assembler.Insert(e)
	})
}

// InsertAndReturnKey inserts entity, stores the generated key in it and
// returns the key.
func (r *Repository[T]) InsertAndReturnKey(ctx context.Context, entity *T) (any, error) {
	op := query.OpInsertReturningKey
	return withEventEmission(r.events, op, r.table(), entity, func() (key any, cmd *query.Command, err error) {
		e, err := r.target(entity)
		if err != nil {
			return nil, nil, err
		}
		c, err := r.assembler.InsertAndReturnKey(e)
		if err != nil {
			return nil, nil, err
		}
		cmd = &c
		defer r.metrics.ObserveExecution(time.Now(), string(op), &err)

		keyMember := r.descriptor.Keys[0]
		if c.KeyFromResult {
			res, err := exec(ctx, r.logger, r.runner(), c)
			if err != nil {
				return nil, cmd, err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return nil, cmd, fmt.Errorf("failed to read generated key: %w", err)
			}
			key = id
		} else {
			key, err = r.scanKey(ctx, c, keyMember)
			if err != nil {
				return nil, cmd, err
			}
		}

		if err := r.descriptor.SetValue(e, keyMember, key); err != nil {
			return key, cmd, fmt.Errorf("failed to store generated key: %w", err)
		}
		return key, cmd, nil
	})
}

func (r *Repository[T]) scanKey(ctx context.Context, c query.Command, m *schema.MemberDescriptor) (any, error) {
	rows, err := queryRows(ctx, r.logger, r.runner(), c)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("failed to read generated key: %w", err)
		}
		return nil, fmt.Errorf("insert returned no generated key")
	}
	var raw any
	if err := rows.Scan(&raw); err != nil {
		return nil, fmt.Errorf("failed to scan generated key: %w", err)
	}
	return convert(m.Kind, raw), rows.Err()
}

// BulkInsert inserts entities with as few statements as the dialect's limits
// allow. Several statements run in one transaction unless the repository is
// already inside one.
func (r *Repository[T]) BulkInsert(ctx context.Context, entities []T) (int64, error) {
	op := query.OpBulkInsert
	return withEventEmission(r.events, op, r.table(), len(entities), func() (total int64, cmd *query.Command, err error) {
		var cmds []query.Command
		if r.descriptor.IsDocument() {
			records := make([]schema.Record, len(entities))
			for i, e := range entities {
				records[i] = r.record(e)
			}
			cmds, err = r.assembler.BulkInsert(records)
		} else {
			cmds, err = r.assembler.BulkInsert(entities)
		}
		if err != nil {
			return 0, nil, err
		}
		if len(cmds) == 0 {
			return 0, nil, nil
		}
		defer r.metrics.ObserveExecution(time.Now(), string(op), &err)

		run := func(runner Executor) error {
			for i := range cmds {
				cmd = &cmds[i]
				res, err := exec(ctx, r.logger, runner, cmds[i])
				if err != nil {
					return err
				}
				n, err := res.RowsAffected()
				if err != nil {
					return fmt.Errorf("failed to read rows affected: %w", err)
				}
				total += n
			}
			return nil
		}

		if r.tx != nil || len(cmds) == 1 {
			err = run(r.runner())
		} else {
			err = r.inTx(ctx, func(tx *sql.Tx) error { return run(tx) })
		}
		if err != nil {
			return 0, cmd, err
		}
		return total, cmd, nil
	})
}

// Update writes entity's updatable members to the row with its key.
func (r *Repository[T]) Update(ctx context.Context, entity T) (int64, error) {
	return r.affect(ctx, query.OpUpdate, entity, func() (query.Command, error) {
		return r.assembler.Update(r.value(entity))
	})
}

// Delete deletes the row with entity's key.
func (r *Repository[T]) Delete(ctx context.Context, entity T) (int64, error) {
	return r.affect(ctx, query.OpDelete, entity, func() (query.Command, error) {
		return r.assembler.Delete(r.value(entity))
	})
}

// DeleteByKey deletes the row identified by keys.
func (r *Repository[T]) DeleteByKey(ctx context.Context, keys ...any) (int64, error) {
	return r.affect(ctx, query.OpDelete, keys, func() (query.Command, error) {
		return r.assembler.DeleteByKey(r.model, keys...)
	})
}

// DeleteRange deletes the rows matching criteria. Missing or always-true
// criteria are rejected before anything runs.
func (r *Repository[T]) DeleteRange(ctx context.Context, criteria query.Criteria) (int64, error) {
	return r.affect(ctx, query.OpDeleteRange, criteria, func() (query.Command, error) {
		return r.assembler.DeleteRange(r.model, criteria)
	})
}

// DeleteAll deletes every row.
func (r *Repository[T]) DeleteAll(ctx context.Context) (int64, error) {
	return r.affect(ctx, query.OpDeleteAll, nil, func() (query.Command, error) {
		return r.assembler.DeleteAll(r.model)
	})
}

// RegisterSubscription registers a callback for a repository event and
// returns an id for UnregisterSubscription.
func (r *Repository[T]) RegisterSubscription(options RegisterSubscriptionOptions) string {
	return r.events.register(options)
}

// UnregisterSubscription removes a subscription by its id.
func (r *Repository[T]) UnregisterSubscription(id string) {
	r.events.unregister(id)
}

// Subscriptions returns the active subscriptions.
func (r *Repository[T]) Subscriptions() []SubscriptionInfo {
	return r.events.list()
}
