package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/asaidimu/go-crudsql/core"
	"github.com/asaidimu/go-crudsql/core/metrics"
	"github.com/asaidimu/go-crudsql/core/schema"
	"go.uber.org/zap"
)

// Persistence binds one connection pool and one Assembler to a shared event
// emitter. Every repository it hands out publishes to the same bus, so a
// single subscription observes all mapped types.
type Persistence struct {
	db        *sql.DB
	tx        *sql.Tx
	assembler *Assembler
	logger    *zap.Logger
	metrics   *metrics.Metrics
	events    *emitter
}

// NewPersistence creates the facade. options.Model is ignored.
func NewPersistence(db *sql.DB, assembler *Assembler, options *RepositoryOptions) (*Persistence, error) {
	if db == nil {
		return nil, &core.ArgumentNullError{Argument: "db"}
	}
	if assembler == nil {
		return nil, &core.ArgumentNullError{Argument: "assembler"}
	}
	if options == nil {
		options = DefaultRepositoryOptions()
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	em, err := newEmitter(options.EventBus)
	if err != nil {
		return nil, err
	}
	return &Persistence{
		db:        db,
		assembler: assembler,
		logger:    logger,
		metrics:   options.Metrics,
		events:    em,
	}, nil
}

// For returns a repository for the struct type T bound to p. Inside
// Persistence.Transact the repository runs on the transaction.
func For[T any](p *Persistence) (*Repository[T], error) {
	repo, err := newRepository[T](p.db, p.assembler, "", p.logger, p.metrics, p.events)
	if err != nil {
		return nil, err
	}
	repo.tx = p.tx
	return repo, nil
}

// Collection returns a document repository for a registered definition.
func (p *Persistence) Collection(name string) (*Repository[schema.Document], error) {
	repo, err := newRepository[schema.Document](p.db, p.assembler, schema.Named(name), p.logger, p.metrics, p.events)
	if err != nil {
		return nil, err
	}
	repo.tx = p.tx
	return repo, nil
}

// Create registers def and returns a document repository for it. The table
// itself must already exist.
func (p *Persistence) Create(def *schema.Definition) (*Repository[schema.Document], error) {
	if err := p.assembler.Register(def); err != nil {
		return nil, err
	}
	return p.Collection(def.Name)
}

// Collections lists the names of the registered definitions.
func (p *Persistence) Collections() []string {
	defs := p.assembler.Definitions()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

// Schema returns the registered definition called name. Names match
// case-insensitively.
func (p *Persistence) Schema(name string) (*schema.Definition, error) {
	for _, def := range p.assembler.Definitions() {
		if strings.EqualFold(def.Name, name) {
			return def, nil
		}
	}
	return nil, core.NewArgumentError("name", "no definition is registered as %q", name)
}

// Transact runs fn with a facade bound to a new transaction. Repositories
// obtained from the transactional facade share the transaction.
func (p *Persistence) Transact(ctx context.Context, fn func(tx *Persistence) error) error {
	if p.tx != nil {
		return fmt.Errorf("cannot start a new transaction from an existing transactional persistence")
	}

	startTime := time.Now()
	p.events.emit(createEvent(TransactionStart, "transaction", "", nil, nil, nil, nil, startTime))

	err := runInTx(ctx, p.db, p.logger, func(tx *sql.Tx) error {
		cp := *p
		cp.tx = tx
		return fn(&cp)
	})
	if err != nil {
		p.events.emit(createEvent(TransactionFailed, "transaction", "", nil, nil, nil, err, startTime))
		return err
	}
	p.events.emit(createEvent(TransactionSuccess, "transaction", "", nil, nil, nil, nil, startTime))
	return nil
}

// RegisterSubscription subscribes to events from every repository of p and
// returns the subscription id.
func (p *Persistence) RegisterSubscription(options RegisterSubscriptionOptions) string {
	return p.events.register(options)
}

// UnregisterSubscription removes a subscription by its id.
func (p *Persistence) UnregisterSubscription(id string) {
	p.events.unregister(id)
}

// Subscriptions lists the active subscriptions.
func (p *Persistence) Subscriptions() []SubscriptionInfo {
	return p.events.list()
}
