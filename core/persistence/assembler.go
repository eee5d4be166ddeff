package persistence

import (
	"errors"
	"reflect"

	"github.com/asaidimu/go-crudsql/core"
	"github.com/asaidimu/go-crudsql/core/metrics"
	"github.com/asaidimu/go-crudsql/core/query"
	"github.com/asaidimu/go-crudsql/core/schema"
	"go.uber.org/zap"
)

// Assembler turns typed requests into dialect-specific commands. It never
// executes anything. Every operation resolves the type descriptor, checks the
// key strategy when a key is involved, renders criteria and paging, and hands
// the pieces to the dialect. Failures are returned before any SQL is built.
//
// Models are a struct value or pointer, a reflect.Type, a schema.Named
// reference or a schema.Record. Entities are struct pointers (or values when
// nothing has to be written back) or schema.Record values.
type Assembler struct {
	cache   *schema.Cache
	dialect query.Dialect
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// AssemblerOption configures an Assembler.
type AssemblerOption func(*Assembler)

// WithLogger sets the logger generated commands are written to at debug level.
func WithLogger(logger *zap.Logger) AssemblerOption {
	return func(a *Assembler) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMetrics enables command and failure counters.
func WithMetrics(m *metrics.Metrics) AssemblerOption {
	return func(a *Assembler) { a.metrics = m }
}

// NewAssembler creates an Assembler for one dialect. The cache may be shared
// between assemblers of different dialects.
func NewAssembler(cache *schema.Cache, dialect query.Dialect, opts ...AssemblerOption) (*Assembler, error) {
	if cache == nil {
		return nil, &core.ArgumentNullError{Argument: "cache"}
	}
	if dialect == nil {
		return nil, &core.ArgumentNullError{Argument: "dialect"}
	}
	a := &Assembler{cache: cache, dialect: dialect, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Dialect returns the dialect commands are generated for.
func (a *Assembler) Dialect() query.Dialect { return a.dialect }

// Describe resolves the descriptor of model for the assembler's dialect.
func (a *Assembler) Describe(model any) (*schema.TypeDescriptor, error) {
	return a.cache.Resolve(model, a.dialect.Name())
}

// Register stores a declarative definition in the assembler's cache.
func (a *Assembler) Register(def *schema.Definition) error {
	if def == nil {
		return &core.ArgumentNullError{Argument: "definition"}
	}
	return a.cache.Register(def)
}

// Definitions returns the definitions registered in the assembler's cache.
func (a *Assembler) Definitions() []*schema.Definition {
	return a.cache.Definitions()
}

// Count builds SELECT COUNT(*) over the rows matching criteria. Nil criteria
// count every row.
func (a *Assembler) Count(model any, criteria query.Criteria) (query.Command, error) {
	d, b, err := a.begin(model)
	if err != nil {
		return a.fail(query.OpCount, err)
	}
	where, err := a.where(d, criteria, b)
	if err != nil {
		return a.fail(query.OpCount, err)
	}
	return a.finish(query.OpCount, a.dialect.Count(d, where), b)
}

// Find builds a select of the row identified by keys, given in key order.
func (a *Assembler) Find(model any, keys ...any) (query.Command, error) {
	d, b, err := a.begin(model)
	if err != nil {
		return a.fail(query.OpFind, err)
	}
	values, err := d.CheckKeys(string(query.OpFind), keys)
	if err != nil {
		return a.fail(query.OpFind, err)
	}
	return a.finish(query.OpFind, a.dialect.Find(d, b, values), b)
}

// FindEntity builds a select of the row identified by entity's key values.
func (a *Assembler) FindEntity(entity any) (query.Command, error) {
	d, b, err := a.begin(entity)
	if err != nil {
		return a.fail(query.OpFind, err)
	}
	keys, err := d.KeyValues(entity, string(query.OpFind))
	if err != nil {
		return a.fail(query.OpFind, err)
	}
	return a.finish(query.OpFind, a.dialect.Find(d, b, keys), b)
}

// GetAll builds a select of every row, ordered by orderBy when it is set.
func (a *Assembler) GetAll(model any, orderBy string) (query.Command, error) {
	return a.GetRange(model, query.All, orderBy)
}

// GetRange builds a select of the rows matching criteria. orderBy is
// validated against the type's columns.
func (a *Assembler) GetRange(model any, criteria query.Criteria, orderBy string) (query.Command, error) {
	d, b, err := a.begin(model)
	if err != nil {
		return a.fail(query.OpGetRange, err)
	}
	order, err := query.ParseOrderBy(d, orderBy)
	if err != nil {
		return a.fail(query.OpGetRange, err)
	}
	where, err := a.where(d, criteria, b)
	if err != nil {
		return a.fail(query.OpGetRange, err)
	}
	return a.finish(query.OpGetRange, a.dialect.GetRange(d, where, order), b)
}

// GetPage builds a select of one page of the rows matching criteria. Without
// orderBy the page is ordered by the key columns. A page past the end of the
// data is not an error; it yields no rows.
func (a *Assembler) GetPage(model any, criteria query.Criteria, orderBy string, page query.Page) (query.Command, error) {
	if err := page.Validate(); err != nil {
		return a.fail(query.OpGetPage, err)
	}
	d, b, err := a.begin(model)
	if err != nil {
		return a.fail(query.OpGetPage, err)
	}
	order, err := query.ParseOrderBy(d, orderBy)
	if err != nil {
		return a.fail(query.OpGetPage, err)
	}
	where, err := a.where(d, criteria, b)
	if err != nil {
		return a.fail(query.OpGetPage, err)
	}
	skip, take := query.Calculate(page.Index, page.Size)
	return a.finish(query.OpGetPage, a.dialect.GetPage(d, where, order, skip, take), b)
}

// GetTop builds a select of the first count rows matching criteria.
func (a *Assembler) GetTop(model any, count int64, orderBy string, criteria query.Criteria) (query.Command, error) {
	if count < 1 {
		return a.fail(query.OpGetTop, core.NewArgumentError("count", "must be at least 1, got %d", count))
	}
	d, b, err := a.begin(model)
	if err != nil {
		return a.fail(query.OpGetTop, err)
	}
	order, err := query.ParseOrderBy(d, orderBy)
	if err != nil {
		return a.fail(query.OpGetTop, err)
	}
	where, err := a.where(d, criteria, b)
	if err != nil {
		return a.fail(query.OpGetTop, err)
	}
	return a.finish(query.OpGetTop, a.dialect.GetTop(d, count, order, where), b)
}

// Select builds GetPage when dsl carries a page and GetRange otherwise.
func (a *Assembler) Select(model any, dsl query.QueryDSL) (query.Command, error) {
	if dsl.Page != nil {
		return a.GetPage(model, dsl.Criteria(), dsl.OrderBy(), *dsl.Page)
	}
	return a.GetRange(model, dsl.Criteria(), dsl.OrderBy())
}

// Insert builds a single-row insert of entity's insertable members.
func (a *Assembler) Insert(entity any) (query.Command, error) {
	d, b, values, err := a.insertValues(entity, query.OpInsert)
	if err != nil {
		return a.fail(query.OpInsert, err)
	}
	return a.finish(query.OpInsert, a.dialect.Insert(d, b, values), b)
}

// InsertAndReturnKey builds an insert that yields the generated key. Only
// types with a single auto-generated key qualify.
func (a *Assembler) InsertAndReturnKey(entity any) (query.Command, error) {
	op := query.OpInsertReturningKey
	d, err := a.Describe(entity)
	if err != nil {
		return a.fail(op, err)
	}
	if d.Strategy != schema.KeySingleAutoGenerated {
		return a.fail(op, core.NewInvalidPrimaryKeyError(d.Name, string(op),
			"returning a generated key requires a single auto-generated key, type has %s", d.Strategy))
	}
	d, b, values, err := a.insertValues(entity, op)
	if err != nil {
		return a.fail(op, err)
	}
	return a.finish(op, a.dialect.InsertReturningKey(d, b, values), b)
}

// BulkInsert builds multi-row inserts for entities, a slice or array of one
// entity type. Rows are split across commands so none exceeds the dialect's
// parameter or row limits. An empty slice yields no commands.
func (a *Assembler) BulkInsert(entities any) ([]query.Command, error) {
	op := query.OpBulkInsert
	rv := reflect.ValueOf(entities)
	if !rv.IsValid() || (rv.Kind() == reflect.Slice && rv.IsNil()) {
		a.failed(op, &core.ArgumentNullError{Argument: "entities"})
		return nil, &core.ArgumentNullError{Argument: "entities"}
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		err := core.NewArgumentError("entities", "expected a slice, got %T", entities)
		a.failed(op, err)
		return nil, err
	}
	if rv.Len() == 0 {
		return nil, nil
	}

	d, err := a.Describe(element(rv, 0))
	if err != nil {
		a.failed(op, err)
		return nil, err
	}
	columns := len(d.Insertable())
	if columns == 0 {
		err := core.NewArgumentError("entities", "%s has no insertable members", d.Name)
		a.failed(op, err)
		return nil, err
	}
	batch := a.dialect.MaxParams() / columns
	if limit := a.dialect.MaxRows(); limit > 0 && batch > limit {
		batch = limit
	}
	if batch < 1 {
		err := core.NewArgumentError("entities", "%s has %d insertable members, more than the %d parameters %s allows",
			d.Name, columns, a.dialect.MaxParams(), a.dialect.Name())
		a.failed(op, err)
		return nil, err
	}

	rows := make([][]any, rv.Len())
	for i := range rows {
		e := element(rv, i)
		if err := a.sameType(d, e); err != nil {
			a.failed(op, err)
			return nil, err
		}
		values, err := d.InsertValues(e, string(op))
		if err != nil {
			a.failed(op, err)
			return nil, err
		}
		rows[i] = values
	}

	commands := make([]query.Command, 0, (len(rows)+batch-1)/batch)
	for start := 0; start < len(rows); start += batch {
		end := min(start+batch, len(rows))
		b := query.NewBinder(a.dialect)
		cmd, err := a.finish(op, a.dialect.BulkInsert(d, b, rows[start:end]), b)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}
	return commands, nil
}

// Update builds an update of every updatable member, filtered by entity's
// key values.
func (a *Assembler) Update(entity any) (query.Command, error) {
	op := query.OpUpdate
	d, b, err := a.begin(entity)
	if err != nil {
		return a.fail(op, err)
	}
	keys, err := d.KeyValues(entity, string(op))
	if err != nil {
		return a.fail(op, err)
	}
	if len(d.Updatable()) == 0 {
		return a.fail(op, core.NewArgumentError("entity", "%s has no updatable members", d.Name))
	}
	values, err := d.UpdateValues(entity)
	if err != nil {
		return a.fail(op, err)
	}
	return a.finish(op, a.dialect.Update(d, b, values, keys), b)
}

// Delete builds a delete of the row identified by entity's key values.
func (a *Assembler) Delete(entity any) (query.Command, error) {
	d, b, err := a.begin(entity)
	if err != nil {
		return a.fail(query.OpDelete, err)
	}
	keys, err := d.KeyValues(entity, string(query.OpDelete))
	if err != nil {
		return a.fail(query.OpDelete, err)
	}
	return a.finish(query.OpDelete, a.dialect.Delete(d, b, keys), b)
}

// DeleteByKey builds a delete of the row identified by keys, given in key
// order.
func (a *Assembler) DeleteByKey(model any, keys ...any) (query.Command, error) {
	d, b, err := a.begin(model)
	if err != nil {
		return a.fail(query.OpDelete, err)
	}
	values, err := d.CheckKeys(string(query.OpDelete), keys)
	if err != nil {
		return a.fail(query.OpDelete, err)
	}
	return a.finish(query.OpDelete, a.dialect.Delete(d, b, values), b)
}

// DeleteRange builds a delete of the rows matching criteria. Criteria that
// are missing, blank or always true are rejected; use DeleteAll to remove
// every row.
func (a *Assembler) DeleteRange(model any, criteria query.Criteria) (query.Command, error) {
	op := query.OpDeleteRange
	if err := query.GuardDelete(criteria); err != nil {
		return a.fail(op, err)
	}
	d, b, err := a.begin(model)
	if err != nil {
		return a.fail(op, err)
	}
	where, err := criteria.Build(d, b)
	if err != nil {
		return a.fail(op, err)
	}
	if err := query.CheckCondition(where); err != nil {
		return a.fail(op, err)
	}
	return a.finish(op, a.dialect.DeleteRange(d, where), b)
}

// DeleteAll builds an unconditional delete.
func (a *Assembler) DeleteAll(model any) (query.Command, error) {
	d, b, err := a.begin(model)
	if err != nil {
		return a.fail(query.OpDeleteAll, err)
	}
	return a.finish(query.OpDeleteAll, a.dialect.DeleteAll(d), b)
}

func (a *Assembler) begin(model any) (*schema.TypeDescriptor, *query.Binder, error) {
	d, err := a.Describe(model)
	if err != nil {
		return nil, nil, err
	}
	return d, query.NewBinder(a.dialect), nil
}

func (a *Assembler) where(d *schema.TypeDescriptor, criteria query.Criteria, b *query.Binder) (string, error) {
	if criteria == nil {
		return "", nil
	}
	return criteria.Build(d, b)
}

func (a *Assembler) insertValues(entity any, op query.Operation) (*schema.TypeDescriptor, *query.Binder, []any, error) {
	d, b, err := a.begin(entity)
	if err != nil {
		return nil, nil, nil, err
	}
	if len(d.Insertable()) == 0 {
		return nil, nil, nil, core.NewArgumentError("entity", "%s has no insertable members", d.Name)
	}
	values, err := d.InsertValues(entity, string(op))
	if err != nil {
		return nil, nil, nil, err
	}
	return d, b, values, nil
}

// sameType rejects bulk elements that resolve to a different descriptor.
func (a *Assembler) sameType(d *schema.TypeDescriptor, entity any) error {
	other, err := a.Describe(entity)
	if err != nil {
		return err
	}
	if other != d {
		return core.NewArgumentError("entities", "mixed entity types %s and %s", d.Name, other.Name)
	}
	return nil
}

// element returns the i-th entity, addressed when possible so generated keys
// can be written back.
func element(rv reflect.Value, i int) any {
	e := rv.Index(i)
	if e.Kind() == reflect.Struct && e.CanAddr() {
		return e.Addr().Interface()
	}
	return e.Interface()
}

func (a *Assembler) finish(op query.Operation, sql string, b *query.Binder) (query.Command, error) {
	if b.Len() > a.dialect.MaxParams() {
		return a.fail(op, core.NewArgumentError("criteria", "%s command binds %d parameters, %s allows %d",
			op, b.Len(), a.dialect.Name(), a.dialect.MaxParams()))
	}
	cmd := query.Command{
		SQL:           sql,
		Params:        b.Params(),
		Operation:     op,
		Dialect:       a.dialect.Name(),
		KeyFromResult: op == query.OpInsertReturningKey && a.dialect.KeyFromResult(),
	}
	a.metrics.CommandGenerated(cmd.Dialect, string(op))
	a.logger.Debug("Generated command",
		zap.String("operation", string(op)),
		zap.String("dialect", cmd.Dialect),
		zap.String("sql", sql),
		zap.Int("params", len(cmd.Params)))
	return cmd, nil
}

func (a *Assembler) fail(op query.Operation, err error) (query.Command, error) {
	a.failed(op, err)
	return query.Command{}, err
}

func (a *Assembler) failed(op query.Operation, err error) {
	a.metrics.AssemblyFailed(string(op), errorKind(err))
	a.logger.Debug("Command assembly failed", zap.String("operation", string(op)), zap.Error(err))
}

// errorKind maps an error to its metrics label.
func errorKind(err error) string {
	switch {
	case errors.Is(err, core.ErrMapping):
		return "mapping"
	case errors.Is(err, core.ErrInvalidPrimaryKey):
		return "primary_key"
	case errors.Is(err, core.ErrInvalidConditionSchema):
		return "condition_schema"
	case errors.Is(err, core.ErrArgument):
		return "argument"
	default:
		return "other"
	}
}
