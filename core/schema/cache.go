package schema

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/asaidimu/go-crudsql/core"
	"github.com/asaidimu/go-crudsql/core/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Named refers to a declarative type registered with Cache.Register.
type Named string

// CacheOptions configures a Cache.
type CacheOptions struct {
	// TablePrefix is prepended to every table name.
	TablePrefix string
	// Pluralize derives default table names by pluralizing the type name.
	Pluralize bool
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
}

// DefaultCacheOptions returns options with pluralized default table names.
func DefaultCacheOptions() CacheOptions {
	return CacheOptions{Pluralize: true}
}

type cacheKey struct {
	typ     reflect.Type
	name    string
	dialect string
}

// Cache memoizes type descriptors per (type, dialect). It is safe for
// concurrent use; the first lookup of a key derives the descriptor and every
// later lookup is a map load. Derivation failures are returned but not stored.
type Cache struct {
	opts        CacheOptions
	logger      *zap.Logger
	descriptors sync.Map // cacheKey -> *TypeDescriptor
	definitions sync.Map // folded name -> *Definition
	group       singleflight.Group
	derivations atomic.Int64
	register    sync.Mutex
}

// NewCache creates an empty cache.
func NewCache(opts CacheOptions) *Cache {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{opts: opts, logger: logger}
}

// Describe returns the descriptor of the struct type t (or pointer to it)
// for dialect.
func (c *Cache) Describe(t reflect.Type, dialect string) (*TypeDescriptor, error) {
	if t == nil {
		return nil, &core.ArgumentNullError{Argument: "type"}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	key := cacheKey{typ: t, dialect: dialect}
	return c.load(key, fmt.Sprintf("type:%p:%s", t, dialect), func() (*TypeDescriptor, error) {
		return deriveStruct(t, dialect, c.opts)
	})
}

// DescribeNamed returns the descriptor of a registered declarative type.
func (c *Cache) DescribeNamed(name, dialect string) (*TypeDescriptor, error) {
	v, ok := c.definitions.Load(fold(name))
	if !ok {
		return nil, core.NewArgumentError("model", "no definition registered under %q", name)
	}
	def := v.(*Definition)
	key := cacheKey{name: fold(def.Name), dialect: dialect}
	return c.load(key, "named:"+key.name+":"+dialect, func() (*TypeDescriptor, error) {
		return deriveDefinition(def, dialect, c.opts)
	})
}

// Resolve returns the descriptor of model, which may be a struct value or
// pointer, a reflect.Type, a Named reference, a Record or a *Definition.
func (c *Cache) Resolve(model any, dialect string) (*TypeDescriptor, error) {
	switch m := model.(type) {
	case nil:
		return nil, &core.ArgumentNullError{Argument: "model"}
	case Named:
		return c.DescribeNamed(string(m), dialect)
	case reflect.Type:
		return c.Describe(m, dialect)
	case *Definition:
		if err := c.Register(m); err != nil {
			return nil, err
		}
		return c.DescribeNamed(m.Name, dialect)
	case Record:
		return c.DescribeNamed(string(m.Type), dialect)
	case *Record:
		if m == nil {
			return nil, &core.ArgumentNullError{Argument: "model"}
		}
		return c.DescribeNamed(string(m.Type), dialect)
	case Document, map[string]any, *Document:
		return nil, core.NewArgumentError("model", "documents do not carry a type; use schema.Named")
	}
	return c.Describe(reflect.TypeOf(model), dialect)
}

func (c *Cache) load(key cacheKey, flight string, derive func() (*TypeDescriptor, error)) (*TypeDescriptor, error) {
	if v, ok := c.descriptors.Load(key); ok {
		c.opts.Metrics.CacheHit()
		return v.(*TypeDescriptor), nil
	}

	v, err, _ := c.group.Do(flight, func() (any, error) {
		if v, ok := c.descriptors.Load(key); ok {
			return v, nil
		}
		c.opts.Metrics.CacheMiss()
		c.derivations.Add(1)
		d, err := derive()
		if err != nil {
			c.logger.Debug("Type descriptor derivation failed",
				zap.String("dialect", key.dialect), zap.Error(err))
			return nil, err
		}
		actual, _ := c.descriptors.LoadOrStore(key, d)
		c.logger.Debug("Derived type descriptor",
			zap.String("type", d.Name),
			zap.String("dialect", key.dialect),
			zap.String("table", d.Table.String()),
			zap.Stringer("strategy", d.Strategy),
			zap.Int("members", len(d.Members)))
		return actual, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*TypeDescriptor), nil
}

// Register stores a declarative definition under its name. Registering the
// same name again with a different shape fails with a MappingError.
func (c *Cache) Register(def *Definition) error {
	if err := def.Validate(); err != nil {
		return err
	}
	c.register.Lock()
	defer c.register.Unlock()

	name := fold(def.Name)
	if existing, ok := c.definitions.Load(name); ok {
		if reflect.DeepEqual(existing, def) {
			return nil
		}
		return core.NewMappingError(def.Name, "a different definition is already registered under this name")
	}
	c.definitions.Store(name, def)
	c.logger.Debug("Registered definition", zap.String("name", def.Name), zap.Int("fields", len(def.Fields)))
	return nil
}

// Definitions returns the registered definitions ordered by name.
func (c *Cache) Definitions() []*Definition {
	var defs []*Definition
	c.definitions.Range(func(_, v any) bool {
		defs = append(defs, v.(*Definition))
		return true
	})
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Derivations returns how many descriptor derivations the cache has run.
func (c *Cache) Derivations() int64 {
	return c.derivations.Load()
}
