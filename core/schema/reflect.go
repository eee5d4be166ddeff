package schema

import (
	"reflect"
	"strings"

	"github.com/asaidimu/go-crudsql/core"
)

// TagName is the struct tag key read during derivation.
//
//	type User struct {
//		ID       int64     `db:"user_id"`
//		Tenant   string    `db:",key,assigned"`
//		Created  time.Time `db:"created_at,readonly"`
//		Scratch  string    `db:"-"`
//	}
const TagName = "db"

// TableNamer is implemented by types that declare their table name.
type TableNamer interface {
	TableName() string
}

// TableSchemer is implemented by types that declare their table schema.
type TableSchemer interface {
	TableSchema() string
}

var (
	tableNamerType   = reflect.TypeOf((*TableNamer)(nil)).Elem()
	tableSchemerType = reflect.TypeOf((*TableSchemer)(nil)).Elem()
)

// fieldTag is the parsed form of a `db` struct tag.
type fieldTag struct {
	alias     string
	key       bool
	assigned  bool
	readonly  bool
	noInsert  bool
	noUpdate  bool
	nullable  bool
	notMapped bool
}

func parseTag(typeName, fieldName, raw string) (fieldTag, error) {
	if raw == "-" {
		return fieldTag{notMapped: true}, nil
	}
	parts := strings.Split(raw, ",")
	tag := fieldTag{alias: strings.TrimSpace(parts[0])}
	for _, opt := range parts[1:] {
		switch strings.ToLower(strings.TrimSpace(opt)) {
		case "":
		case "key":
			tag.key = true
		case "assigned":
			tag.assigned = true
		case "readonly":
			tag.readonly = true
		case "noinsert":
			tag.noInsert = true
		case "noupdate":
			tag.noUpdate = true
		case "nullable":
			tag.nullable = true
		case "notmapped":
			tag.notMapped = true
		default:
			return tag, core.NewMappingError(typeName, "field %s has unknown tag option %q", fieldName, opt)
		}
	}
	if tag.key && tag.notMapped {
		return tag, core.NewMappingError(typeName, "field %s cannot be both a key and not mapped", fieldName)
	}
	if tag.key && tag.readonly {
		return tag, core.NewMappingError(typeName, "field %s cannot be both a key and readonly", fieldName)
	}
	return tag, nil
}

// deriveStruct builds a descriptor from the exported fields of a struct type.
func deriveStruct(t reflect.Type, dialect string, opts CacheOptions) (*TypeDescriptor, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	typeName := t.String()
	if t.Kind() != reflect.Struct {
		return nil, core.NewMappingError(typeName, "only struct types can be mapped, got %s", t.Kind())
	}

	w := &walker{typeName: typeName}
	if err := w.walk(t, nil); err != nil {
		return nil, err
	}

	if !w.explicitKey {
		for _, m := range w.members {
			if strings.EqualFold(m.Name, "ID") {
				m.Key = true
				break
			}
		}
	}

	table, err := tableOf(t, opts)
	if err != nil {
		return nil, err
	}
	name := t.Name()
	if name == "" {
		name = typeName
	}
	return newTypeDescriptor(name, t, dialect, table, w.members, w.excluded)
}

type walker struct {
	typeName    string
	members     []*MemberDescriptor
	excluded    []string
	explicitKey bool
}

func (w *walker) walk(t reflect.Type, prefix []int) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), prefix...), i)
		raw, hasTag := f.Tag.Lookup(TagName)

		if f.Anonymous && !hasTag {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if _, _, scalar := classify(f.Type); !scalar && ft.Kind() == reflect.Struct {
				if err := w.walk(ft, index); err != nil {
					return err
				}
				continue
			}
		}
		if !f.IsExported() {
			continue
		}

		tag, err := parseTag(w.typeName, f.Name, raw)
		if err != nil {
			return err
		}
		if tag.notMapped {
			w.excluded = append(w.excluded, f.Name)
			continue
		}

		kind, nullable, scalar := classify(f.Type)
		if !scalar {
			if tag.key {
				return core.NewMappingError(w.typeName, "key field %s has non-scalar type %s", f.Name, f.Type)
			}
			w.excluded = append(w.excluded, f.Name)
			continue
		}

		column := tag.alias
		if column == "" {
			column = f.Name
		}
		if tag.key {
			w.explicitKey = true
		}
		w.members = append(w.members, &MemberDescriptor{
			Name:     f.Name,
			Column:   column,
			Kind:     kind,
			GoType:   f.Type,
			Nullable: nullable || tag.nullable,
			Key:      tag.key,
			Assigned: tag.assigned,
			Insert:   !tag.readonly && !tag.noInsert,
			Update:   !tag.readonly && !tag.noUpdate,
			index:    index,
		})
	}
	return nil
}

// tableOf resolves the table identifier from TableName/TableSchema methods,
// falling back to the (optionally pluralized) type name.
func tableOf(t reflect.Type, opts CacheOptions) (TableIdentifier, error) {
	var table TableIdentifier
	ptr := reflect.PointerTo(t)
	if ptr.Implements(tableNamerType) {
		table.Name = reflect.New(t).Interface().(TableNamer).TableName()
	} else {
		if t.Name() == "" {
			return table, core.NewMappingError(t.String(), "anonymous struct types must declare TableName()")
		}
		table.Name = t.Name()
		if opts.Pluralize {
			table.Name = pluralize(table.Name)
		}
	}
	if ptr.Implements(tableSchemerType) {
		table.Schema = reflect.New(t).Interface().(TableSchemer).TableSchema()
	}
	if err := validateTable(t.String(), table); err != nil {
		return table, err
	}
	table = splitQualified(table)
	table.Name = opts.TablePrefix + table.Name
	return table, nil
}
