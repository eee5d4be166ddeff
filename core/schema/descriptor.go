package schema

import (
	"reflect"
	"strings"

	"github.com/asaidimu/go-crudsql/core"
	"golang.org/x/text/cases"
)

// TableIdentifier names the table a type is stored in.
type TableIdentifier struct {
	Name   string
	Schema string // Optional
}

// String renders the identifier unquoted, schema-qualified when a schema is set.
func (t TableIdentifier) String() string {
	if t.Schema == "" {
		return t.Name
	}
	return t.Schema + "." + t.Name
}

// TypeDescriptor is the persistence metadata of a mapped type for one dialect.
// It is immutable once built and safe to share between goroutines.
type TypeDescriptor struct {
	Name     string       // Go type name or definition name
	GoType   reflect.Type // Struct type; nil for declarative types
	Dialect  string
	Table    TableIdentifier
	Members  []*MemberDescriptor // Persisted members in declaration order
	Keys     []*MemberDescriptor // Key members in declaration order
	Strategy KeyStrategy
	Excluded []string // Declared names of members that are never persisted

	byName   map[string]*MemberDescriptor
	byColumn map[string]*MemberDescriptor
}

// fold returns the case-folded form of s. A Caser is stateful, so a new one
// is made per call.
func fold(s string) string {
	return cases.Fold().String(s)
}

// EqualFold reports whether a and b are equal under Unicode case folding.
func EqualFold(a, b string) bool {
	return fold(a) == fold(b)
}

// IsDocument reports whether the descriptor was built from a declarative
// definition, in which case entities are Documents.
func (d *TypeDescriptor) IsDocument() bool {
	return d.GoType == nil
}

// Member returns the member whose declared name matches name
// case-insensitively, or nil.
func (d *TypeDescriptor) Member(name string) *MemberDescriptor {
	return d.byName[fold(name)]
}

// Column returns the member whose storage name matches column
// case-insensitively, or nil.
func (d *TypeDescriptor) Column(column string) *MemberDescriptor {
	return d.byColumn[fold(column)]
}

// Insertable returns the members written by an INSERT. A single
// auto-generated key is left to the database.
func (d *TypeDescriptor) Insertable() []*MemberDescriptor {
	out := make([]*MemberDescriptor, 0, len(d.Members))
	for _, m := range d.Members {
		if !m.Insert {
			continue
		}
		if m.Key && d.Strategy == KeySingleAutoGenerated {
			continue
		}
		out = append(out, m)
	}
	return out
}

// Updatable returns the members written by an UPDATE SET list. Keys are
// never updated.
func (d *TypeDescriptor) Updatable() []*MemberDescriptor {
	out := make([]*MemberDescriptor, 0, len(d.Members))
	for _, m := range d.Members {
		if m.Update && !m.Key {
			out = append(out, m)
		}
	}
	return out
}

// NonKeys returns the members that are not part of the key.
func (d *TypeDescriptor) NonKeys() []*MemberDescriptor {
	out := make([]*MemberDescriptor, 0, len(d.Members))
	for _, m := range d.Members {
		if !m.Key {
			out = append(out, m)
		}
	}
	return out
}

// Columns returns the storage names of all persisted members.
func (d *TypeDescriptor) Columns() []string {
	out := make([]string, len(d.Members))
	for i, m := range d.Members {
		out[i] = m.Column
	}
	return out
}

// newTypeDescriptor validates members and table, indexes them and resolves
// the key strategy.
func newTypeDescriptor(name string, goType reflect.Type, dialect string, table TableIdentifier, members []*MemberDescriptor, excluded []string) (*TypeDescriptor, error) {
	if err := validateTable(name, table); err != nil {
		return nil, err
	}

	d := &TypeDescriptor{
		Name:     name,
		GoType:   goType,
		Dialect:  dialect,
		Table:    table,
		Members:  members,
		Excluded: excluded,
		byName:   make(map[string]*MemberDescriptor, len(members)),
		byColumn: make(map[string]*MemberDescriptor, len(members)),
	}

	for _, m := range members {
		if m.Column == "" {
			return nil, core.NewMappingError(name, "member %s has an empty storage name", m.Name)
		}
		nameKey := fold(m.Name)
		if prev, ok := d.byName[nameKey]; ok {
			if prev.Name == m.Name {
				return nil, core.NewMappingError(name, "member %s is declared more than once", m.Name)
			}
			return nil, core.NewMappingError(name, "members %s and %s differ only by case", prev.Name, m.Name)
		}
		columnKey := fold(m.Column)
		if prev, ok := d.byColumn[columnKey]; ok {
			return nil, core.NewMappingError(name, "storage name %q is declared by both %s and %s", m.Column, prev.Name, m.Name)
		}
		d.byName[nameKey] = m
		d.byColumn[columnKey] = m

		if m.Assigned && !m.Key {
			return nil, core.NewMappingError(name, "member %s is marked assigned but is not a key", m.Name)
		}
		if m.Key {
			d.Keys = append(d.Keys, m)
		}
	}
	if len(d.Members) == 0 {
		return nil, core.NewMappingError(name, "type has no persisted members")
	}

	d.Strategy = ResolveKeyStrategy(d.Keys)
	// Only a database-generated key may be left out of inserts.
	for _, k := range d.Keys {
		if !k.Insert && d.Strategy != KeySingleAutoGenerated {
			return nil, core.NewMappingError(name, "key %s must be insertable for a %s key", k.Name, d.Strategy)
		}
	}
	return d, nil
}

func validateTable(typeName string, t TableIdentifier) error {
	switch {
	case strings.TrimSpace(t.Name) == "":
		return core.NewMappingError(typeName, "table name is empty")
	case t.Schema != "" && strings.Contains(t.Name, "."):
		return core.NewMappingError(typeName, "table name %q is qualified but schema %q is also declared", t.Name, t.Schema)
	case strings.Contains(t.Schema, "."):
		return core.NewMappingError(typeName, "schema %q must not contain '.'", t.Schema)
	case t.Schema != "" && strings.TrimSpace(t.Schema) == "":
		return core.NewMappingError(typeName, "schema is blank")
	}
	return nil
}

// splitQualified turns "dbo.Users" into schema "dbo" and table "Users" when
// no schema is declared separately.
func splitQualified(t TableIdentifier) TableIdentifier {
	if t.Schema != "" {
		return t
	}
	if i := strings.IndexByte(t.Name, '.'); i > 0 && i < len(t.Name)-1 {
		return TableIdentifier{Schema: t.Name[:i], Name: t.Name[i+1:]}
	}
	return t
}
