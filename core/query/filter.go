package query

import (
	"sort"
	"strings"

	"github.com/asaidimu/go-crudsql/core"
	"github.com/asaidimu/go-crudsql/core/schema"
)

// Criteria renders a row condition for a type. The returned text has no
// WHERE keyword and is empty when every row matches.
type Criteria interface {
	Build(d *schema.TypeDescriptor, b *Binder) (string, error)
}

// Filter is an ad-hoc equality filter keyed by declared member name. Keys
// match case-insensitively; a nil value matches NULL. A nil Filter is a
// caller error; use All (or no criteria) to match every row.
type Filter map[string]any

// Build translates the filter. See Translate.
func (f Filter) Build(d *schema.TypeDescriptor, b *Binder) (string, error) {
	return Translate(d, f, b)
}

type all struct{}

func (all) Build(*schema.TypeDescriptor, *Binder) (string, error) { return "", nil }

// All matches every row.
var All Criteria = all{}

// Translate renders f as ANDed equality conditions in member declaration
// order. Null values render as IS NULL without a parameter.
func Translate(d *schema.TypeDescriptor, f Filter, b *Binder) (string, error) {
	if f == nil {
		return "", &core.ArgumentNullError{Argument: "filter"}
	}
	if len(f) == 0 {
		return "", nil
	}

	type entry struct {
		member *schema.MemberDescriptor
		value  any
	}
	position := make(map[*schema.MemberDescriptor]int, len(d.Members))
	for i, m := range d.Members {
		position[m] = i
	}

	entries := make([]entry, 0, len(f))
	seen := make(map[*schema.MemberDescriptor]string, len(f))
	for key, value := range f {
		m := d.Member(key)
		if m == nil {
			return "", &core.InvalidConditionSchemaError{Type: d.Name, Key: key}
		}
		if prev, dup := seen[m]; dup {
			return "", core.NewArgumentError("filter", "keys %q and %q name the same member", prev, key)
		}
		seen[m] = key
		entries = append(entries, entry{member: m, value: value})
	}
	sort.Slice(entries, func(i, j int) bool {
		return position[entries[i].member] < position[entries[j].member]
	})

	clauses := make([]string, len(entries))
	for i, e := range entries {
		column := b.Quote(e.member.Column)
		if schema.IsNull(e.value) {
			clauses[i] = column + " IS NULL"
			continue
		}
		clauses[i] = column + " = " + b.Bind(normalizeValue(e.value))
	}
	return strings.Join(clauses, " AND "), nil
}
