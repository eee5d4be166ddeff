package query

import (
	"strings"

	"github.com/asaidimu/go-crudsql/core"
	"github.com/asaidimu/go-crudsql/core/schema"
)

// OrderItem is one validated ORDER BY entry.
type OrderItem struct {
	Member *schema.MemberDescriptor
	Desc   bool
}

// ParseOrderBy validates caller ORDER BY text against d. The text is a
// comma-separated list of storage names (or declared names), each optionally
// followed by ASC or DESC; a leading "ORDER BY" is accepted. Anything else is
// an ArgumentError, so caller text never reaches the statement verbatim.
func ParseOrderBy(d *schema.TypeDescriptor, text string) ([]OrderItem, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, nil
	}
	if fields := strings.Fields(trimmed); len(fields) > 2 &&
		strings.EqualFold(fields[0], "ORDER") && strings.EqualFold(fields[1], "BY") {
		trimmed = strings.TrimSpace(trimmed[strings.Index(strings.ToUpper(trimmed), "BY")+2:])
	}

	parts := strings.Split(trimmed, ",")
	items := make([]OrderItem, 0, len(parts))
	for _, part := range parts {
		fields := strings.Fields(part)
		if len(fields) == 0 || len(fields) > 2 {
			return nil, core.NewArgumentError("orderBy", "invalid ORDER BY item %q", strings.TrimSpace(part))
		}
		name := unquote(fields[0])
		m := d.Column(name)
		if m == nil {
			m = d.Member(name)
		}
		if m == nil {
			return nil, core.NewArgumentError("orderBy", "%q is not a column of %s", fields[0], d.Name)
		}
		item := OrderItem{Member: m}
		if len(fields) == 2 {
			switch strings.ToUpper(fields[1]) {
			case "ASC":
			case "DESC":
				item.Desc = true
			default:
				return nil, core.NewArgumentError("orderBy", "invalid sort direction %q", fields[1])
			}
		}
		items = append(items, item)
	}
	return items, nil
}

// unquote strips one layer of "", [] or `` quoting.
func unquote(name string) string {
	if len(name) < 2 {
		return name
	}
	first, last := name[0], name[len(name)-1]
	if (first == '"' && last == '"') || (first == '[' && last == ']') || (first == '`' && last == '`') {
		return name[1 : len(name)-1]
	}
	return name
}

// DefaultOrder returns the key columns ascending, or the first column when
// the type has no key. Paging needs a deterministic order.
func DefaultOrder(d *schema.TypeDescriptor) []OrderItem {
	if len(d.Keys) == 0 {
		return []OrderItem{{Member: d.Members[0]}}
	}
	items := make([]OrderItem, len(d.Keys))
	for i, k := range d.Keys {
		items[i] = OrderItem{Member: k}
	}
	return items
}
