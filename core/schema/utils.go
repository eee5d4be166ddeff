package schema

import "github.com/go-openapi/inflect"

// FindField returns the field whose name matches name case-insensitively, or nil.
func (d *Definition) FindField(name string) *FieldDefinition {
	for _, field := range d.Fields {
		if field != nil && EqualFold(field.Name, name) {
			return field
		}
	}
	return nil
}

func pluralize(name string) string {
	return inflect.Pluralize(name)
}
