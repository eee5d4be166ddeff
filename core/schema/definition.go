package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/asaidimu/go-crudsql/core"
	"gopkg.in/yaml.v3"
)

// FieldType represents the field types supported by declarative definitions.
type FieldType string

const (
	FieldTypeString   FieldType = "string"   // Text data
	FieldTypeInteger  FieldType = "integer"  // Whole numbers; auto-generated when it is the only key
	FieldTypeNumber   FieldType = "number"   // Floating point data
	FieldTypeDecimal  FieldType = "decimal"  // Exact numeric data
	FieldTypeBoolean  FieldType = "boolean"  // True/false values
	FieldTypeUUID     FieldType = "uuid"     // 128-bit identifiers
	FieldTypeDateTime FieldType = "datetime" // Timestamps
	FieldTypeBytes    FieldType = "bytes"    // Binary data
)

var fieldKinds = map[FieldType]ValueKind{
	FieldTypeString:   KindString,
	FieldTypeInteger:  KindInteger,
	FieldTypeNumber:   KindFloat,
	FieldTypeDecimal:  KindDecimal,
	FieldTypeBoolean:  KindBool,
	FieldTypeUUID:     KindUUID,
	FieldTypeDateTime: KindTime,
	FieldTypeBytes:    KindBytes,
}

// FieldDefinition declares one member of a declarative type.
type FieldDefinition struct {
	Name        string    `json:"name" yaml:"name"`
	Column      string    `json:"column,omitempty" yaml:"column,omitempty"` // Storage name, defaults to Name
	Type        FieldType `json:"type" yaml:"type"`
	Key         bool      `json:"key,omitempty" yaml:"key,omitempty"`
	Assigned    bool      `json:"assigned,omitempty" yaml:"assigned,omitempty"`
	Nullable    bool      `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	NotMapped   bool      `json:"notMapped,omitempty" yaml:"notMapped,omitempty"`
	Insert      *bool     `json:"insert,omitempty" yaml:"insert,omitempty"` // Defaults to true
	Update      *bool     `json:"update,omitempty" yaml:"update,omitempty"` // Defaults to true
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
}

// Definition declares a mapped type without a Go struct. Entities of such a
// type are Documents keyed by field name.
type Definition struct {
	Name        string             `json:"name" yaml:"name"`
	Table       string             `json:"table,omitempty" yaml:"table,omitempty"` // Defaults to Name, pluralized when configured
	Schema      string             `json:"schema,omitempty" yaml:"schema,omitempty"`
	Fields      []*FieldDefinition `json:"fields" yaml:"fields"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
}

// Validate checks the definition for structural errors.
func (d *Definition) Validate() error {
	if d == nil {
		return &core.ArgumentNullError{Argument: "definition"}
	}
	if strings.TrimSpace(d.Name) == "" {
		return core.NewMappingError("<unnamed>", "definition name is empty")
	}
	if len(d.Fields) == 0 {
		return core.NewMappingError(d.Name, "definition declares no fields")
	}
	seen := make(map[string]bool, len(d.Fields))
	var keys []*FieldDefinition
	for i, f := range d.Fields {
		if f == nil || strings.TrimSpace(f.Name) == "" {
			return core.NewMappingError(d.Name, "field %d has no name", i)
		}
		key := fold(f.Name)
		if seen[key] {
			return core.NewMappingError(d.Name, "field %s is declared more than once", f.Name)
		}
		seen[key] = true
		if _, ok := fieldKinds[f.Type]; !ok {
			return core.NewMappingError(d.Name, "field %s has invalid type %q", f.Name, f.Type)
		}
		if f.Key && f.NotMapped {
			return core.NewMappingError(d.Name, "field %s cannot be both a key and not mapped", f.Name)
		}
		if f.Key {
			keys = append(keys, f)
		}
	}
	generated := len(keys) == 1 && keys[0].Type == FieldTypeInteger && !keys[0].Assigned
	for _, k := range keys {
		if k.Insert != nil && !*k.Insert && !generated {
			return core.NewMappingError(d.Name, "key %s must be insertable unless it is a single generated integer key", k.Name)
		}
	}
	return nil
}

// deriveDefinition builds a descriptor from a validated definition.
func deriveDefinition(def *Definition, dialect string, opts CacheOptions) (*TypeDescriptor, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}

	var members []*MemberDescriptor
	var excluded []string
	explicitKey := false
	for _, f := range def.Fields {
		if f.NotMapped {
			excluded = append(excluded, f.Name)
			continue
		}
		column := f.Column
		if column == "" {
			column = f.Name
		}
		explicitKey = explicitKey || f.Key
		members = append(members, &MemberDescriptor{
			Name:     f.Name,
			Column:   column,
			Kind:     fieldKinds[f.Type],
			Nullable: f.Nullable,
			Key:      f.Key,
			Assigned: f.Assigned,
			Insert:   f.Insert == nil || *f.Insert,
			Update:   f.Update == nil || *f.Update,
		})
	}
	if !explicitKey {
		for _, m := range members {
			if strings.EqualFold(m.Name, "ID") {
				m.Key = true
				break
			}
		}
	}

	table := TableIdentifier{Name: def.Table, Schema: def.Schema}
	if table.Name == "" {
		table.Name = def.Name
		if opts.Pluralize {
			table.Name = pluralize(table.Name)
		}
	}
	if err := validateTable(def.Name, table); err != nil {
		return nil, err
	}
	table = splitQualified(table)
	table.Name = opts.TablePrefix + table.Name

	return newTypeDescriptor(def.Name, nil, dialect, table, members, excluded)
}

// ParseDefinitions decodes one definition or a list of definitions. format is
// "json" or "yaml".
func ParseDefinitions(data []byte, format string) ([]*Definition, error) {
	var defs []*Definition
	switch strings.ToLower(format) {
	case "json":
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(trimmed, &defs); err != nil {
				return nil, fmt.Errorf("failed to decode definitions: %w", err)
			}
		} else {
			var def Definition
			if err := json.Unmarshal(trimmed, &def); err != nil {
				return nil, fmt.Errorf("failed to decode definition: %w", err)
			}
			defs = append(defs, &def)
		}
	case "yaml", "yml":
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return nil, fmt.Errorf("failed to decode definitions: %w", err)
		}
		if len(node.Content) == 0 {
			return nil, fmt.Errorf("definition document is empty")
		}
		root := node.Content[0]
		if root.Kind == yaml.SequenceNode {
			if err := root.Decode(&defs); err != nil {
				return nil, fmt.Errorf("failed to decode definitions: %w", err)
			}
		} else {
			var def Definition
			if err := root.Decode(&def); err != nil {
				return nil, fmt.Errorf("failed to decode definition: %w", err)
			}
			defs = append(defs, &def)
		}
	default:
		return nil, core.NewArgumentError("format", "unsupported definition format %q", format)
	}

	for _, def := range defs {
		if err := def.Validate(); err != nil {
			return nil, err
		}
	}
	return defs, nil
}

// LoadDefinitions reads definitions from a .json, .yaml or .yml file.
func LoadDefinitions(path string) ([]*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions from %s: %w", path, err)
	}
	return ParseDefinitions(data, strings.TrimPrefix(filepath.Ext(path), "."))
}
