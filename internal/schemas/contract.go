package schemas

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Primitive type names used by the contract
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// Schema is the subset of JSON Schema the contract uses. It is provider neutral;
// model clients convert it into their SDK's structured-output schema type.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
	Maximum     *float64           `json:"maximum,omitempty"`
	MinItems    *int64             `json:"minItems,omitempty"`
}

// PropertyNames returns the object's property names in a stable order.
func (s *Schema) PropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRequired reports whether the named property is required on this object.
func (s *Schema) IsRequired(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// ParseSchema decodes a JSON Schema document into a Schema tree and checks it is well formed.
func ParseSchema(data []byte) (*Schema, error) {
	var s Schema
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	if err := s.check("(root)"); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Schema) check(path string) error {
	switch s.Type {
	case TypeObject:
		for _, r := range s.Required {
			if _, ok := s.Properties[r]; !ok {
				return fmt.Errorf("schema %s: required property %q is not declared", path, r)
			}
		}
		for name, p := range s.Properties {
			if p == nil {
				return fmt.Errorf("schema %s.%s: empty property", path, name)
			}
			if err := p.check(path + "." + name); err != nil {
				return err
			}
		}
	case TypeArray:
		if s.Items == nil {
			return fmt.Errorf("schema %s: array without items", path)
		}
		return s.Items.check(path + "[]")
	case TypeString, TypeInteger, TypeNumber, TypeBoolean:
	default:
		return fmt.Errorf("schema %s: unsupported type %q", path, s.Type)
	}
	return nil
}

var (
	contractOnce sync.Once
	contract     *Schema
)

// AnalysisSchema returns the analysis result contract. The embedded document is
// checked by tests, so a parse failure here is a build defect and panics.
func AnalysisSchema() *Schema {
	contractOnce.Do(func() {
		s, err := ParseSchema([]byte(analysisSchemaJSON))
		if err != nil {
			panic(fmt.Sprintf("embedded analysis schema: %v", err))
		}
		contract = s
	})
	return contract
}
