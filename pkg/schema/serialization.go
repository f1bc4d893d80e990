package schema

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/arbor/pkg/domain"
	"gopkg.in/yaml.v3"
)

// ParseTypeMap converts prop names to type declarations into a PropSchema.
// Example: {"content": "string", "markers": "[any]"}
func ParseTypeMap(typeMap map[string]string) (PropSchema, error) {
	result := make(PropSchema, len(typeMap))
	for name, decl := range typeMap {
		t, err := ParseType(decl)
		if err != nil {
			return nil, fmt.Errorf("prop %s: %w", name, err)
		}
		result[name] = t
	}
	return result, nil
}

func (s PropSchema) typeMap() (map[string]string, error) {
	raw := make(map[string]string, len(s))
	for name, t := range s {
		if t == nil {
			return nil, fmt.Errorf("prop %s: type is nil", name)
		}
		raw[name] = t.Name()
	}
	return raw, nil
}

// MarshalJSON serializes the schema as a map of prop names to declarations.
func (s PropSchema) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	raw, err := s.typeMap()
	if err != nil {
		return nil, err
	}
	return json.Marshal(raw)
}

// UnmarshalJSON deserializes the schema from a map of prop names to declarations.
func (s *PropSchema) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = nil
		return nil
	}
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseTypeMap(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (s PropSchema) MarshalYAML() (any, error) {
	return s.typeMap()
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *PropSchema) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string]string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseTypeMap(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// document is the on-disk form of a registry.
type document struct {
	Kinds map[string]PropSchema `yaml:"kinds" json:"kinds"`
}

// Load parses a registry document. YAML is a superset of JSON, so both work.
func Load(data []byte) (Registry, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	reg := make(Registry, len(doc.Kinds))
	for kind, ps := range doc.Kinds {
		if ps == nil {
			ps = PropSchema{}
		}
		reg[domain.Kind(kind)] = ps
	}
	return reg, nil
}

// Marshal renders the registry as a YAML document.
func (r Registry) Marshal() ([]byte, error) {
	doc := document{Kinds: make(map[string]PropSchema, len(r))}
	for kind, ps := range r {
		doc.Kinds[string(kind)] = ps
	}
	return yaml.Marshal(doc)
}
