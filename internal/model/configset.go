package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// ConfigurationSet maps configuration names to presets, preserving the order
// in which they were added. The zero value is an empty set.
type ConfigurationSet struct {
	entries *orderedmap.OrderedMap[string, Params]
}

func NewConfigurationSet() *ConfigurationSet {
	return &ConfigurationSet{entries: orderedmap.New[string, Params]()}
}

func (s *ConfigurationSet) init() {
	if s.entries == nil {
		s.entries = orderedmap.New[string, Params]()
	}
}

func (s *ConfigurationSet) Len() int {
	if s == nil || s.entries == nil {
		return 0
	}
	return s.entries.Len()
}

func (s *ConfigurationSet) Has(name string) bool {
	if s == nil || s.entries == nil {
		return false
	}
	_, ok := s.entries.Get(name)
	return ok
}

// Get returns a copy of the named preset.
func (s *ConfigurationSet) Get(name string) (Params, bool) {
	if s == nil || s.entries == nil {
		return nil, false
	}
	params, ok := s.entries.Get(name)
	if !ok {
		return nil, false
	}
	return params.Clone(), true
}

// Put inserts or replaces a preset. Replacing keeps the original position.
func (s *ConfigurationSet) Put(name string, params Params) {
	s.init()
	s.entries.Set(name, params.Clone())
}

func (s *ConfigurationSet) Delete(name string) bool {
	if s == nil || s.entries == nil {
		return false
	}
	_, ok := s.entries.Delete(name)
	return ok
}

func (s *ConfigurationSet) Names() []string {
	names := make([]string, 0, s.Len())
	if s.Len() == 0 {
		return names
	}
	for pair := s.entries.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

func (s *ConfigurationSet) Clone() *ConfigurationSet {
	out := NewConfigurationSet()
	if s.Len() == 0 {
		return out
	}
	for pair := s.entries.Oldest(); pair != nil; pair = pair.Next() {
		out.entries.Set(pair.Key, pair.Value.Clone())
	}
	return out
}

func (s *ConfigurationSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range s.Names() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		params, _ := s.entries.Get(name)
		value, err := json.Marshal(map[string]any(params))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *ConfigurationSet) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedConfiguration, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("%w: configuration set must be an object", ErrMalformedConfiguration)
	}

	entries := orderedmap.New[string, Params]()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedConfiguration, err)
		}
		name, _ := tok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("%w: configuration %q: %v", ErrMalformedConfiguration, name, err)
		}
		params, err := ParamsFromAny(value)
		if err != nil {
			return fmt.Errorf("configuration %q: %w", name, err)
		}
		entries.Set(name, params)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedConfiguration, err)
	}
	s.entries = entries
	return nil
}

func (s *ConfigurationSet) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if s.Len() == 0 {
		return node, nil
	}
	for pair := s.entries.Oldest(); pair != nil; pair = pair.Next() {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: pair.Key}
		value := &yaml.Node{}
		if err := value.Encode(map[string]any(pair.Value)); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, key, value)
	}
	return node, nil
}

func (s *ConfigurationSet) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%w: configuration set must be a mapping (line %d)", ErrMalformedConfiguration, node.Line)
	}

	entries := orderedmap.New[string, Params]()
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var value any
		if err := node.Content[i+1].Decode(&value); err != nil {
			return fmt.Errorf("%w: configuration %q: %v", ErrMalformedConfiguration, name, err)
		}
		params, err := ParamsFromAny(value)
		if err != nil {
			return fmt.Errorf("configuration %q: %w", name, err)
		}
		entries.Set(name, params)
	}
	s.entries = entries
	return nil
}
