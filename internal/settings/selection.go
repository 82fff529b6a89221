package settings

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Selection is the set of unit types a burst targets. Membership is a
// boolean per name; names keep the order they were first added, which
// is the order a burst visits them in. The zero value is empty and
// ready to use.
type Selection struct {
	names []string
	on    map[string]bool
}

// NewSelection builds a selection from names, all set to value.
func NewSelection(value bool, names ...string) Selection {
	var s Selection
	for _, n := range names {
		s.Set(n, value)
	}
	return s
}

// Set adds or updates a member. New names go to the end.
func (s *Selection) Set(name string, value bool) {
	if s.on == nil {
		s.on = make(map[string]bool)
	}
	if _, ok := s.on[name]; !ok {
		s.names = append(s.names, name)
	}
	s.on[name] = value
}

// Get reports whether name is selected. Unknown names are not.
func (s Selection) Get(name string) bool { return s.on[name] }

// Has reports whether name has an entry at all.
func (s Selection) Has(name string) bool {
	_, ok := s.on[name]
	return ok
}

func (s Selection) Len() int { return len(s.names) }

// Names returns every entry in insertion order.
func (s Selection) Names() []string { return append([]string(nil), s.names...) }

// Selected returns the names set to true, in insertion order.
func (s Selection) Selected() []string {
	var out []string
	for _, n := range s.names {
		if s.on[n] {
			out = append(out, n)
		}
	}
	return out
}

func (s Selection) Clone() Selection {
	out := Selection{names: append([]string(nil), s.names...)}
	if s.on != nil {
		out.on = make(map[string]bool, len(s.on))
		for k, v := range s.on {
			out.on[k] = v
		}
	}
	return out
}

// Union returns s with every entry of other applied on top: shared
// names take other's value, new names are appended in other's order.
func (s Selection) Union(other Selection) Selection {
	out := s.Clone()
	for _, n := range other.names {
		out.Set(n, other.on[n])
	}
	return out
}

func (s Selection) Equal(other Selection) bool {
	if len(s.names) != len(other.names) {
		return false
	}
	for i, n := range s.names {
		if other.names[i] != n || other.on[n] != s.on[n] {
			return false
		}
	}
	return true
}

func (s Selection) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, n := range s.names {
		val := "false"
		if s.on[n] {
			val = "true"
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: n},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: val},
		)
	}
	return node, nil
}

func (s *Selection) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("selected: expected a mapping, got %s", value.Tag)
	}
	var out Selection
	for i := 0; i+1 < len(value.Content); i += 2 {
		var v interface{}
		if err := value.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("selected.%s: %w", value.Content[i].Value, err)
		}
		out.Set(value.Content[i].Value, truthy(v))
	}
	*s = out
	return nil
}

func (s Selection) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, n := range s.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(n)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		if s.on[n] {
			buf.WriteString(":true")
		} else {
			buf.WriteString(":false")
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Selection) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("selected: expected an object")
	}
	var out Selection
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var v interface{}
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("selected.%s: %w", name, err)
		}
		out.Set(name, truthy(v))
	}
	*s = out
	return nil
}

// truthy coerces a loosely typed persisted value to a membership flag.
func truthy(v interface{}) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != "" && x != "false" && x != "0"
	case int:
		return x != 0
	case float64:
		return x != 0
	case nil:
		return false
	default:
		return true
	}
}
