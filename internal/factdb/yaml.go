package factdb

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/htn/internal/compiler"
)

// World is the YAML world file format:
//
//	facts:
//	  start: [[1]]
//	  short_distance:
//	    - [1, 2]
//	    - [2, 3]
//
// Rows are loaded in file order.
type World struct {
	Facts yaml.Node `yaml:"facts"`
}

// LoadYAML reads a world file into a new Memory for dom.
func LoadYAML(r io.Reader, dom *compiler.Domain) (*Memory, error) {
	m := NewMemory(dom)
	if err := m.LoadYAML(r); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadYAML appends the facts of a world file.
func (m *Memory) LoadYAML(r io.Reader) error {
	var w World
	if err := yaml.NewDecoder(r).Decode(&w); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("decode world: %w", err)
	}
	return m.AddYAML(&w.Facts)
}

// AddYAML appends facts from a decoded "facts" mapping node. Harness
// scenarios embed the same mapping.
func (m *Memory) AddYAML(node *yaml.Node) error {
	if node.Kind == 0 {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: facts must be a mapping of fact name to rows", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var rows [][]any
		if err := node.Content[i+1].Decode(&rows); err != nil {
			return fmt.Errorf("line %d: fact %s: %w", node.Content[i+1].Line, name, err)
		}
		for _, row := range rows {
			if err := m.Add(name, row...); err != nil {
				return fmt.Errorf("line %d: %w", node.Content[i+1].Line, err)
			}
		}
	}
	return nil
}
