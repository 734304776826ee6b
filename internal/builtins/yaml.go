package builtins

import (
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/numen/internal/coerce"
	"github.com/funvibe/numen/internal/value"
)

func (l *Library) registerYAML() {
	l.raw("yamlEncode", []string{"value"}, false, func(args []value.Value) (value.Value, error) {
		out, err := yaml.Marshal(coerce.ToHostPlain(arg(args, 0)))
		if err != nil {
			return value.Undefined, fmt.Errorf("yamlEncode: %w", err)
		}
		return value.String(string(out)), nil
	})
	l.wrap("yamlDecode", func(src string) (value.Value, error) {
		var doc yaml.Node
		if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
			return value.Undefined, fmt.Errorf("YAML parse error: %w", err)
		}
		return fromYAML(&doc)
	}, "source")
}

// fromYAML converts a YAML node tree. Mappings keep their key order.
// Sequences of numbers become row vectors, sequences of equally long
// numeric sequences become matrices; other sequences become maps keyed by
// position.
func fromYAML(n *yaml.Node) (value.Value, error) {
	switch n.Kind {
	case 0:
		return value.Undefined, nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return value.Undefined, nil
		}
		return fromYAML(n.Content[0])
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	case yaml.MappingNode:
		m := value.NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := fromYAML(n.Content[i+1])
			if err != nil {
				return value.Undefined, err
			}
			m.Set(n.Content[i].Value, v)
		}
		return value.MapValue(m), nil
	case yaml.SequenceNode:
		if mat, ok := numericSequence(n); ok {
			return value.MatrixValue(mat), nil
		}
		m := value.NewMap()
		for i, item := range n.Content {
			v, err := fromYAML(item)
			if err != nil {
				return value.Undefined, err
			}
			m.Set(strconv.Itoa(i), v)
		}
		return value.MapValue(m), nil
	case yaml.ScalarNode:
		var x any
		if err := n.Decode(&x); err != nil {
			return value.Undefined, fmt.Errorf("YAML line %d: %w", n.Line, err)
		}
		return coerce.FromHost(x), nil
	}
	return value.Undefined, fmt.Errorf("YAML line %d: unsupported node", n.Line)
}

func numericSequence(n *yaml.Node) (*value.Matrix, bool) {
	if len(n.Content) == 0 {
		return nil, false
	}
	if row, ok := numbers(n); ok {
		return value.RowVector(row...), true
	}
	rows := make([][]float64, len(n.Content))
	for i, item := range n.Content {
		if item.Kind != yaml.SequenceNode {
			return nil, false
		}
		row, ok := numbers(item)
		if !ok || (i > 0 && len(row) != len(rows[0])) {
			return nil, false
		}
		rows[i] = row
	}
	return value.FromRows(rows), true
}

func numbers(n *yaml.Node) ([]float64, bool) {
	out := make([]float64, 0, len(n.Content))
	for _, item := range n.Content {
		if item.Kind != yaml.ScalarNode || (item.ShortTag() != "!!int" && item.ShortTag() != "!!float") {
			return nil, false
		}
		var f float64
		if err := item.Decode(&f); err != nil {
			return nil, false
		}
		out = append(out, f)
	}
	return out, len(out) > 0
}
