package api

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// DocumentFormat selects the text encoding of a raw flow document.
type DocumentFormat string

const (
	FormatJSON DocumentFormat = "json"
	FormatYAML DocumentFormat = "yaml"
)

// DecodeDocument parses a raw {nodes, edges} document as pasted by a user.
// JSON is detected by a leading '{'; anything else is read as YAML. The
// result is not validated; pass it to ValidateGraph or Store.CommitFlow.
func DecodeDocument(data []byte) (Graph, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Graph{}, fmt.Errorf("decode document: %w", ErrEmptyInput)
	}

	if trimmed[0] != '{' {
		var root yaml.Node
		if err := yaml.Unmarshal(trimmed, &root); err != nil {
			return Graph{}, fmt.Errorf("%w: yaml: %w", ErrInvalidDocument, err)
		}
		quoteEdgeHandles(&root)
		var generic any
		if err := root.Decode(&generic); err != nil {
			return Graph{}, fmt.Errorf("%w: yaml: %w", ErrInvalidDocument, err)
		}
		converted, err := json.Marshal(generic)
		if err != nil {
			return Graph{}, fmt.Errorf("%w: yaml: %w", ErrInvalidDocument, err)
		}
		trimmed = converted
	}

	var g Graph
	if err := json.Unmarshal(trimmed, &g); err != nil {
		return Graph{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return g.Clone(), nil
}

// edgeHandleKeys are edge fields that hold handle names. Unquoted true and
// false resolve to booleans in YAML but name the branches of a condition.
var edgeHandleKeys = map[string]bool{
	"sourceHandle": true,
	"targetHandle": true,
	"condition":    true,
}

// quoteEdgeHandles retags boolean handle scalars under the top-level edges
// sequence as strings.
func quoteEdgeHandles(root *yaml.Node) {
	doc := root
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc = doc.Content[0]
	}
	if doc.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(doc.Content); i += 2 {
		if doc.Content[i].Value != "edges" || doc.Content[i+1].Kind != yaml.SequenceNode {
			continue
		}
		for _, edge := range doc.Content[i+1].Content {
			quoteHandles(edge)
		}
	}
}

func quoteHandles(n *yaml.Node) {
	if n.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch {
		case key.Value == "data":
			quoteHandles(val)
		case edgeHandleKeys[key.Value] && val.Kind == yaml.ScalarNode && val.ShortTag() == "!!bool":
			val.Tag = "!!str"
			val.Value = strings.ToLower(val.Value)
		}
	}
}

// EncodeDocument renders g in the given format.
func EncodeDocument(g Graph, format DocumentFormat) ([]byte, error) {
	data, err := json.MarshalIndent(g.Clone(), "", "  ")
	if err != nil {
		return nil, err
	}
	switch format {
	case FormatJSON, "":
		return data, nil
	case FormatYAML:
		var generic any
		if err := json.Unmarshal(data, &generic); err != nil {
			return nil, err
		}
		return yaml.Marshal(generic)
	default:
		return nil, fmt.Errorf("unknown document format %q", format)
	}
}
