package persistence

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/petrijr/flowkit/pkg/api"
)

// ErrCorrupt is returned when a stored document cannot be encoded or
// decoded. It is never classified as api.ErrNetwork.
var ErrCorrupt = errors.New("corrupt flow document")

// EncodeGraph serializes a graph for storage in a single column or key.
// An empty graph is stored as {"nodes":[],"edges":[]}.
func EncodeGraph(g api.Graph) ([]byte, error) {
	data, err := json.Marshal(g.Clone())
	if err != nil {
		return nil, fmt.Errorf("%w: encode graph: %w", ErrCorrupt, err)
	}
	return data, nil
}

// DecodeGraph is the inverse of EncodeGraph. Empty input decodes to an
// empty graph.
func DecodeGraph(data []byte) (api.Graph, error) {
	if len(data) == 0 {
		return api.Graph{}.Clone(), nil
	}
	var g api.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return api.Graph{}, fmt.Errorf("%w: decode graph: %w", ErrCorrupt, err)
	}
	return g.Clone(), nil
}

// EncodeFlow serializes a whole flow document.
func EncodeFlow(f *api.Flow) ([]byte, error) {
	data, err := json.Marshal(f.Clone())
	if err != nil {
		return nil, fmt.Errorf("%w: encode flow: %w", ErrCorrupt, err)
	}
	return data, nil
}

// DecodeFlow is the inverse of EncodeFlow.
func DecodeFlow(data []byte) (*api.Flow, error) {
	var f api.Flow
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: decode flow: %w", ErrCorrupt, err)
	}
	return f.Clone(), nil
}
