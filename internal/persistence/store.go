package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/petrijr/flowkit/pkg/api"
)

// FlowStore is the storage service of flow documents. Every backend in this
// package implements it; the graph store only needs FetchFlow and
// PersistFlow.
//
// Errors match api.ErrNotFound for unknown ids and api.ErrNetwork for
// transport failures.
type FlowStore interface {
	// ListFlows returns every flow ordered by creation time.
	ListFlows(ctx context.Context) ([]*api.Flow, error)

	// FetchFlow returns the flow document with the given id.
	FetchFlow(ctx context.Context, id string) (*api.Flow, error)

	// CreateFlow creates an empty draft flow. Blank names are rejected with
	// api.ErrEmptyInput.
	CreateFlow(ctx context.Context, name string) (*api.Flow, error)

	// PersistFlow replaces the writable attributes of a flow and returns the
	// stored document.
	PersistFlow(ctx context.Context, id string, attrs api.FlowAttributes) (*api.Flow, error)

	// DeleteFlow removes a flow. Deleting an unknown id returns api.ErrNotFound.
	DeleteFlow(ctx context.Context, id string) error
}

// newFlow builds the document CreateFlow stores for name.
func newFlow(name string, now time.Time) (*api.Flow, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("create flow: %w", api.ErrEmptyInput)
	}
	now = now.UTC().Truncate(time.Millisecond)
	return &api.Flow{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    api.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
		Data:      api.Graph{}.Clone(),
	}, nil
}

// applyAttributes returns a copy of f with attrs written over it.
func applyAttributes(f *api.Flow, attrs api.FlowAttributes, now time.Time) *api.Flow {
	out := f.Clone()
	out.Name = attrs.Name
	out.Status = attrs.Status
	if out.Status == "" {
		out.Status = api.StatusDraft
	}
	out.Published = attrs.Published
	out.Data = attrs.Data.Clone()
	out.UpdatedAt = now.UTC().Truncate(time.Millisecond)
	return out
}

func sortFlows(flows []*api.Flow) {
	sort.SliceStable(flows, func(i, j int) bool {
		if flows[i].CreatedAt.Equal(flows[j].CreatedAt) {
			return flows[i].ID < flows[j].ID
		}
		return flows[i].CreatedAt.Before(flows[j].CreatedAt)
	})
}

func notFound(id string) error {
	return fmt.Errorf("flow %q: %w", id, api.ErrNotFound)
}

// unavailable tags a driver or connection failure with api.ErrNetwork.
// Missing-row sentinels and errors already classified pass through.
func unavailable(err error) error {
	switch {
	case err == nil,
		errors.Is(err, sql.ErrNoRows),
		errors.Is(err, redis.Nil),
		errors.Is(err, mongo.ErrNoDocuments),
		errors.Is(err, api.ErrNotFound),
		errors.Is(err, api.ErrNetwork),
		errors.Is(err, ErrCorrupt):
		return err
	}
	return fmt.Errorf("%w: %w", api.ErrNetwork, err)
}
