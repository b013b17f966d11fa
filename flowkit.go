package flowkit

import (
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/petrijr/flowkit/internal/mutation"
	"github.com/petrijr/flowkit/internal/persistence"
	"github.com/petrijr/flowkit/internal/wizard"
	"github.com/petrijr/flowkit/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Flow                 = api.Flow
	FlowAttributes       = api.FlowAttributes
	Graph                = api.Graph
	Node                 = api.Node
	NodeData             = api.NodeData
	NodeKind             = api.NodeKind
	NodeSpec             = api.NodeSpec
	NodeConfig           = api.NodeConfig
	Edge                 = api.Edge
	EdgeData             = api.EdgeData
	Position             = api.Position
	Status               = api.Status
	Snapshot             = api.Snapshot
	RetryPolicy          = api.RetryPolicy
	Observer             = api.Observer
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	CompositeObserver    = api.CompositeObserver
	NoopObserver         = api.NoopObserver

	TriggerConfig   = api.TriggerConfig
	ActionConfig    = api.ActionConfig
	ConditionConfig = api.ConditionConfig
	DelayConfig     = api.DelayConfig
	WebhookConfig   = api.WebhookConfig

	// FlowStore is the storage service a Session loads and saves flows
	// through.
	FlowStore   = persistence.FlowStore
	HTTPOptions = persistence.HTTPOptions

	NodePatch = mutation.NodePatch
	Wizard    = wizard.Wizard
)

// Re-export common observer helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
)

// Re-export node kinds and statuses for convenience.

const (
	KindTrigger   = api.KindTrigger
	KindAction    = api.KindAction
	KindCondition = api.KindCondition
	KindDelay     = api.KindDelay
	KindWebhook   = api.KindWebhook

	StatusDraft     = api.StatusDraft
	StatusPublished = api.StatusPublished
)

// Storage constructors.
// These wrap the internal/persistence package so external callers
// never need to import internal packages.

// NewInMemoryStore returns a FlowStore that keeps flows in process memory.
func NewInMemoryStore() FlowStore {
	return persistence.NewInMemoryFlowStore()
}

// NewSQLiteStore returns a FlowStore that keeps flows in a SQLite database.
func NewSQLiteStore(db *sql.DB) (FlowStore, error) {
	s, err := persistence.NewSQLiteFlowStore(db)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewPostgresStore returns a FlowStore that keeps flows in PostgreSQL.
func NewPostgresStore(db *sql.DB) (FlowStore, error) {
	s, err := persistence.NewPostgresFlowStore(db)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewRedisStore returns a FlowStore that keeps flows in Redis under prefix.
func NewRedisStore(client *redis.Client, prefix string) FlowStore {
	return persistence.NewRedisFlowStore(client, prefix)
}

// NewMongoStore returns a FlowStore backed by a MongoDB collection.
func NewMongoStore(client *mongo.Client, database, collection string) FlowStore {
	return persistence.NewMongoFlowStore(client, database, collection)
}

// NewHTTPStore returns a FlowStore that talks to a remote flow service.
func NewHTTPStore(opts HTTPOptions) (FlowStore, error) {
	s, err := persistence.NewHTTPFlowStore(opts)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Document helpers.

// DecodeDocument parses a pasted JSON or YAML {nodes, edges} document.
func DecodeDocument(data []byte) (Graph, error) {
	return api.DecodeDocument(data)
}

// EncodeJSON exports g as a JSON document.
func EncodeJSON(g Graph) ([]byte, error) {
	return api.EncodeDocument(g, api.FormatJSON)
}

// EncodeYAML exports g as a YAML document.
func EncodeYAML(g Graph) ([]byte, error) {
	return api.EncodeDocument(g, api.FormatYAML)
}

// ValidateGraph checks every node and edge of g.
func ValidateGraph(g Graph) error {
	return api.ValidateGraph(g)
}
