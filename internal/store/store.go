// Package store defines the document persistence port and its adapters.
//
// Collections are keyed sets of flat JSON documents. Filters are equality
// maps; sorting, limiting and projection cover everything the handlers need.
// Two adapters exist: an in-process map-backed store for development and
// tests, and a redis-backed store for deployments. Both satisfy the same
// contract test.
package store

import (
	"context"
	"errors"
)

// Collection names used by the service.
const (
	CollectionUsers          = "users"
	CollectionUserAccounts   = "user_accounts"
	CollectionChatbots       = "chatbots"
	CollectionChatbotFlows   = "chatbot_flows"
	CollectionFlowActionLogs = "flow_action_logs"
	CollectionQueryAnalytics = "query_analytics"
)

// IDField is the generated primary key on every document.
const IDField = "_id"

// ErrNoDocument is returned by FindOne when nothing matches the filter.
var ErrNoDocument = errors.New("no document matches the filter")

// Doc is one stored document.
type Doc = map[string]any

// FindOptions tune a Find call.
type FindOptions struct {
	// Sort maps field name to direction: 1 ascending, -1 descending.
	// Fields are applied in arbitrary order, so callers sort on one field.
	Sort map[string]int

	// Limit caps the result set; 0 means no limit.
	Limit int

	// Projection lists the fields to keep. Empty keeps everything.
	// The document id is always included.
	Projection []string
}

// UpdateOptions tune an UpdateOne call.
type UpdateOptions struct {
	// Upsert inserts a document built from the filter, the set fields and
	// SetOnInsert when nothing matches.
	Upsert bool

	// SetOnInsert adds fields only when the upsert path inserts.
	SetOnInsert Doc
}

// Store is the narrow persistence interface the rest of the service depends
// on. Swapping backends must never change call sites.
type Store interface {
	// FindOne returns the first document matching the filter, or
	// ErrNoDocument.
	FindOne(ctx context.Context, collection string, filter Doc) (Doc, error)

	// Find returns all matching documents, honoring sort, limit and
	// projection.
	Find(ctx context.Context, collection string, filter Doc, opts FindOptions) ([]Doc, error)

	// InsertOne stores the document, generating an id when absent, and
	// returns the id.
	InsertOne(ctx context.Context, collection string, doc Doc) (string, error)

	// UpdateOne merges set into the first matching document. With
	// opts.Upsert it inserts when nothing matches. Returns the number of
	// documents written.
	UpdateOne(ctx context.Context, collection string, filter Doc, set Doc, opts UpdateOptions) (int, error)

	// DeleteOne removes the first matching document and returns the number
	// of documents removed.
	DeleteOne(ctx context.Context, collection string, filter Doc) (int, error)
}
