package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	backend "github.com/redis/go-redis/v9"
)

// Redis implements Store on top of redis: one JSON value per document under
// prefix:collection:id, plus a per-collection id index set. Filtering happens
// client-side after load; collections here are small and keyed, and parity
// with the memory adapter matters more than server-side querying.
type Redis struct {
	client *backend.Client
	prefix string
}

// RedisOption configures the redis store.
type RedisOption func(*Redis)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// NewRedis creates a store for the given address.
func NewRedis(address, password string, db int, opts ...RedisOption) *Redis {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisFromClient(client, opts...)
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *backend.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		client: client,
		prefix: "vaniflow:",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) docKey(collection, id string) string {
	return r.prefix + collection + ":" + id
}

func (r *Redis) indexKey(collection string) string {
	return r.prefix + collection + ":index"
}

// loadAll fetches every document in a collection.
func (r *Redis) loadAll(ctx context.Context, collection string) ([]Doc, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("listing %s ids: %w", collection, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.docKey(collection, id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("loading %s documents: %w", collection, err)
	}

	docs := make([]Doc, 0, len(values))
	for _, value := range values {
		raw, ok := value.(string)
		if !ok {
			continue // index entry without a value, skip
		}
		var doc Doc
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, fmt.Errorf("decoding %s document: %w", collection, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *Redis) save(ctx context.Context, collection string, doc Doc) error {
	id, _ := doc[IDField].(string)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding %s document: %w", collection, err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.docKey(collection, id), data, 0)
	pipe.SAdd(ctx, r.indexKey(collection), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving %s document: %w", collection, err)
	}
	return nil
}

// FindOne returns the first matching document.
func (r *Redis) FindOne(ctx context.Context, collection string, filter Doc) (Doc, error) {
	docs, err := r.loadAll(ctx, collection)
	if err != nil {
		return nil, err
	}
	for _, doc := range docs {
		if matches(doc, filter) {
			return doc, nil
		}
	}
	return nil, ErrNoDocument
}

// Find returns matching documents with sort, limit and projection applied.
func (r *Redis) Find(ctx context.Context, collection string, filter Doc, opts FindOptions) ([]Doc, error) {
	docs, err := r.loadAll(ctx, collection)
	if err != nil {
		return nil, err
	}
	var filtered []Doc
	for _, doc := range docs {
		if matches(doc, filter) {
			filtered = append(filtered, doc)
		}
	}
	sorted := sortDocs(filtered, opts.Sort)
	if opts.Limit > 0 && len(sorted) > opts.Limit {
		sorted = sorted[:opts.Limit]
	}
	return projectDocs(sorted, opts.Projection), nil
}

// InsertOne stores the document, generating an id when absent.
func (r *Redis) InsertOne(ctx context.Context, collection string, doc Doc) (string, error) {
	stored := cloneDoc(doc)
	id, ok := stored[IDField].(string)
	if !ok || id == "" {
		id = uuid.NewString()
		stored[IDField] = id
	}
	if err := r.save(ctx, collection, stored); err != nil {
		return "", err
	}
	return id, nil
}

// UpdateOne merges set into the first match, upserting when requested.
func (r *Redis) UpdateOne(ctx context.Context, collection string, filter Doc, set Doc, opts UpdateOptions) (int, error) {
	existing, err := r.FindOne(ctx, collection, filter)
	if err != nil && err != ErrNoDocument {
		return 0, err
	}

	if existing != nil {
		merged := cloneDoc(existing)
		for k, v := range set {
			merged[k] = v
		}
		if err := r.save(ctx, collection, merged); err != nil {
			return 0, err
		}
		return 1, nil
	}

	if !opts.Upsert {
		return 0, nil
	}

	inserted := Doc{}
	for k, v := range opts.SetOnInsert {
		inserted[k] = v
	}
	for k, v := range filter {
		inserted[k] = v
	}
	for k, v := range set {
		inserted[k] = v
	}
	inserted[IDField] = uuid.NewString()
	if err := r.save(ctx, collection, inserted); err != nil {
		return 0, err
	}
	return 1, nil
}

// DeleteOne removes the first matching document.
func (r *Redis) DeleteOne(ctx context.Context, collection string, filter Doc) (int, error) {
	doc, err := r.FindOne(ctx, collection, filter)
	if err == ErrNoDocument {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	id, _ := doc[IDField].(string)
	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.docKey(collection, id))
	pipe.SRem(ctx, r.indexKey(collection), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("deleting %s document: %w", collection, err)
	}
	return 1, nil
}
