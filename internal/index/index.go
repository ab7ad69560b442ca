// Package index wraps a persistent chromem-go vector store behind the
// embedding index used for tool retrieval. The store is opened once per
// process and treated as append-mostly: new catalog entries trigger a
// re-index of the collection, never a destructive rebuild.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	chromem "github.com/philippgille/chromem-go"
)

// ErrRetrievalUnavailable reports that the embedding backend or the vector
// store cannot serve a request. Callers disable RAG narrowing for the query
// instead of failing it.
var ErrRetrievalUnavailable = errors.New("retrieval unavailable")

// Entry is one indexable document: a tool name and the searchable text blob
// derived from its descriptor.
type Entry struct {
	ID   string
	Text string
}

// Neighbor is a nearest-neighbor result. Distance is L2 between unit
// vectors, so it ranges from 0 (identical) to 2 (opposite).
type Neighbor struct {
	ID       string
	Distance float64
}

// Index is an embedding index over tool descriptors. The embedding function
// is pinned at construction and used for both build and query.
type Index struct {
	collection *chromem.Collection
	logger     *slog.Logger
}

// Options configures index construction.
type Options struct {
	// PersistPath is the directory backing the store. Empty means a pure
	// in-memory store (tests).
	PersistPath string
	// Collection is the collection name. Defaults to "tool_descriptions".
	Collection string
	// Embedding computes vectors for build and query. Required.
	Embedding EmbeddingFunc
}

// New opens (or creates) the vector store and its collection.
func New(opts Options, logger *slog.Logger) (*Index, error) {
	if opts.Embedding == nil {
		return nil, fmt.Errorf("embedding function is required")
	}
	if opts.Collection == "" {
		opts.Collection = "tool_descriptions"
	}

	var db *chromem.DB
	var err error
	if opts.PersistPath != "" {
		db, err = chromem.NewPersistentDB(opts.PersistPath, false)
		if err != nil {
			return nil, fmt.Errorf("open persistent vector store: %w", err)
		}
	} else {
		db = chromem.NewDB()
	}

	collection, err := db.GetOrCreateCollection(opts.Collection, nil, opts.Embedding)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", opts.Collection, err)
	}

	logger.Info("Vector store ready",
		"collection", opts.Collection,
		"persisted", opts.PersistPath != "",
		"indexed", collection.Count())

	return &Index{collection: collection, logger: logger}, nil
}

// Build indexes all entries. It is idempotent: when the stored document
// count already matches the entry count the call is a no-op, so process
// restarts reuse the persisted vectors instead of re-embedding.
func (ix *Index) Build(ctx context.Context, entries []Entry) error {
	if ix.collection.Count() == len(entries) {
		ix.logger.Info("Index already built", "entries", len(entries))
		return nil
	}

	ix.logger.Info("Indexing entries", "entries", len(entries), "stored", ix.collection.Count())

	for _, e := range entries {
		err := ix.collection.AddDocument(ctx, chromem.Document{
			ID:      e.ID,
			Content: e.Text,
		})
		if err != nil {
			return fmt.Errorf("%w: index %s: %v", ErrRetrievalUnavailable, e.ID, err)
		}
	}

	ix.logger.Info("Index built", "indexed", ix.collection.Count())
	return nil
}

// Count returns the number of indexed documents.
func (ix *Index) Count() int {
	return ix.collection.Count()
}

// Query embeds text and returns the k nearest stored vectors, closest
// first. k is clamped to the number of stored documents.
func (ix *Index) Query(ctx context.Context, text string, k int) ([]Neighbor, error) {
	count := ix.collection.Count()
	if count == 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}
	if k <= 0 {
		return nil, nil
	}

	results, err := ix.collection.Query(ctx, text, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrRetrievalUnavailable, err)
	}

	neighbors := make([]Neighbor, len(results))
	for i, r := range results {
		neighbors[i] = Neighbor{ID: r.ID, Distance: distanceFromSimilarity(r.Similarity)}
	}
	return neighbors, nil
}

// distanceFromSimilarity converts cosine similarity to L2 distance between
// unit vectors: d² = 2(1-cos). Stored and query vectors are normalized, so
// the two metrics are interchangeable.
func distanceFromSimilarity(sim float32) float64 {
	d2 := 2 * (1 - float64(sim))
	if d2 < 0 {
		d2 = 0
	}
	return math.Sqrt(d2)
}
