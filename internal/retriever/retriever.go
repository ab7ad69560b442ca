// Package retriever turns a free-text query into a ranked shortlist of
// catalog tools using the embedding index.
package retriever

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agenkampus/agenkampus/internal/catalog"
	"github.com/agenkampus/agenkampus/internal/index"
)

// Hit is one retrieval result. Score is a bounded similarity derived from
// vector distance (1.0 = identical, -1.0 = opposite); Rank is the 1-based
// position in the returned ranking.
type Hit struct {
	Tool  *catalog.ToolDescriptor
	Score float64
	Rank  int
}

// Retriever ranks the tool catalog by semantic relevance to a query.
type Retriever struct {
	catalog *catalog.Catalog
	index   *index.Index
	logger  *slog.Logger
}

// New creates a retriever over a catalog and a built index.
func New(cat *catalog.Catalog, ix *index.Index, logger *slog.Logger) *Retriever {
	return &Retriever{catalog: cat, index: ix, logger: logger}
}

// BuildIndex indexes the full catalog. Safe to call on every startup; the
// underlying index skips the embedding pass when it is already populated.
func (r *Retriever) BuildIndex(ctx context.Context) error {
	entries := make([]index.Entry, 0, r.catalog.Len())
	for _, d := range r.catalog.All() {
		entries = append(entries, index.Entry{ID: d.Name, Text: catalog.SearchableText(d)})
	}
	return r.index.Build(ctx, entries)
}

// Retrieve returns the topK most relevant tools for query, most relevant
// first, dropping hits whose similarity falls below scoreThreshold. Index
// ids with no catalog entry (stale index) are skipped rather than surfaced.
// An empty result is valid and means no tool is relevant.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int, scoreThreshold float64) ([]Hit, error) {
	neighbors, err := r.index.Query(ctx, query, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieve %q: %w", query, err)
	}

	hits := make([]Hit, 0, len(neighbors))
	for _, n := range neighbors {
		// L2 distance between unit vectors back to cosine similarity.
		similarity := 1 - n.Distance*n.Distance/2
		if similarity < scoreThreshold {
			continue
		}

		tool := r.catalog.Get(n.ID)
		if tool == nil {
			r.logger.Debug("Skipping stale index entry", "id", n.ID)
			continue
		}

		hits = append(hits, Hit{Tool: tool, Score: similarity, Rank: len(hits) + 1})
	}

	r.logger.Info("Retrieval completed", "query", query, "hits", len(hits))
	return hits, nil
}
