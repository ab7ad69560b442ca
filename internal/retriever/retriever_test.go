package retriever

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agenkampus/agenkampus/internal/catalog"
	"github.com/agenkampus/agenkampus/internal/index"
)

const testCatalog = `[
  {
    "name": "get_time",
    "description": "Get the current date and time.",
    "category": "utility",
    "keywords": ["time", "clock"],
    "examples": ["What time is it?"],
    "server": "utilitas",
    "input_schema": {}
  },
  {
    "name": "get_advisor",
    "description": "Find the academic advisor of a student.",
    "category": "academic",
    "keywords": ["advisor", "pembimbing"],
    "examples": ["Who is the advisor of Agus Setiawan?"],
    "server": "akademik",
    "input_schema": {
      "properties": {"name": {"type": "string"}},
      "required": ["name"]
    }
  }
]`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestRetriever(t *testing.T) *Retriever {
	t.Helper()

	cat, err := catalog.Parse(strings.NewReader(testCatalog))
	require.NoError(t, err)

	ix, err := index.New(index.Options{Embedding: index.NewLocalEmbedding()}, quietLogger())
	require.NoError(t, err)

	ret := New(cat, ix, quietLogger())
	require.NoError(t, ret.BuildIndex(context.Background()))
	return ret
}

func TestRetrieve_RankingOrder(t *testing.T) {
	ret := newTestRetriever(t)
	ctx := context.Background()

	hits, err := ret.Retrieve(ctx, "What time is it?", 2, 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "get_time", hits[0].Tool.Name)
	require.Equal(t, 1, hits[0].Rank)
	require.Equal(t, "get_advisor", hits[1].Tool.Name)
	require.Equal(t, 2, hits[1].Rank)
	require.Greater(t, hits[0].Score, hits[1].Score)

	hits, err = ret.Retrieve(ctx, "Who is the advisor of Agus Setiawan?", 2, 0)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, "get_advisor", hits[0].Tool.Name)
	require.Equal(t, "get_time", hits[1].Tool.Name)
}

func TestRetrieve_IdenticalTextScoresOne(t *testing.T) {
	ret := newTestRetriever(t)

	blob := catalog.SearchableText(ret.catalog.Get("get_time"))
	hits, err := ret.Retrieve(context.Background(), blob, 1, 0)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "get_time", hits[0].Tool.Name)
	require.InDelta(t, 1.0, hits[0].Score, 1e-3)
}

func TestRetrieve_ThresholdFilterIsSubset(t *testing.T) {
	ret := newTestRetriever(t)
	ctx := context.Background()

	all, err := ret.Retrieve(ctx, "What time is it?", 5, 0.0)
	require.NoError(t, err)

	filtered, err := ret.Retrieve(ctx, "What time is it?", 5, 0.99)
	require.NoError(t, err)

	// A higher threshold may only shrink the result set.
	require.LessOrEqual(t, len(filtered), len(all))
	allNames := make(map[string]bool)
	for _, h := range all {
		allNames[h.Tool.Name] = true
	}
	for _, h := range filtered {
		require.True(t, allNames[h.Tool.Name])
		require.GreaterOrEqual(t, h.Score, 0.99)
	}
}

func TestRetrieve_StaleIndexEntrySkipped(t *testing.T) {
	cat, err := catalog.Parse(strings.NewReader(testCatalog))
	require.NoError(t, err)

	ix, err := index.New(index.Options{Embedding: index.NewLocalEmbedding()}, quietLogger())
	require.NoError(t, err)

	// Index an entry the catalog no longer knows about.
	ctx := context.Background()
	entries := []index.Entry{
		{ID: "get_time", Text: catalog.SearchableText(cat.Get("get_time"))},
		{ID: "get_advisor", Text: catalog.SearchableText(cat.Get("get_advisor"))},
		{ID: "ghost_tool", Text: "Tool: ghost_tool Description: What time is it? time clock"},
	}
	require.NoError(t, ix.Build(ctx, entries))

	ret := New(cat, ix, quietLogger())
	hits, err := ret.Retrieve(ctx, "What time is it?", 3, 0)
	require.NoError(t, err)

	// Every hit resolves to a catalog entry; the stale id is dropped,
	// and ranks stay contiguous.
	require.Len(t, hits, 2)
	for i, h := range hits {
		require.NotNil(t, cat.Get(h.Tool.Name))
		require.Equal(t, i+1, h.Rank)
	}
}

func TestRetrieve_EmptyResultIsValid(t *testing.T) {
	ret := newTestRetriever(t)

	hits, err := ret.Retrieve(context.Background(), "zzz qqq xxx", 2, 0.99)
	require.NoError(t, err)
	require.Empty(t, hits)
}
