package index

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	chromem "github.com/philippgille/chromem-go"
	openai "github.com/sashabaranov/go-openai"
)

// EmbeddingFunc produces a unit-length vector for a text. It matches
// chromem-go's embedding function signature so the same function can be
// handed to the vector store and used for query embeddings.
type EmbeddingFunc = chromem.EmbeddingFunc

// NewOpenAIEmbedding returns an embedding function backed by the OpenAI
// embeddings API. The model identity is pinned per index; mixing models
// between build and query corrupts ranking silently.
func NewOpenAIEmbedding(client *openai.Client, model string) EmbeddingFunc {
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return func(ctx context.Context, text string) ([]float32, error) {
		resp, err := client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Model: openai.EmbeddingModel(model),
			Input: []string{text},
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return nil, ErrRetrievalUnavailable
		}
		return resp.Data[0].Embedding, nil
	}
}

const localDimension = 256

// NewLocalEmbedding returns a deterministic feature-hashed bag-of-words
// embedding. It needs no network access and is used for tests and offline
// runs. Tokens are lowercased, hashed into a fixed number of buckets and
// the resulting vector is L2-normalized, so identical texts always map to
// identical unit vectors and token overlap raises cosine similarity.
func NewLocalEmbedding() EmbeddingFunc {
	return func(_ context.Context, text string) ([]float32, error) {
		vec := make([]float32, localDimension)
		for _, tok := range tokenize(text) {
			h := fnv.New32a()
			h.Write([]byte(tok))
			vec[h.Sum32()%localDimension]++
		}
		return normalize(vec), nil
	}
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func normalize(vec []float32) []float32 {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return vec
	}
	norm := float32(math.Sqrt(sum))
	for i, v := range vec {
		vec[i] = v / norm
	}
	return vec
}
