package vectorstore

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"testing"
	"unicode"

	"go.uber.org/zap"
)

// KeywordEmbedder is a deterministic bag-of-words embedder for tests. Each
// non-stopword token is hashed into one of Dim buckets and the vector is
// normalized, so texts sharing words score higher.
type KeywordEmbedder struct {
	Dim int
	// Err, when set, is returned by every call.
	Err error
}

// NewKeywordEmbedder returns a KeywordEmbedder with 256 dimensions.
func NewKeywordEmbedder() *KeywordEmbedder {
	return &KeywordEmbedder{Dim: 256}
}

var testStopwords = map[string]bool{
	"quem": true, "são": true, "que": true, "qual": true, "quais": true,
	"como": true, "para": true, "com": true, "uma": true, "dos": true,
	"das": true, "nos": true, "nas": true, "por": true, "the": true,
	"and": true, "what": true, "who": true, "tem": true,
}

func (e *KeywordEmbedder) embed(text string) []float32 {
	v := make([]float32, e.Dim)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if len([]rune(w)) < 3 || testStopwords[w] {
			continue
		}
		h := fnv.New32a()
		_, _ = h.Write([]byte(w))
		v[int(h.Sum32())%e.Dim]++
	}
	var sum float64
	for _, x := range v {
		sum += float64(x * x)
	}
	if sum == 0 {
		// Avoid a zero vector; it has no defined cosine.
		v[0] = 1
		return v
	}
	norm := float32(1 / math.Sqrt(sum))
	for i := range v {
		v[i] *= norm
	}
	return v
}

func (e *KeywordEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.embed(t)
	}
	return out, nil
}

func (e *KeywordEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	return e.embed(text), nil
}

func (e *KeywordEmbedder) Dimension() int { return e.Dim }

// NewTestStore returns an initialized in-memory chromem store backed by a
// KeywordEmbedder, seeded with docs.
func NewTestStore(tb testing.TB, docs ...Document) Store {
	tb.Helper()
	store, err := NewChromemStore(ChromemConfig{Collection: "test_documents"}, NewKeywordEmbedder(), zap.NewNop())
	if err != nil {
		tb.Fatalf("creating test store: %v", err)
	}
	if err := store.Init(context.Background()); err != nil {
		tb.Fatalf("initializing test store: %v", err)
	}
	if len(docs) > 0 {
		if _, err := store.AddDocuments(context.Background(), docs); err != nil {
			tb.Fatalf("seeding test store: %v", err)
		}
	}
	tb.Cleanup(func() { _ = store.Close() })
	return store
}
