package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrCollectionNotFound is returned when a collection does not exist.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmptyDocuments indicates empty or nil documents.
	ErrEmptyDocuments = errors.New("empty or nil documents")

	// ErrEmptyQuery indicates a blank search query.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrConnectionFailed indicates the backend could not be reached.
	ErrConnectionFailed = errors.New("failed to connect to vector store")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("failed to generate embeddings")

	// ErrInvalidCollectionName indicates collection name validation failure.
	ErrInvalidCollectionName = errors.New("invalid collection name")
)

// Embedder generates vector embeddings from text. The method set matches
// langchaingo's embeddings.Embedder so either can be passed where the other
// is expected.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Dimensioner is implemented by embedders that know their vector size.
type Dimensioner interface {
	Dimension() int
}

// SearchOptions narrows a similarity search.
type SearchOptions struct {
	// K is the maximum number of results. Must be positive.
	K int
	// Filters keeps documents whose metadata equals every key/value pair.
	Filters map[string]string
	// ScoreThreshold drops results with Score below it. Zero disables it.
	ScoreThreshold float32
}

// Store is a vector index over one collection.
type Store interface {
	// Init creates the collection if needed. With recreate configured it
	// drops existing contents first.
	Init(ctx context.Context) error

	// AddDocuments embeds and stores docs, returning their IDs. Documents
	// without an ID get a UUID.
	AddDocuments(ctx context.Context, docs []Document) ([]string, error)

	// Search returns at most opts.K results ordered best first. An empty
	// index returns an empty slice and no error.
	Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error)

	// DeleteDocuments removes documents by ID. Unknown IDs are ignored.
	DeleteDocuments(ctx context.Context, ids []string) error

	// Count returns the number of stored documents.
	Count(ctx context.Context) (int, error)

	// Provider names the backend ("chromem", "pgvector", "qdrant").
	Provider() string

	Close() error
}

var collectionNamePattern = regexp.MustCompile(`^[a-z0-9_]{1,64}$`)

// ValidateCollectionName rejects names outside ^[a-z0-9_]{1,64}$. Names end
// up in SQL identifiers and file paths.
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name cannot be empty", ErrInvalidCollectionName)
	}
	if !collectionNamePattern.MatchString(name) {
		return fmt.Errorf("%w: collection name must match pattern ^[a-z0-9_]{1,64}$, got %q", ErrInvalidCollectionName, name)
	}
	return nil
}

func validateSearch(query string, opts SearchOptions) error {
	if query == "" {
		return ErrEmptyQuery
	}
	if opts.K <= 0 {
		return fmt.Errorf("k must be positive, got %d", opts.K)
	}
	if opts.ScoreThreshold < 0 || opts.ScoreThreshold > 1 {
		return fmt.Errorf("score threshold must be between 0 and 1, got %f", opts.ScoreThreshold)
	}
	return nil
}

// applyThreshold drops results scoring below t. Input order is kept.
func applyThreshold(results []SearchResult, t float32) []SearchResult {
	if t <= 0 {
		return results
	}
	kept := results[:0]
	for _, r := range results {
		if r.Score >= t {
			kept = append(kept, r)
		}
	}
	return kept
}
