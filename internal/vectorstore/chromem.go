package vectorstore

import (
	"context"
	"fmt"
	"math"
	"os"
	"sync"

	"github.com/google/uuid"
	chromem "github.com/philippgille/chromem-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var chromemTracer = otel.Tracer("ragchat.vectorstore.chromem")

// ChromemConfig configures the embedded store.
type ChromemConfig struct {
	// Path is the persistence directory. Empty keeps everything in memory.
	Path       string
	Compress   bool
	Collection string
	Recreate   bool
}

// ChromemStore implements Store with chromem-go. chromem only stores string
// metadata, so numbers and bools come back as strings.
type ChromemStore struct {
	db       *chromem.DB
	embedder Embedder
	config   ChromemConfig
	logger   *zap.Logger

	mu         sync.RWMutex
	collection *chromem.Collection
}

// NewChromemStore opens (or creates) the database. Call Init before use.
func NewChromemStore(cfg ChromemConfig, embedder Embedder, logger *zap.Logger) (*ChromemStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := ValidateCollectionName(cfg.Collection); err != nil {
		return nil, err
	}

	var db *chromem.DB
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", cfg.Path, err)
		}
		var err error
		db, err = chromem.NewPersistentDB(cfg.Path, cfg.Compress)
		if err != nil {
			return nil, fmt.Errorf("creating chromem DB: %w", err)
		}
	}

	logger.Info("chromem store opened",
		zap.String("path", cfg.Path),
		zap.Bool("persistent", cfg.Path != ""),
		zap.String("collection", cfg.Collection),
	)

	return &ChromemStore{db: db, embedder: embedder, config: cfg, logger: logger}, nil
}

// embeddingFunc must always be passed to chromem; a nil func makes it fall
// back to its own OpenAI client for persisted collections.
func (s *ChromemStore) embeddingFunc() chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return s.embedder.EmbedQuery(ctx, text)
	}
}

// Init implements Store.
func (s *ChromemStore) Init(ctx context.Context) error {
	_, span := chromemTracer.Start(ctx, "ChromemStore.Init")
	defer span.End()
	span.SetAttributes(attribute.String("collection", s.config.Collection))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config.Recreate {
		if err := s.db.DeleteCollection(s.config.Collection); err != nil {
			span.RecordError(err)
			return fmt.Errorf("deleting collection %s: %w", s.config.Collection, err)
		}
		s.logger.Info("dropped chromem collection", zap.String("collection", s.config.Collection))
	}

	col, err := s.db.GetOrCreateCollection(s.config.Collection, nil, s.embeddingFunc())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("getting/creating collection %s: %w", s.config.Collection, err)
	}
	s.collection = col
	return nil
}

func (s *ChromemStore) col() (*chromem.Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.collection == nil {
		return nil, fmt.Errorf("%w: %s (store not initialized)", ErrCollectionNotFound, s.config.Collection)
	}
	return s.collection, nil
}

// AddDocuments implements Store.
func (s *ChromemStore) AddDocuments(ctx context.Context, docs []Document) ([]string, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.AddDocuments")
	defer span.End()
	span.SetAttributes(attribute.Int("document_count", len(docs)))

	if len(docs) == 0 {
		return nil, ErrEmptyDocuments
	}
	col, err := s.col()
	if err != nil {
		return nil, err
	}

	texts := make([]string, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
		ids[i] = doc.ID
		if ids[i] == "" {
			ids[i] = uuid.NewString()
		}
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("%w: got %d vectors for %d documents", ErrEmbeddingFailed, len(vectors), len(docs))
	}

	chromemDocs := make([]chromem.Document, len(docs))
	for i, doc := range docs {
		chromemDocs[i] = chromem.Document{
			ID:        ids[i],
			Content:   doc.Content,
			Metadata:  metadataToStrings(doc.Metadata),
			Embedding: normalize(vectors[i]),
		}
	}

	// Embeddings are precomputed, so one worker is enough.
	if err := col.AddDocuments(ctx, chromemDocs, 1); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("adding documents: %w", err)
	}

	s.logger.Debug("added documents to chromem",
		zap.String("collection", s.config.Collection),
		zap.Int("count", len(docs)),
	)
	return ids, nil
}

// Search implements Store. chromem reports cosine similarity directly.
func (s *ChromemStore) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.Search")
	defer span.End()
	span.SetAttributes(attribute.Int("k", opts.K), attribute.Int("filters", len(opts.Filters)))

	if err := validateSearch(query, opts); err != nil {
		return nil, err
	}
	col, err := s.col()
	if err != nil {
		return nil, err
	}

	// chromem rejects nResults larger than the collection.
	k := opts.K
	count := col.Count()
	if count == 0 {
		return []SearchResult{}, nil
	}
	if k > count {
		k = count
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrEmbeddingFailed, err)
	}

	var where map[string]string
	if len(opts.Filters) > 0 {
		where = opts.Filters
	}

	hits, err := col.QueryEmbedding(ctx, normalize(vector), k, where, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("querying collection %s: %w", s.config.Collection, err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		results = append(results, newResult(h.ID, h.Content, metadataFromStrings(h.Metadata), h.Similarity))
	}
	results = applyThreshold(results, opts.ScoreThreshold)

	span.SetAttributes(attribute.Int("results_count", len(results)))
	return results, nil
}

// DeleteDocuments implements Store.
func (s *ChromemStore) DeleteDocuments(ctx context.Context, ids []string) error {
	ctx, span := chromemTracer.Start(ctx, "ChromemStore.DeleteDocuments")
	defer span.End()
	span.SetAttributes(attribute.Int("id_count", len(ids)))

	if len(ids) == 0 {
		return nil
	}
	col, err := s.col()
	if err != nil {
		return err
	}
	if err := col.Delete(ctx, nil, nil, ids...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("deleting from collection %s: %w", s.config.Collection, err)
	}
	return nil
}

// Count implements Store.
func (s *ChromemStore) Count(_ context.Context) (int, error) {
	col, err := s.col()
	if err != nil {
		return 0, err
	}
	return col.Count(), nil
}

func (s *ChromemStore) Provider() string { return "chromem" }

// Close is a no-op; persistent DBs write on every change.
func (s *ChromemStore) Close() error {
	return nil
}

// normalize scales v to unit length; chromem's similarity is a dot product.
func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 || math.Abs(sum-1) < 1e-6 {
		return v
	}
	norm := float32(1 / math.Sqrt(sum))
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x * norm
	}
	return out
}

var _ Store = (*ChromemStore)(nil)
