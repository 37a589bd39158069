package vectorstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
	"github.com/tmc/langchaingo/vectorstores/pgvector"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var pgTracer = otel.Tracer("ragchat.vectorstore.pgvector")

// metadataID carries the caller's document ID inside cmetadata.
const metadataID = "doc_id"

// PGVectorConfig configures the Postgres backend.
type PGVectorConfig struct {
	// URL is a postgres:// connection string.
	URL string
	// Schema holds both tables. It is created by Init and put first on the
	// connection search_path; empty uses the server default (public).
	Schema              string
	Collection          string
	CollectionTableName string
	EmbeddingTableName  string
	VectorSize          int
	Recreate            bool
}

// Validate validates the configuration.
func (c PGVectorConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("%w: connection URL required", ErrInvalidConfig)
	}
	if c.VectorSize <= 0 {
		return fmt.Errorf("%w: vector size required", ErrInvalidConfig)
	}
	for _, name := range []string{c.CollectionTableName, c.EmbeddingTableName} {
		if err := ValidateCollectionName(name); err != nil {
			return fmt.Errorf("table name: %w", err)
		}
	}
	if c.Schema != "" {
		if err := ValidateCollectionName(c.Schema); err != nil {
			return fmt.Errorf("schema name: %w", err)
		}
	}
	return ValidateCollectionName(c.Collection)
}

// PGVectorStore implements Store with langchaingo's pgvector store over a
// pgx pool. langchaingo reports Score as 1 - cosine distance.
type PGVectorStore struct {
	pool     *pgxpool.Pool
	embedder Embedder
	config   PGVectorConfig
	logger   *zap.Logger

	mu    sync.RWMutex
	store *pgvector.Store
}

// NewPGVectorStore opens and pings the pool. Tables are created by Init.
func NewPGVectorStore(ctx context.Context, cfg PGVectorConfig, embedder Embedder, logger *zap.Logger) (*PGVectorStore, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: embedder is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %v", ErrConnectionFailed, err)
	}

	return &PGVectorStore{pool: pool, embedder: embedder, config: cfg, logger: logger}, nil
}

// poolConfig parses the URL and scopes every connection to cfg.Schema.
// langchaingo derives index names from the table names, so tables stay
// unqualified and the schema is selected through search_path.
func poolConfig(cfg PGVectorConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing connection URL: %v", ErrInvalidConfig, err)
	}
	if cfg.Schema != "" {
		poolCfg.ConnConfig.RuntimeParams["search_path"] = pgx.Identifier{cfg.Schema}.Sanitize() + ", public"
	}
	return poolCfg, nil
}

// Init implements Store. It creates the vector extension, both tables and the
// collection row; Recreate deletes the collection's embeddings first.
func (s *PGVectorStore) Init(ctx context.Context) error {
	ctx, span := pgTracer.Start(ctx, "PGVectorStore.Init")
	defer span.End()
	span.SetAttributes(attribute.String("collection", s.config.Collection))

	if s.config.Schema != "" {
		if _, err := s.pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{s.config.Schema}.Sanitize()); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("creating schema %s: %w", s.config.Schema, err)
		}
	}

	st, err := pgvector.New(ctx,
		pgvector.WithConn(s.pool),
		pgvector.WithEmbedder(s.embedder),
		pgvector.WithCollectionName(s.config.Collection),
		pgvector.WithCollectionTableName(s.config.CollectionTableName),
		pgvector.WithEmbeddingTableName(s.config.EmbeddingTableName),
		pgvector.WithVectorDimensions(s.config.VectorSize),
		pgvector.WithPreDeleteCollection(s.config.Recreate),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("initializing pgvector tables: %w", err)
	}

	s.mu.Lock()
	s.store = &st
	s.mu.Unlock()

	s.logger.Info("pgvector store ready",
		zap.String("collection", s.config.Collection),
		zap.String("schema", s.config.Schema),
		zap.String("embedding_table", s.config.EmbeddingTableName),
		zap.Int("vector_size", s.config.VectorSize),
		zap.Bool("recreated", s.config.Recreate),
	)
	return nil
}

func (s *PGVectorStore) lc() (*pgvector.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, fmt.Errorf("%w: %s (store not initialized)", ErrCollectionNotFound, s.config.Collection)
	}
	return s.store, nil
}

// AddDocuments implements Store.
func (s *PGVectorStore) AddDocuments(ctx context.Context, docs []Document) ([]string, error) {
	ctx, span := pgTracer.Start(ctx, "PGVectorStore.AddDocuments")
	defer span.End()
	span.SetAttributes(attribute.Int("document_count", len(docs)))

	if len(docs) == 0 {
		return nil, ErrEmptyDocuments
	}
	st, err := s.lc()
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(docs))
	lcDocs := make([]schema.Document, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
		if ids[i] == "" {
			ids[i] = uuid.NewString()
		}
		meta := make(map[string]any, len(doc.Metadata)+1)
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		meta[metadataID] = ids[i]
		lcDocs[i] = schema.Document{PageContent: doc.Content, Metadata: meta}
	}

	// langchaingo always inserts fresh rows; dropping the old ones first
	// makes re-ingesting an ID replace it.
	if err := s.deleteByID(ctx, ids); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if _, err := st.AddDocuments(ctx, lcDocs); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("adding documents: %w", err)
	}
	return ids, nil
}

// Search implements Store.
func (s *PGVectorStore) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	ctx, span := pgTracer.Start(ctx, "PGVectorStore.Search")
	defer span.End()
	span.SetAttributes(attribute.Int("k", opts.K), attribute.Int("filters", len(opts.Filters)))

	if err := validateSearch(query, opts); err != nil {
		return nil, err
	}
	st, err := s.lc()
	if err != nil {
		return nil, err
	}

	var searchOpts []vectorstores.Option
	if len(opts.Filters) > 0 {
		filters := make(map[string]any, len(opts.Filters))
		for k, v := range opts.Filters {
			filters[k] = v
		}
		searchOpts = append(searchOpts, vectorstores.WithFilters(filters))
	}
	if opts.ScoreThreshold > 0 {
		searchOpts = append(searchOpts, vectorstores.WithScoreThreshold(opts.ScoreThreshold))
	}

	docs, err := st.SimilaritySearch(ctx, query, opts.K, searchOpts...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("searching collection %s: %w", s.config.Collection, err)
	}

	results := make([]SearchResult, 0, len(docs))
	for _, d := range docs {
		meta := make(map[string]interface{}, len(d.Metadata))
		var id string
		for k, v := range d.Metadata {
			if k == metadataID {
				id = stringify(v)
				continue
			}
			meta[k] = v
		}
		results = append(results, newResult(id, d.PageContent, meta, d.Score))
	}
	span.SetAttributes(attribute.Int("results_count", len(results)))
	return applyThreshold(results, opts.ScoreThreshold), nil
}

// DeleteDocuments implements Store.
func (s *PGVectorStore) DeleteDocuments(ctx context.Context, ids []string) error {
	ctx, span := pgTracer.Start(ctx, "PGVectorStore.DeleteDocuments")
	defer span.End()
	span.SetAttributes(attribute.Int("id_count", len(ids)))

	if len(ids) == 0 {
		return nil
	}
	if _, err := s.lc(); err != nil {
		return err
	}
	if err := s.deleteByID(ctx, ids); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (s *PGVectorStore) deleteByID(ctx context.Context, ids []string) error {
	sql := fmt.Sprintf(
		`DELETE FROM %s e USING %s c WHERE e.collection_id = c.uuid AND c.name = $1 AND e.cmetadata->>'%s' = ANY($2)`,
		pgx.Identifier{s.config.EmbeddingTableName}.Sanitize(),
		pgx.Identifier{s.config.CollectionTableName}.Sanitize(),
		metadataID,
	)
	if _, err := s.pool.Exec(ctx, sql, s.config.Collection, ids); err != nil {
		return fmt.Errorf("deleting documents from %s: %w", s.config.Collection, err)
	}
	return nil
}

// Count implements Store.
func (s *PGVectorStore) Count(ctx context.Context) (int, error) {
	if _, err := s.lc(); err != nil {
		return 0, err
	}
	sql := fmt.Sprintf(
		`SELECT count(*) FROM %s e JOIN %s c ON e.collection_id = c.uuid WHERE c.name = $1`,
		pgx.Identifier{s.config.EmbeddingTableName}.Sanitize(),
		pgx.Identifier{s.config.CollectionTableName}.Sanitize(),
	)
	var n int
	if err := s.pool.QueryRow(ctx, sql, s.config.Collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting collection %s: %w", s.config.Collection, err)
	}
	return n, nil
}

func (s *PGVectorStore) Provider() string { return "pgvector" }

// Close releases the pool.
func (s *PGVectorStore) Close() error {
	s.pool.Close()
	return nil
}

var _ Store = (*PGVectorStore)(nil)
