package vectorstore

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/ragchat/internal/config"
	"go.uber.org/zap"
)

// NewStore builds the configured backend and wraps it with metrics. It does
// not call Init.
//
//	store, err := vectorstore.NewStore(ctx, cfg.VectorStore, embedder, logger)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//	if err := store.Init(ctx); err != nil {
//	    return err
//	}
//
// The vector size comes from the embedder when it implements Dimensioner.
func NewStore(ctx context.Context, cfg config.VectorStoreConfig, embedder Embedder, logger *zap.Logger) (Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	dim := 0
	if d, ok := embedder.(Dimensioner); ok {
		dim = d.Dimension()
	}

	var (
		store Store
		err   error
	)
	switch cfg.Provider {
	case "chromem", "":
		store, err = NewChromemStore(ChromemConfig{
			Path:       config.ExpandPath(cfg.ChromemPath),
			Compress:   cfg.ChromemCompress,
			Collection: cfg.Collection,
			Recreate:   cfg.Recreate,
		}, embedder, logger)

	case "pgvector":
		store, err = NewPGVectorStore(ctx, PGVectorConfig{
			URL:                 cfg.PgvectorURL.Value(),
			Schema:              cfg.PgvectorSchema,
			Collection:          cfg.Collection,
			CollectionTableName: cfg.PgvectorCollectionTable,
			EmbeddingTableName:  cfg.PgvectorEmbeddingTable,
			VectorSize:          dim,
			Recreate:            cfg.Recreate,
		}, embedder, logger)

	case "qdrant":
		store, err = NewQdrantStore(ctx, QdrantConfig{
			Host:       cfg.QdrantHost,
			Port:       cfg.QdrantPort,
			UseTLS:     cfg.QdrantTLS,
			Collection: cfg.Collection,
			VectorSize: uint64(max(dim, 0)),
			Recreate:   cfg.Recreate,
		}, embedder, logger)

	default:
		return nil, fmt.Errorf("%w: unsupported vectorstore provider %q (supported: chromem, pgvector, qdrant)", ErrInvalidConfig, cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(store), nil
}
