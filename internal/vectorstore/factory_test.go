package vectorstore_test

import (
	"context"
	"testing"

	"github.com/fyrsmithlabs/ragchat/internal/config"
	"github.com/fyrsmithlabs/ragchat/internal/vectorstore"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStore_Chromem(t *testing.T) {
	ctx := context.Background()
	store, err := vectorstore.NewStore(ctx, config.VectorStoreConfig{
		Provider:   "chromem",
		Collection: "document_vectors",
	}, vectorstore.NewKeywordEmbedder(), nil)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, "chromem", store.Provider())
	require.NoError(t, store.Init(ctx))

	before := testutil.ToFloat64(vectorstore.DocumentsAdded.WithLabelValues("chromem"))
	_, err = store.AddDocuments(ctx, sampleDocs())
	require.NoError(t, err)
	after := testutil.ToFloat64(vectorstore.DocumentsAdded.WithLabelValues("chromem"))
	assert.Equal(t, float64(4), after-before)

	searches := testutil.ToFloat64(vectorstore.OperationsTotal.WithLabelValues("chromem", "search", "success"))
	_, err = store.Search(ctx, "sócios", vectorstore.SearchOptions{K: 1})
	require.NoError(t, err)
	assert.Equal(t, searches+1, testutil.ToFloat64(vectorstore.OperationsTotal.WithLabelValues("chromem", "search", "success")))

	errs := testutil.ToFloat64(vectorstore.OperationsTotal.WithLabelValues("chromem", "search", "error"))
	_, err = store.Search(ctx, "", vectorstore.SearchOptions{K: 1})
	require.Error(t, err)
	assert.Equal(t, errs+1, testutil.ToFloat64(vectorstore.OperationsTotal.WithLabelValues("chromem", "search", "error")))
}

func TestNewStore_Unsupported(t *testing.T) {
	_, err := vectorstore.NewStore(context.Background(), config.VectorStoreConfig{
		Provider:   "faiss",
		Collection: "document_vectors",
	}, vectorstore.NewKeywordEmbedder(), nil)
	assert.ErrorIs(t, err, vectorstore.ErrInvalidConfig)
}

func TestNewStore_PGVectorRequiresURL(t *testing.T) {
	_, err := vectorstore.NewStore(context.Background(), config.VectorStoreConfig{
		Provider:                "pgvector",
		Collection:              "document_vectors",
		PgvectorCollectionTable: "langchain_pg_collection",
		PgvectorEmbeddingTable:  "langchain_pg_embedding",
	}, vectorstore.NewKeywordEmbedder(), nil)
	assert.ErrorIs(t, err, vectorstore.ErrInvalidConfig)
}

func TestInstrument_Idempotent(t *testing.T) {
	s := vectorstore.NewTestStore(t)
	wrapped := vectorstore.Instrument(s)
	assert.Same(t, wrapped, vectorstore.Instrument(wrapped))
}
