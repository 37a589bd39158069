package vectorstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fyrsmithlabs/ragchat/internal/vectorstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleDocs() []vectorstore.Document {
	return []vectorstore.Document{
		{
			Content:  "A nerd-o é uma startup de AI para escolas que desenvolve soluções educacionais inovadoras.",
			Metadata: map[string]interface{}{"source": "sobre_empresa", "categoria": "institucional"},
		},
		{
			Content:  "A nerd-o tem 3 sócios: Arthur, Rossetto e Gordon, que trabalham juntos no desenvolvimento de tecnologias educacionais.",
			Metadata: map[string]interface{}{"source": "equipe", "categoria": "pessoas"},
		},
		{
			Content:  "A empresa foca em inteligência artificial aplicada à educação, criando ferramentas para melhorar o aprendizado.",
			Metadata: map[string]interface{}{"source": "missao", "categoria": "tecnologia"},
		},
		{
			Content:  "As soluções da nerd-o incluem sistemas de recomendação personalizados e análise de desempenho estudantil.",
			Metadata: map[string]interface{}{"source": "produtos", "categoria": "servicos"},
		},
	}
}

func newChromem(t *testing.T, cfg vectorstore.ChromemConfig) *vectorstore.ChromemStore {
	t.Helper()
	if cfg.Collection == "" {
		cfg.Collection = "document_vectors"
	}
	store, err := vectorstore.NewChromemStore(cfg, vectorstore.NewKeywordEmbedder(), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))
	return store
}

func TestChromemStore_TopResultForPartnersQuery(t *testing.T) {
	ctx := context.Background()
	store := newChromem(t, vectorstore.ChromemConfig{})

	ids, err := store.AddDocuments(ctx, sampleDocs())
	require.NoError(t, err)
	require.Len(t, ids, 4)
	for _, id := range ids {
		assert.NotEmpty(t, id)
	}

	results, err := store.Search(ctx, "Quem são os sócios?", vectorstore.SearchOptions{K: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "equipe", results[0].MetadataString("source"))
	assert.Contains(t, results[0].Content, "Arthur")
	assert.InDelta(t, 1-results[0].Score, results[0].Distance, 1e-6)
}

func TestChromemStore_SearchOrderingAndK(t *testing.T) {
	ctx := context.Background()
	store := newChromem(t, vectorstore.ChromemConfig{})
	_, err := store.AddDocuments(ctx, sampleDocs())
	require.NoError(t, err)

	results, err := store.Search(ctx, "O que é a nerd-o?", vectorstore.SearchOptions{K: 3})
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}

	// k above the collection size is capped, not rejected.
	results, err = store.Search(ctx, "nerd-o", vectorstore.SearchOptions{K: 50})
	require.NoError(t, err)
	assert.Len(t, results, 4)
}

func TestChromemStore_Filters(t *testing.T) {
	ctx := context.Background()
	store := newChromem(t, vectorstore.ChromemConfig{})
	_, err := store.AddDocuments(ctx, sampleDocs())
	require.NoError(t, err)

	results, err := store.Search(ctx, "nerd-o", vectorstore.SearchOptions{
		K:       4,
		Filters: map[string]string{"categoria": "servicos"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "produtos", results[0].MetadataString("source"))

	results, err = store.Search(ctx, "nerd-o", vectorstore.SearchOptions{
		K:       4,
		Filters: map[string]string{"categoria": "inexistente"},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChromemStore_ScoreThreshold(t *testing.T) {
	ctx := context.Background()
	store := newChromem(t, vectorstore.ChromemConfig{})
	_, err := store.AddDocuments(ctx, sampleDocs())
	require.NoError(t, err)

	results, err := store.Search(ctx, "Quem são os sócios?", vectorstore.SearchOptions{K: 4, ScoreThreshold: 0.2})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.GreaterOrEqual(t, results[0].Score, float32(0.2))

	results, err = store.Search(ctx, "Quem são os sócios?", vectorstore.SearchOptions{K: 4, ScoreThreshold: 0.99})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestChromemStore_EmptyIndex(t *testing.T) {
	store := newChromem(t, vectorstore.ChromemConfig{})

	results, err := store.Search(context.Background(), "qualquer coisa", vectorstore.SearchOptions{K: 5})
	require.NoError(t, err)
	assert.Empty(t, results)

	n, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestChromemStore_InvalidInput(t *testing.T) {
	ctx := context.Background()
	store := newChromem(t, vectorstore.ChromemConfig{})

	_, err := store.AddDocuments(ctx, nil)
	assert.ErrorIs(t, err, vectorstore.ErrEmptyDocuments)

	_, err = store.Search(ctx, "", vectorstore.SearchOptions{K: 1})
	assert.ErrorIs(t, err, vectorstore.ErrEmptyQuery)

	_, err = store.Search(ctx, "x", vectorstore.SearchOptions{K: 0})
	assert.Error(t, err)

	_, err = store.Search(ctx, "x", vectorstore.SearchOptions{K: 1, ScoreThreshold: 1.5})
	assert.Error(t, err)
}

func TestChromemStore_NotInitialized(t *testing.T) {
	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{Collection: "docs"}, vectorstore.NewKeywordEmbedder(), nil)
	require.NoError(t, err)

	_, err = store.Search(context.Background(), "x", vectorstore.SearchOptions{K: 1})
	assert.ErrorIs(t, err, vectorstore.ErrCollectionNotFound)
}

func TestChromemStore_EmbedderFailure(t *testing.T) {
	emb := &vectorstore.KeywordEmbedder{Dim: 16, Err: errors.New("quota exceeded")}
	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{Collection: "docs"}, emb, nil)
	require.NoError(t, err)
	require.NoError(t, store.Init(context.Background()))

	_, err = store.AddDocuments(context.Background(), sampleDocs())
	assert.ErrorIs(t, err, vectorstore.ErrEmbeddingFailed)
}

func TestChromemStore_PersistenceAndRecreate(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store := newChromem(t, vectorstore.ChromemConfig{Path: dir})
	_, err := store.AddDocuments(ctx, sampleDocs())
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened := newChromem(t, vectorstore.ChromemConfig{Path: dir})
	n, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	recreated := newChromem(t, vectorstore.ChromemConfig{Path: dir, Recreate: true})
	n, err = recreated.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestChromemStore_KeepsCallerIDs(t *testing.T) {
	ctx := context.Background()
	store := newChromem(t, vectorstore.ChromemConfig{})

	ids, err := store.AddDocuments(ctx, []vectorstore.Document{{ID: "equipe-0", Content: "sócios Arthur"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"equipe-0"}, ids)

	results, err := store.Search(ctx, "sócios", vectorstore.SearchOptions{K: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "equipe-0", results[0].ID)
}

func TestChromemStore_DeleteDocuments(t *testing.T) {
	ctx := context.Background()
	store := newChromem(t, vectorstore.ChromemConfig{Path: t.TempDir()})

	_, err := store.AddDocuments(ctx, []vectorstore.Document{
		{ID: "equipe-0", Content: "sócios Arthur"},
		{ID: "equipe-1", Content: "sócios Rossetto"},
	})
	require.NoError(t, err)

	require.NoError(t, store.DeleteDocuments(ctx, []string{"equipe-1", "equipe-7"}))
	require.NoError(t, store.DeleteDocuments(ctx, nil))

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	results, err := store.Search(ctx, "sócios", vectorstore.SearchOptions{K: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "equipe-0", results[0].ID)
}

func TestNewChromemStore_Validation(t *testing.T) {
	_, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{Collection: "docs"}, nil, nil)
	assert.ErrorIs(t, err, vectorstore.ErrInvalidConfig)

	_, err = vectorstore.NewChromemStore(vectorstore.ChromemConfig{Collection: "Bad-Name"}, vectorstore.NewKeywordEmbedder(), nil)
	assert.ErrorIs(t, err, vectorstore.ErrInvalidCollectionName)
}
