package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragchat/internal/config"
	"github.com/fyrsmithlabs/ragchat/internal/ingest"
	"github.com/fyrsmithlabs/ragchat/internal/retrieval"
	"github.com/fyrsmithlabs/ragchat/internal/vectorstore"
)

// brokenStore fails every search.
type brokenStore struct {
	vectorstore.Store
}

func (brokenStore) Search(context.Context, string, vectorstore.SearchOptions) ([]vectorstore.SearchResult, error) {
	return nil, errors.New("connection refused")
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return newServerOver(t, vectorstore.NewTestStore(t, ingest.SampleDocuments()...))
}

func newServerOver(t *testing.T, store vectorstore.Store) *Server {
	t.Helper()
	r, err := retrieval.New(store, zap.NewNop())
	require.NoError(t, err)
	s, err := NewServer(nil, retrieval.Tools(r, config.RetrievalConfig{}))
	require.NoError(t, err)
	return s
}

func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientT, serverT := mcp.NewInMemoryTransports()

	ss, err := s.mcp.Connect(ctx, serverT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestNewServer(t *testing.T) {
	_, err := NewServer(nil, nil)
	assert.ErrorContains(t, err, "at least one tool")
}

func TestServer_ListTools(t *testing.T) {
	cs := connect(t, newTestServer(t))

	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
	}
	assert.ElementsMatch(t, []string{
		retrieval.SemanticSearchName,
		retrieval.RelevanceSearchName,
		retrieval.KnowledgeBaseName,
	}, names)
}

func TestServer_CallKnowledgeBase(t *testing.T) {
	cs := connect(t, newTestServer(t))

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      retrieval.KnowledgeBaseName,
		Arguments: map[string]any{"query": "Quem são os sócios?", "k": 1},
	})
	require.NoError(t, err)
	assert.False(t, res.IsError)
	text := textOf(t, res)
	assert.Contains(t, text, "1 documentos encontrados para: Quem são os sócios?")
	assert.Contains(t, text, "Arthur")
}

func TestServer_CallSemanticSearchThreshold(t *testing.T) {
	cs := connect(t, newTestServer(t))

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      retrieval.SemanticSearchName,
		Arguments: map[string]any{"query": "Quem são os sócios?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Nenhum documento encontrado com relevância suficiente (threshold: 0.70)", textOf(t, res))

	res, err = cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      retrieval.SemanticSearchName,
		Arguments: map[string]any{"query": "Quem são os sócios?", "score_threshold": 0.2, "filters": map[string]any{"categoria": "pessoas"}},
	})
	require.NoError(t, err)
	assert.Contains(t, textOf(t, res), "**Fonte**: equipe")
}

func TestServer_IsErrorOnlyOnFailure(t *testing.T) {
	ctx := context.Background()
	params := &mcp.CallToolParams{
		Name:      retrieval.KnowledgeBaseName,
		Arguments: map[string]any{"query": "Quem são os sócios?"},
	}

	res, err := connect(t, newServerOver(t, vectorstore.NewTestStore(t))).CallTool(ctx, params)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "Nenhum documento encontrado.", textOf(t, res))

	res, err = connect(t, newServerOver(t, brokenStore{})).CallTool(ctx, params)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Erro na busca: connection refused", textOf(t, res))
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"Erro na busca: o parâmetro query é obrigatório", "validation_error"},
		{"Erro na busca: collection not found", "not_found"},
		{"Erro na busca: context deadline exceeded", "timeout"},
		{"Erro na busca: 401 unauthorized", "auth_error"},
		{"Erro na busca: failed to generate embeddings", "storage_error"},
		{"Erro na busca: boom", "internal_error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, categorizeError(errors.New(tt.msg)), tt.msg)
	}
	assert.Empty(t, categorizeError(nil))
}
