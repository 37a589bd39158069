package retrieval_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/fyrsmithlabs/ragchat/internal/agent"
	"github.com/fyrsmithlabs/ragchat/internal/config"
	"github.com/fyrsmithlabs/ragchat/internal/ingest"
	"github.com/fyrsmithlabs/ragchat/internal/retrieval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTools(t *testing.T) map[string]agent.Tool {
	t.Helper()
	r := newRetriever(t, ingest.SampleDocuments()...)
	byName := make(map[string]agent.Tool)
	for _, tool := range retrieval.Tools(r, config.RetrievalConfig{}) {
		byName[tool.Name()] = tool
	}
	require.Len(t, byName, 3)
	return byName
}

func args(t *testing.T, v map[string]any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func TestTools_Schemas(t *testing.T) {
	for name, tool := range sampleTools(t) {
		params := tool.Parameters()
		assert.Equal(t, "object", params["type"], name)
		assert.Equal(t, []string{"query"}, params["required"], name)
		assert.NotEmpty(t, tool.Description(), name)

		_, err := json.Marshal(params)
		assert.NoError(t, err, name)
	}
}

func TestSemanticSearch_DefaultThreshold(t *testing.T) {
	tool := sampleTools(t)[retrieval.SemanticSearchName]

	out := tool.Call(context.Background(), args(t, map[string]any{"query": "Quem são os sócios?"}))
	assert.Equal(t, "Nenhum documento encontrado com relevância suficiente (threshold: 0.70)", out.Content)
	assert.False(t, out.Failed)
}

func TestSemanticSearch_ExplicitThreshold(t *testing.T) {
	tool := sampleTools(t)[retrieval.SemanticSearchName]

	out := tool.Call(context.Background(), args(t, map[string]any{
		"query":           "Quem são os sócios?",
		"k":               1,
		"score_threshold": 0.2,
	}))
	assert.True(t, strings.HasPrefix(out.Content, "🔍 **Busca**: Quem são os sócios?"))
	assert.Contains(t, out.Content, "**Fonte**: equipe")
	assert.Contains(t, out.Content, "Arthur")
	assert.Equal(t, 1, strings.Count(out.Content, "**Similaridade**"))
	assert.Empty(t, out.References)
}

func TestRelevanceSearch_AtMostK(t *testing.T) {
	tool := sampleTools(t)[retrieval.RelevanceSearchName]

	for _, k := range []float64{1, 2, 3.0, 7} {
		out := tool.Call(context.Background(), args(t, map[string]any{"query": "nerd-o educação", "k": k}))
		assert.LessOrEqual(t, strings.Count(out.Content, "**Relevância**"), int(k))
	}

	out := tool.Call(context.Background(), args(t, map[string]any{"query": "Quem são os sócios?", "k": 1}))
	assert.True(t, strings.HasPrefix(out.Content, "**Relevância**:"))
	assert.Contains(t, out.Content, "Arthur")
}

func TestKnowledgeBase_FiltersAndReferences(t *testing.T) {
	tool := sampleTools(t)[retrieval.KnowledgeBaseName]
	ctx := context.Background()

	out := tool.Call(ctx, args(t, map[string]any{
		"query":   "nerd-o",
		"filters": map[string]any{"categoria": "pessoas"},
	}))
	assert.Contains(t, out.Content, "📚 1 documentos encontrados para: nerd-o")
	assert.Contains(t, out.Content, "Arthur")
	require.Len(t, out.References, 1)
	assert.Equal(t, "nerd-o", out.References[0].Query)
	require.Len(t, out.References[0].Documents, 1)
	assert.Equal(t, "equipe", out.References[0].Documents[0].Source)

	out = tool.Call(ctx, args(t, map[string]any{
		"query":   "nerd-o",
		"filters": map[string]any{"categoria": "financeiro"},
	}))
	assert.Equal(t, "Nenhum documento encontrado.", out.Content)
	assert.Empty(t, out.References)
}

func TestTools_MalformedArguments(t *testing.T) {
	for name, tool := range sampleTools(t) {
		for _, raw := range []string{"", "{", `{"k": 2}`, `{"query": 42}`} {
			var out agent.ToolOutput
			assert.NotPanics(t, func() { out = tool.Call(context.Background(), raw) }, name)
			assert.True(t, strings.HasPrefix(out.Content, "Erro na busca: "), "%s %q: %s", name, raw, out.Content)
			assert.True(t, out.Failed, "%s %q", name, raw)
		}
	}
}

func TestTools_FailedOnlyOnStoreFault(t *testing.T) {
	empty := newRetriever(t)
	broken, err := retrieval.New(&faultyStore{err: errors.New("connection refused")}, nil)
	require.NoError(t, err)

	query := args(t, map[string]any{"query": "Quem são os sócios?"})
	for _, tool := range retrieval.Tools(empty, config.RetrievalConfig{}) {
		out := tool.Call(context.Background(), query)
		assert.False(t, out.Failed, "%s on empty store: %s", tool.Name(), out.Content)
	}
	for _, tool := range retrieval.Tools(broken, config.RetrievalConfig{}) {
		out := tool.Call(context.Background(), query)
		assert.True(t, out.Failed, tool.Name())
		assert.Equal(t, "Erro na busca: connection refused", out.Content, tool.Name())
		assert.Empty(t, out.References, tool.Name())
	}
}

func TestTools_ConfigOverrides(t *testing.T) {
	r := newRetriever(t, ingest.SampleDocuments()...)
	list := retrieval.Tools(r, config.RetrievalConfig{
		DefaultK:         2,
		RelevanceK:       1,
		ScoreThreshold:   0.5,
		SemanticSnippet:  10,
		RelevanceSnippet: 20,
	})

	sem := list[0].(*retrieval.SemanticSearch)
	assert.Equal(t, 2, sem.DefaultK)
	assert.InDelta(t, 0.5, sem.Threshold, 1e-6)
	assert.Equal(t, 10, sem.Snippet)

	rel := list[1].(*retrieval.RelevanceSearch)
	assert.Equal(t, 1, rel.DefaultK)
	assert.Equal(t, 20, rel.Snippet)

	out := rel.Call(context.Background(), args(t, map[string]any{"query": "nerd-o"}))
	assert.Equal(t, 1, strings.Count(out.Content, "**Relevância**"))
}
