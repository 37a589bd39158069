package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleResult() Result {
	return Result{
		Query:  Query{Text: "Quem são os sócios?", K: 2},
		Status: StatusOK,
		Hits: []Hit{
			{
				Rank:     1,
				Content:  "A nerd-o tem 3 sócios: Arthur, Rossetto e Gordon.",
				Score:    0.8123,
				Distance: 0.1877,
				Metadata: map[string]any{"source": "equipe", "categoria": "pessoas"},
			},
			{
				Rank:     2,
				Content:  "Sem metadados.",
				Score:    0.5,
				Distance: 0.5,
			},
		},
	}
}

func TestRender_Semantic(t *testing.T) {
	got := sampleResult().Text(StyleSemantic)

	want := "🔍 **Busca**: Quem são os sócios?\n\n" +
		"**Similaridade**: 0.8123 | **Fonte**: equipe | **Categoria**: pessoas\n" +
		"📄 **Conteúdo**: A nerd-o tem 3 sócios: Arthur, Rossetto e Gordon.\n\n" +
		"**Similaridade**: 0.5000 | **Fonte**: N/A | **Categoria**: N/A\n" +
		"📄 **Conteúdo**: Sem metadados."
	assert.Equal(t, want, got)
}

func TestRender_Relevance(t *testing.T) {
	got := sampleResult().Text(StyleRelevance)

	assert.True(t, strings.HasPrefix(got, "**Relevância**: 0.8123\n**Fonte**: equipe\n**Conteúdo**: A nerd-o"))
	assert.Equal(t, 2, strings.Count(got, "**Relevância**"))
}

func TestRender_Knowledge(t *testing.T) {
	got := sampleResult().Text(StyleKnowledge)

	assert.True(t, strings.HasPrefix(got, "📚 2 documentos encontrados para: Quem são os sócios?"))
	assert.Contains(t, got, "1. **Fonte**: equipe | **Categoria**: pessoas | **Score**: 0.8123")
	assert.Contains(t, got, "2. **Fonte**: N/A")
}

func TestRender_Snippet(t *testing.T) {
	r := sampleResult()
	r.Hits = r.Hits[:1]
	r.Hits[0].Content = strings.Repeat("é", 500)

	got := r.Render(StyleSemantic, 300)
	assert.Contains(t, got, strings.Repeat("é", 300)+"...")
	assert.NotContains(t, got, strings.Repeat("é", 301))

	assert.Contains(t, r.Render(StyleSemantic, 0), strings.Repeat("é", 500))
}

func TestRender_NonOK(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want string
	}{
		{"empty", Result{Status: StatusEmpty}, "Nenhum documento encontrado."},
		{
			"below threshold",
			Result{Status: StatusBelowThreshold, Query: Query{Threshold: Threshold(0.7)}},
			"Nenhum documento encontrado com relevância suficiente (threshold: 0.70)",
		},
		{"failed", Result{Status: StatusFailed, Reason: "timeout"}, "Erro na busca: timeout"},
		{"failed without reason", Result{Status: StatusFailed}, "Erro na busca: erro desconhecido"},
		{"ok without hits", Result{Status: StatusOK}, "Nenhum documento encontrado."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, style := range []Style{StyleSemantic, StyleRelevance, StyleKnowledge} {
				assert.Equal(t, tt.want, tt.res.Text(style))
			}
		})
	}
}

func TestResult_Reference(t *testing.T) {
	res := sampleResult()
	res.Hits[0].Metadata["name"] = "equipe.md"

	ref := res.Reference()
	assert.Equal(t, "Quem são os sócios?", ref.Query)
	if assert.Len(t, ref.Documents, 2) {
		assert.Equal(t, "equipe.md", ref.Documents[0].Name)
		assert.Equal(t, "equipe", ref.Documents[0].Source)
		assert.Equal(t, "N/A", ref.Documents[1].Name)
	}
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "below_threshold", StatusBelowThreshold.String())
	assert.Equal(t, "status(9)", Status(9).String())
}
