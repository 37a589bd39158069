package retrieval

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/ragchat/internal/agent"
	"github.com/fyrsmithlabs/ragchat/internal/config"
)

// Tool names as the model sees them.
const (
	SemanticSearchName  = "semantic_search"
	RelevanceSearchName = "similarity_search_with_relevance"
	KnowledgeBaseName   = "search_knowledge_base"
)

// searchArgs is the union of every search tool's arguments. Numbers are
// decoded as float64 because models send both 3 and 3.0.
type searchArgs struct {
	Query          string         `json:"query"`
	K              float64        `json:"k"`
	ScoreThreshold *float64       `json:"score_threshold"`
	Filters        map[string]any `json:"filters"`
}

func parseArgs(raw string) (searchArgs, error) {
	var a searchArgs
	if strings.TrimSpace(raw) == "" {
		return a, fmt.Errorf("argumentos ausentes")
	}
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return a, fmt.Errorf("argumentos inválidos: %v", err)
	}
	if strings.TrimSpace(a.Query) == "" {
		return a, fmt.Errorf("o parâmetro query é obrigatório")
	}
	return a, nil
}

func failure(err error) agent.ToolOutput {
	return agent.ToolOutput{Content: fmt.Sprintf(MsgFailed, err.Error()), Failed: true}
}

func stringFilters(in map[string]any) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		if v == nil {
			continue
		}
		out[k] = fmt.Sprint(v)
	}
	return out
}

func queryProperty() map[string]any {
	return map[string]any{"type": "string", "description": "Texto da consulta"}
}

func kProperty(def int) map[string]any {
	return map[string]any{
		"type":        "integer",
		"description": fmt.Sprintf("Número máximo de documentos (padrão %d)", def),
	}
}

// SemanticSearch is the semantic_search tool: threshold-filtered search with
// similarity, source and category per hit.
type SemanticSearch struct {
	Retriever *Retriever
	DefaultK  int
	// Threshold applies when the model does not pass score_threshold.
	Threshold float32
	Snippet   int
}

func (t *SemanticSearch) Name() string { return SemanticSearchName }

func (t *SemanticSearch) Description() string {
	return "Busca semântica na base de conhecimento. Retorna os documentos com similaridade " +
		"acima de score_threshold, com fonte e categoria."
}

func (t *SemanticSearch) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": queryProperty(),
			"k":     kProperty(t.DefaultK),
			"score_threshold": map[string]any{
				"type":        "number",
				"description": fmt.Sprintf("Similaridade mínima entre 0 e 1 (padrão %.1f)", t.Threshold),
			},
		},
		"required": []string{"query"},
	}
}

func (t *SemanticSearch) Call(ctx context.Context, args string) agent.ToolOutput {
	a, err := parseArgs(args)
	if err != nil {
		return failure(err)
	}
	threshold := t.Threshold
	if a.ScoreThreshold != nil {
		threshold = float32(*a.ScoreThreshold)
	}
	res := t.Retriever.Search(ctx, Query{Text: a.Query, K: kOrDefault(a.K, t.DefaultK), Threshold: &threshold})
	return agent.ToolOutput{Content: res.Render(StyleSemantic, t.Snippet), Failed: res.Status == StatusFailed}
}

// RelevanceSearch is the similarity_search_with_relevance tool: unfiltered
// top-k with the relevance score per hit.
type RelevanceSearch struct {
	Retriever *Retriever
	DefaultK  int
	Snippet   int
}

func (t *RelevanceSearch) Name() string { return RelevanceSearchName }

func (t *RelevanceSearch) Description() string {
	return "Busca com score de relevância normalizado (0 a 1, maior é melhor). " +
		"Use para uma busca mais precisa depois de semantic_search."
}

func (t *RelevanceSearch) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": queryProperty(),
			"k":     kProperty(t.DefaultK),
		},
		"required": []string{"query"},
	}
}

func (t *RelevanceSearch) Call(ctx context.Context, args string) agent.ToolOutput {
	a, err := parseArgs(args)
	if err != nil {
		return failure(err)
	}
	res := t.Retriever.Search(ctx, Query{Text: a.Query, K: kOrDefault(a.K, t.DefaultK)})
	return agent.ToolOutput{Content: res.Render(StyleRelevance, t.Snippet), Failed: res.Status == StatusFailed}
}

// KnowledgeBase is the search_knowledge_base tool: metadata-filtered search
// whose hits are also reported as references.
type KnowledgeBase struct {
	Retriever *Retriever
	DefaultK  int
}

func (t *KnowledgeBase) Name() string { return KnowledgeBaseName }

func (t *KnowledgeBase) Description() string {
	return "Busca documentos na base de conhecimento, opcionalmente filtrando por metadados " +
		"(por exemplo {\"source\": \"equipe\"} ou {\"categoria\": \"pessoas\"})."
}

func (t *KnowledgeBase) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": queryProperty(),
			"k":     kProperty(t.DefaultK),
			"filters": map[string]any{
				"type":                 "object",
				"description":          "Filtros de igualdade sobre os metadados",
				"additionalProperties": map[string]any{"type": "string"},
			},
		},
		"required": []string{"query"},
	}
}

func (t *KnowledgeBase) Call(ctx context.Context, args string) agent.ToolOutput {
	a, err := parseArgs(args)
	if err != nil {
		return failure(err)
	}
	res := t.Retriever.Search(ctx, Query{
		Text:    a.Query,
		K:       kOrDefault(a.K, t.DefaultK),
		Filters: stringFilters(a.Filters),
	})
	out := agent.ToolOutput{Content: res.Text(StyleKnowledge), Failed: res.Status == StatusFailed}
	if res.Status == StatusOK {
		out.References = []agent.Reference{res.Reference()}
	}
	return out
}

func kOrDefault(k float64, def int) int {
	if k < 1 {
		return def
	}
	return int(k)
}

// Tools builds the three search tools over r from cfg. Zero values in cfg
// fall back to the tool defaults.
func Tools(r *Retriever, cfg config.RetrievalConfig) []agent.Tool {
	defaultK := orInt(cfg.DefaultK, 5)
	threshold := float32(0.7)
	if cfg.ScoreThreshold > 0 {
		threshold = float32(cfg.ScoreThreshold)
	}
	return []agent.Tool{
		&SemanticSearch{
			Retriever: r,
			DefaultK:  defaultK,
			Threshold: threshold,
			Snippet:   orInt(cfg.SemanticSnippet, StyleSemantic.DefaultSnippet()),
		},
		&RelevanceSearch{
			Retriever: r,
			DefaultK:  orInt(cfg.RelevanceK, 3),
			Snippet:   orInt(cfg.RelevanceSnippet, StyleRelevance.DefaultSnippet()),
		},
		&KnowledgeBase{Retriever: r, DefaultK: defaultK},
	}
}

func orInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

var (
	_ agent.Tool = (*SemanticSearch)(nil)
	_ agent.Tool = (*RelevanceSearch)(nil)
	_ agent.Tool = (*KnowledgeBase)(nil)
)
