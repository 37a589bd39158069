package retrieval

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fyrsmithlabs/ragchat/internal/agent"
)

// Status classifies a search outcome.
type Status int

const (
	// StatusOK means at least one hit survived filtering.
	StatusOK Status = iota
	// StatusEmpty means the index, or the filter, produced nothing.
	StatusEmpty
	// StatusBelowThreshold means every candidate scored under the threshold.
	StatusBelowThreshold
	// StatusFailed means the store or the embedder returned an error.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusBelowThreshold:
		return "below_threshold"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Messages returned to the model for non-OK results.
const (
	MsgEmpty          = "Nenhum documento encontrado."
	MsgBelowThreshold = "Nenhum documento encontrado com relevância suficiente (threshold: %.2f)"
	MsgFailed         = "Erro na busca: %s"
)

// Hit is one ranked search result. Rank starts at 1.
type Hit struct {
	Rank     int
	ID       string
	Content  string
	Score    float32
	Distance float32
	Metadata map[string]any
}

// Source returns the "source" metadata value, or "N/A".
func (h Hit) Source() string { return h.meta("source") }

// Category returns the "categoria" metadata value, or "N/A".
func (h Hit) Category() string { return h.meta("categoria") }

func (h Hit) meta(key string) string {
	if v, ok := h.Metadata[key]; ok && v != nil {
		if s := fmt.Sprint(v); s != "" {
			return s
		}
	}
	return "N/A"
}

// Result is the outcome of Retriever.Search.
type Result struct {
	Query  Query
	Status Status
	Hits   []Hit
	// Reason describes the failure when Status is StatusFailed.
	Reason string
}

// Style selects how Text renders hits.
type Style int

const (
	// StyleSemantic is the semantic_search layout: similarity, source and
	// category on one line, then the content.
	StyleSemantic Style = iota
	// StyleRelevance is the similarity_search_with_relevance layout.
	StyleRelevance
	// StyleKnowledge is the numbered search_knowledge_base layout.
	StyleKnowledge
)

// DefaultSnippet is the content length Text uses for each style.
func (s Style) DefaultSnippet() int {
	switch s {
	case StyleSemantic:
		return 300
	case StyleRelevance:
		return 400
	default:
		return 1000
	}
}

// Text renders r with the style's default snippet length.
func (r Result) Text(style Style) string {
	return r.Render(style, style.DefaultSnippet())
}

// Render renders r for the model. Non-OK results render their fixed message,
// so the output is never empty. snippet <= 0 keeps full content.
func (r Result) Render(style Style, snippet int) string {
	switch r.Status {
	case StatusFailed:
		reason := r.Reason
		if reason == "" {
			reason = "erro desconhecido"
		}
		return fmt.Sprintf(MsgFailed, reason)
	case StatusEmpty:
		return MsgEmpty
	case StatusBelowThreshold:
		return fmt.Sprintf(MsgBelowThreshold, r.Query.threshold())
	}
	if len(r.Hits) == 0 {
		return MsgEmpty
	}

	blocks := make([]string, 0, len(r.Hits))
	switch style {
	case StyleRelevance:
		for _, h := range r.Hits {
			blocks = append(blocks, fmt.Sprintf("**Relevância**: %.4f\n**Fonte**: %s\n**Conteúdo**: %s",
				h.Score, h.Source(), Snippet(h.Content, snippet)))
		}
		return strings.Join(blocks, "\n\n")

	case StyleKnowledge:
		for _, h := range r.Hits {
			blocks = append(blocks, fmt.Sprintf("%d. **Fonte**: %s | **Categoria**: %s | **Score**: %.4f\n%s",
				h.Rank, h.Source(), h.Category(), h.Score, Snippet(h.Content, snippet)))
		}
		return fmt.Sprintf("📚 %d documentos encontrados para: %s\n\n", len(r.Hits), r.Query.Text) +
			strings.Join(blocks, "\n\n")

	default:
		for _, h := range r.Hits {
			blocks = append(blocks, fmt.Sprintf("**Similaridade**: %.4f | **Fonte**: %s | **Categoria**: %s\n📄 **Conteúdo**: %s",
				h.Score, h.Source(), h.Category(), Snippet(h.Content, snippet)))
		}
		return fmt.Sprintf("🔍 **Busca**: %s\n\n", r.Query.Text) + strings.Join(blocks, "\n\n")
	}
}

// Reference converts the hits into a sources-panel entry.
func (r Result) Reference() agent.Reference {
	ref := agent.Reference{Query: r.Query.Text, Documents: make([]agent.ReferenceDocument, 0, len(r.Hits))}
	for _, h := range r.Hits {
		name := h.meta("name")
		if name == "N/A" {
			name = h.Source()
		}
		ref.Documents = append(ref.Documents, agent.ReferenceDocument{
			Name:     name,
			Source:   h.Source(),
			Category: h.Category(),
			Content:  h.Content,
			Score:    h.Score,
		})
	}
	return ref
}

// Snippet truncates s to n runes, appending "..." when it cut anything.
func Snippet(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "..."
}
