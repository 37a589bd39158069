package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Tool is a function the model may call mid-response. Call never returns an
// error: faults are rendered into ToolOutput.Content for the model to read.
type Tool interface {
	Name() string
	Description() string
	// Parameters is the JSON schema of the arguments object.
	Parameters() map[string]any
	Call(ctx context.Context, args string) ToolOutput
}

// ToolOutput is the result of one tool call.
type ToolOutput struct {
	// Content is what the model sees.
	Content string
	// References are documents consulted, shown in the sources panel.
	References []Reference
	// Reasoning is set by the think tool.
	Reasoning *ReasoningStep
	// Failed marks a call that could not run (bad arguments or a backend
	// error). An empty result is not a failure.
	Failed bool
}

// Reference groups the documents returned for one knowledge base query.
type Reference struct {
	Query     string              `json:"query"`
	Documents []ReferenceDocument `json:"documents"`
}

// ReferenceDocument is one consulted document.
type ReferenceDocument struct {
	Name     string  `json:"name"`
	Source   string  `json:"source"`
	Category string  `json:"category,omitempty"`
	Content  string  `json:"content"`
	Score    float32 `json:"score"`
}

// ReasoningStep is a structured thought from the think tool.
type ReasoningStep struct {
	Title      string  `json:"title"`
	Thought    string  `json:"thought"`
	Action     string  `json:"action,omitempty"`
	Confidence float64 `json:"confidence"`
}

// ThinkTool is a scratchpad: the model writes down a reasoning step and gets
// an acknowledgement back. Steps surface as ReasoningStep events.
type ThinkTool struct{}

type thinkArgs struct {
	Title      string  `json:"title"`
	Thought    string  `json:"thought"`
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
}

func (ThinkTool) Name() string { return "think" }

func (ThinkTool) Description() string {
	return "Use esta ferramenta como rascunho para raciocinar sobre a pergunta, " +
		"planejar as buscas e avaliar os resultados antes de responder."
}

func (ThinkTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":      map[string]any{"type": "string", "description": "Título curto do passo de raciocínio"},
			"thought":    map[string]any{"type": "string", "description": "O raciocínio detalhado"},
			"action":     map[string]any{"type": "string", "description": "Próxima ação planejada"},
			"confidence": map[string]any{"type": "number", "description": "Confiança entre 0 e 1"},
		},
		"required": []string{"title", "thought"},
	}
}

func (ThinkTool) Call(_ context.Context, args string) ToolOutput {
	var a thinkArgs
	if err := json.Unmarshal([]byte(args), &a); err != nil {
		return ToolOutput{Content: fmt.Sprintf("Erro: argumentos inválidos para think: %v", err)}
	}
	if strings.TrimSpace(a.Title) == "" && strings.TrimSpace(a.Thought) == "" {
		return ToolOutput{Content: "Erro: think requer title ou thought"}
	}
	a.Confidence = min(max(a.Confidence, 0), 1)

	step := &ReasoningStep{Title: a.Title, Thought: a.Thought, Action: a.Action, Confidence: a.Confidence}
	var b strings.Builder
	fmt.Fprintf(&b, "Passo registrado: %s\n", a.Title)
	fmt.Fprintf(&b, "Raciocínio: %s\n", a.Thought)
	if a.Action != "" {
		fmt.Fprintf(&b, "Ação: %s\n", a.Action)
	}
	fmt.Fprintf(&b, "Confiança: %.2f", a.Confidence)
	return ToolOutput{Content: b.String(), Reasoning: step}
}

var _ Tool = ThinkTool{}
