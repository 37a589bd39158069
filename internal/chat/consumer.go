package chat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fyrsmithlabs/ragchat/internal/agent"
)

// State is the consumer's position within one turn.
type State int

const (
	StateIdle State = iota
	StateToolRunning
	StateReasoning
	StateStreaming
	StateCompleted
	// StateFailed ends the turn, not the session.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateToolRunning:
		return "tool_running"
	case StateReasoning:
		return "reasoning"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// RenderKind selects the visual affordance for a Render.
type RenderKind int

const (
	RenderInfo RenderKind = iota
	RenderSuccess
	RenderWarning
	RenderError
	RenderContent
	RenderSources
)

// MarshalText encodes the kind by name so JSON clients see "content" rather
// than an integer.
func (k RenderKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k RenderKind) String() string {
	switch k {
	case RenderInfo:
		return "info"
	case RenderSuccess:
		return "success"
	case RenderWarning:
		return "warning"
	case RenderError:
		return "error"
	case RenderContent:
		return "content"
	case RenderSources:
		return "sources"
	default:
		return fmt.Sprintf("render(%d)", int(k))
	}
}

// Render is one thing to draw.
type Render struct {
	Kind RenderKind `json:"kind"`
	// Text is the banner text, or for content the whole response so far.
	Text string `json:"text"`
	// Delta is the chunk appended by this content render.
	Delta string `json:"delta,omitempty"`
	// Final marks the content render that completes the turn.
	Final      bool              `json:"final,omitempty"`
	References []agent.Reference `json:"references,omitempty"`
}

// RenderFunc draws a Render. An error aborts the turn.
type RenderFunc func(Render) error

// Banner texts.
const (
	EmptyResponseWarning = "⚠️ Resposta vazia recebida"
	SourcesTitle         = "📚 Fontes consultadas"
	// ReasoningDoneBanner is shown once when content follows reasoning.
	ReasoningDoneBanner = "✨ Raciocínio concluído - gerando resposta..."
)

// ToolStartedBanner is the info banner shown when a tool starts.
func ToolStartedBanner(tool string) string {
	switch tool {
	case "search_knowledge_base":
		return "🔍 Buscando na base de conhecimento..."
	case "think":
		return "🧠 Pensando sobre a questão..."
	default:
		return fmt.Sprintf("🔧 Executando: %s...", tool)
	}
}

// ToolCompletedBanner is the success banner shown when a tool returns.
func ToolCompletedBanner(tool string) string {
	switch tool {
	case "search_knowledge_base":
		return "✅ Documentos encontrados na base de conhecimento"
	case "think":
		return "💭 Análise concluída"
	default:
		return fmt.Sprintf("✅ %s concluída", tool)
	}
}

// ReasoningBanner renders a reasoning step with a confidence marker.
func ReasoningBanner(step agent.ReasoningStep) string {
	emoji := "❓"
	switch {
	case step.Confidence >= 0.9:
		emoji = "🎯"
	case step.Confidence >= 0.7:
		emoji = "🤔"
	}
	return fmt.Sprintf("%s **%s** (Confiança: %s)", emoji, step.Title,
		strconv.FormatFloat(step.Confidence, 'f', -1, 64))
}

// Consumer folds one turn's events into Render calls.
type Consumer struct {
	render RenderFunc
	state  State
	acc    strings.Builder
	text   string
}

// NewConsumer returns an Idle consumer drawing through render.
func NewConsumer(render RenderFunc) *Consumer {
	if render == nil {
		render = func(Render) error { return nil }
	}
	return &Consumer{render: render}
}

// State returns the current state.
func (c *Consumer) State() State { return c.state }

// Text returns the response shown to the user. It is set on completion.
func (c *Consumer) Text() string { return c.text }

// Handle applies one event. It is an agent.EmitFunc.
func (c *Consumer) Handle(ev agent.Event) error {
	if c.state == StateCompleted || c.state == StateFailed {
		return nil
	}

	switch ev.Kind {
	case agent.EventToolCallStarted:
		c.state = StateToolRunning
		return c.render(Render{Kind: RenderInfo, Text: ToolStartedBanner(toolName(ev))})

	case agent.EventToolCallCompleted:
		c.state = StateIdle
		return c.render(Render{Kind: RenderSuccess, Text: ToolCompletedBanner(toolName(ev))})

	case agent.EventReasoningStep:
		c.state = StateReasoning
		if ev.Reasoning == nil {
			return nil
		}
		return c.render(Render{Kind: RenderInfo, Text: ReasoningBanner(*ev.Reasoning)})

	case agent.EventRunContent:
		if c.state == StateReasoning {
			if err := c.render(Render{Kind: RenderSuccess, Text: ReasoningDoneBanner}); err != nil {
				return err
			}
		}
		c.state = StateStreaming
		if ev.Content == "" {
			return nil
		}
		c.acc.WriteString(ev.Content)
		return c.render(Render{Kind: RenderContent, Text: c.acc.String(), Delta: ev.Content})

	case agent.EventRunCompleted:
		c.state = StateCompleted
		return c.complete(ev)

	default:
		return fmt.Errorf("chat: unhandled event kind %v", ev.Kind)
	}
}

// complete prefers the final payload when it is non-blank, then the
// accumulated chunks, then warns.
func (c *Consumer) complete(ev agent.Event) error {
	var err error
	switch {
	case strings.TrimSpace(ev.Content) != "":
		c.text = ev.Content
		err = c.render(Render{Kind: RenderContent, Text: c.text, Final: true})
	case strings.TrimSpace(c.acc.String()) != "":
		c.text = c.acc.String()
		err = c.render(Render{Kind: RenderContent, Text: c.text, Final: true})
	default:
		err = c.render(Render{Kind: RenderWarning, Text: EmptyResponseWarning})
	}
	if err != nil {
		return err
	}
	if len(ev.References) > 0 {
		return c.render(Render{Kind: RenderSources, Text: SourcesTitle, References: ev.References})
	}
	return nil
}

// Fail moves to Failed from any state and renders the error banner.
func (c *Consumer) Fail(err error) error {
	c.state = StateFailed
	return c.render(Render{Kind: RenderError, Text: fmt.Sprintf("❌ Erro durante execução: %v", err)})
}

func toolName(ev agent.Event) string {
	if ev.Tool == nil || ev.Tool.Name == "" {
		return "Tool"
	}
	return ev.Tool.Name
}
