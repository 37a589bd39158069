package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("ragchat.agent")

var (
	// ErrModel wraps failures from the chat-completion service.
	ErrModel = errors.New("model request failed")
	// ErrEmptyInput is returned for blank user input.
	ErrEmptyInput = errors.New("empty input")
	// ErrUnknownTool is reported to the model when it calls a tool that is
	// not registered.
	ErrUnknownTool = errors.New("unknown tool")
)

// Model is the part of llms.Model the agent uses.
type Model interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// Config describes the persona and model parameters.
type Config struct {
	Name         string
	Role         string
	Instructions []string
	// ModelID is passed with every request; empty uses the client default.
	ModelID     string
	Temperature float64
	// MaxToolRounds bounds model calls that may return tool calls. Default 5.
	MaxToolRounds int
}

// Agent runs conversations against one Model.
type Agent struct {
	cfg    Config
	model  Model
	tools  map[string]Tool
	order  []Tool
	defs   []llms.Tool
	prompt string
	logger *zap.Logger
}

// New builds an Agent. Tool names must be unique.
func New(cfg Config, model Model, tools []Tool, logger *zap.Logger) (*Agent, error) {
	if model == nil {
		return nil, errors.New("agent: model is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = 5
	}

	a := &Agent{cfg: cfg, model: model, tools: make(map[string]Tool, len(tools)), logger: logger}
	for _, t := range tools {
		if _, dup := a.tools[t.Name()]; dup {
			return nil, fmt.Errorf("agent: duplicate tool %q", t.Name())
		}
		a.tools[t.Name()] = t
		a.order = append(a.order, t)
		a.defs = append(a.defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}
	a.prompt = SystemPrompt(cfg.Name, cfg.Role, cfg.Instructions, tools)
	return a, nil
}

// Name returns the persona name.
func (a *Agent) Name() string { return a.cfg.Name }

// ModelID returns the configured model identifier.
func (a *Agent) ModelID() string { return a.cfg.ModelID }

// Tools returns the registered tools in registration order.
func (a *Agent) Tools() []Tool { return a.order }

// SystemPrompt returns the system message sent with every request.
func (a *Agent) SystemPrompt() string { return a.prompt }

// Run answers input without streaming content. Tool and reasoning events are
// not reported.
func (a *Agent) Run(ctx context.Context, history []Message, input string) (Response, error) {
	return a.run(ctx, history, input, nil, false)
}

// Stream answers input, reporting progress through emit. The final event is
// always EventRunCompleted unless an error is returned.
func (a *Agent) Stream(ctx context.Context, history []Message, input string, emit EmitFunc) (Response, error) {
	if emit == nil {
		emit = func(Event) error { return nil }
	}
	return a.run(ctx, history, input, emit, true)
}

func (a *Agent) messages(history []Message, input string) []llms.MessageContent {
	msgs := make([]llms.MessageContent, 0, len(history)+2)
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeSystem, a.prompt))
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		role := llms.ChatMessageTypeHuman
		if m.Role == RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		msgs = append(msgs, llms.TextParts(role, m.Content))
	}
	return append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, input))
}

func (a *Agent) run(ctx context.Context, history []Message, input string, emit EmitFunc, stream bool) (resp Response, err error) {
	ctx, span := tracer.Start(ctx, "Agent.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("agent.name", a.cfg.Name),
		attribute.String("model", a.cfg.ModelID),
		attribute.Bool("stream", stream),
		attribute.Int("history", len(history)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	if strings.TrimSpace(input) == "" {
		return resp, ErrEmptyInput
	}
	send := func(ev Event) error {
		if emit == nil {
			return nil
		}
		return emit(ev)
	}

	msgs := a.messages(history, input)
	start := time.Now()

	for round := 0; ; round++ {
		opts := []llms.CallOption{llms.WithTemperature(a.cfg.Temperature)}
		if a.cfg.ModelID != "" {
			opts = append(opts, llms.WithModel(a.cfg.ModelID))
		}
		// The last round goes out without tools so the model must answer.
		offerTools := len(a.defs) > 0 && round < a.cfg.MaxToolRounds
		if offerTools {
			opts = append(opts, llms.WithTools(a.defs))
		}
		if stream {
			opts = append(opts, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				if isToolCallChunk(chunk) || len(chunk) == 0 {
					return nil
				}
				return send(Event{Kind: EventRunContent, Content: string(chunk)})
			}))
		}

		out, err := a.model.GenerateContent(ctx, msgs, opts...)
		if err != nil {
			a.logger.Warn("model request failed", zap.Int("round", round), zap.Error(err))
			return resp, fmt.Errorf("%w: %w", ErrModel, err)
		}
		if out == nil || len(out.Choices) == 0 {
			return resp, fmt.Errorf("%w: response has no choices", ErrModel)
		}
		choice := out.Choices[0]

		if len(choice.ToolCalls) == 0 || !offerTools {
			resp.Content = choice.Content
			a.logger.Debug("agent run completed",
				zap.Int("rounds", resp.Rounds),
				zap.Int("tool_calls", len(resp.ToolCalls)),
				zap.Duration("duration", time.Since(start)),
			)
			span.SetAttributes(attribute.Int("rounds", resp.Rounds), attribute.Int("tool_calls", len(resp.ToolCalls)))
			if err := send(Event{Kind: EventRunCompleted, Content: resp.Content, References: resp.References}); err != nil {
				return resp, err
			}
			return resp, nil
		}

		resp.Rounds++
		parts := make([]llms.ContentPart, 0, len(choice.ToolCalls)+1)
		if choice.Content != "" {
			parts = append(parts, llms.TextContent{Text: choice.Content})
		}
		for _, tc := range choice.ToolCalls {
			parts = append(parts, tc)
		}
		msgs = append(msgs, llms.MessageContent{Role: llms.ChatMessageTypeAI, Parts: parts})

		for _, tc := range choice.ToolCalls {
			call := ToolCall{ID: tc.ID}
			if tc.FunctionCall != nil {
				call.Name = tc.FunctionCall.Name
				call.Arguments = tc.FunctionCall.Arguments
			}
			if err := send(Event{Kind: EventToolCallStarted, Tool: &call}); err != nil {
				return resp, err
			}

			output := a.callTool(ctx, call)
			call.Result = output.Content
			resp.ToolCalls = append(resp.ToolCalls, call)
			resp.References = append(resp.References, output.References...)

			if err := send(Event{Kind: EventToolCallCompleted, Tool: &call}); err != nil {
				return resp, err
			}
			if output.Reasoning != nil {
				resp.Reasoning = append(resp.Reasoning, *output.Reasoning)
				if err := send(Event{Kind: EventReasoningStep, Reasoning: output.Reasoning}); err != nil {
					return resp, err
				}
			}

			msgs = append(msgs, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: call.ID,
					Name:       call.Name,
					Content:    output.Content,
				}},
			})
		}
	}
}

// callTool executes one call. Unknown tools and panics become text for the
// model.
func (a *Agent) callTool(ctx context.Context, call ToolCall) (out ToolOutput) {
	ctx, span := tracer.Start(ctx, "Agent.Tool")
	defer span.End()
	span.SetAttributes(attribute.String("tool.name", call.Name))

	tool, ok := a.tools[call.Name]
	if !ok {
		a.logger.Warn("model called unknown tool", zap.String("tool", call.Name))
		return ToolOutput{Content: fmt.Sprintf("Erro: %v %q", ErrUnknownTool, call.Name), Failed: true}
	}

	defer func() {
		if p := recover(); p != nil {
			a.logger.Error("tool panicked", zap.String("tool", call.Name), zap.Any("panic", p))
			out = ToolOutput{Content: fmt.Sprintf("Erro ao executar %s: %v", call.Name, p), Failed: true}
		}
	}()

	start := time.Now()
	out = tool.Call(ctx, call.Arguments)
	a.logger.Debug("tool call completed",
		zap.String("tool", call.Name),
		zap.Duration("duration", time.Since(start)),
		zap.Int("result_len", len(out.Content)),
	)
	return out
}

// isToolCallChunk reports whether a streamed chunk is a tool-call delta. The
// openai client passes those through the streaming func as a JSON array.
func isToolCallChunk(chunk []byte) bool {
	trimmed := strings.TrimSpace(string(chunk))
	if !strings.HasPrefix(trimmed, "[") || !json.Valid([]byte(trimmed)) {
		return false
	}
	var calls []map[string]any
	if err := json.Unmarshal([]byte(trimmed), &calls); err != nil || len(calls) == 0 {
		return false
	}
	_, hasFn := calls[0]["function"]
	return hasFn
}
