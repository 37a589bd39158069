package agent

import "fmt"

// EventKind tags a streaming Event.
type EventKind int

const (
	// EventToolCallStarted fires before a tool executes. Event.Tool is set.
	EventToolCallStarted EventKind = iota
	// EventToolCallCompleted fires after a tool returns. Event.Tool carries
	// the result.
	EventToolCallCompleted
	// EventReasoningStep fires when the think tool records a step.
	EventReasoningStep
	// EventRunContent carries a partial content chunk.
	EventRunContent
	// EventRunCompleted carries the final content and references.
	EventRunCompleted
)

func (k EventKind) String() string {
	switch k {
	case EventToolCallStarted:
		return "ToolCallStarted"
	case EventToolCallCompleted:
		return "ToolCallCompleted"
	case EventReasoningStep:
		return "ReasoningStep"
	case EventRunContent:
		return "RunContent"
	case EventRunCompleted:
		return "RunCompleted"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// ToolCall records one tool invocation.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	// Result is empty until the call completes.
	Result string `json:"result,omitempty"`
}

// Event is one unit of streamed progress.
type Event struct {
	Kind       EventKind
	Tool       *ToolCall
	Reasoning  *ReasoningStep
	Content    string
	References []Reference
}

// EmitFunc receives streamed events. Returning an error aborts the run.
type EmitFunc func(Event) error

// Role tags a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Response is the outcome of a run.
type Response struct {
	Content    string
	References []Reference
	ToolCalls  []ToolCall
	Reasoning  []ReasoningStep
	// Rounds counts model calls that returned tool calls.
	Rounds int
}
