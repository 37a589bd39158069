package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/ragchat/internal/agent"
)

// Agent is the part of *agent.Agent the presentation layer drives.
type Agent interface {
	Run(ctx context.Context, history []agent.Message, input string) (agent.Response, error)
	Stream(ctx context.Context, history []agent.Message, input string, emit agent.EmitFunc) (agent.Response, error)
}

// RunTurn sends input with the session history, renders the outcome and
// records both turns. The assistant turn is recorded only when non-blank.
// Model faults and panics are rendered as an error and returned; the session
// stays usable.
func RunTurn(ctx context.Context, a Agent, s *Session, input string, stream bool, render RenderFunc) (text string, err error) {
	c := NewConsumer(render)
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
			_ = c.Fail(err)
			text = ""
		}
	}()

	history := s.Messages()
	s.Append(agent.RoleUser, input)

	if stream {
		_, err = a.Stream(ctx, history, input, c.Handle)
	} else {
		var resp agent.Response
		resp, err = a.Run(ctx, history, input)
		if err == nil {
			err = c.Handle(agent.Event{Kind: agent.EventRunCompleted, Content: resp.Content, References: resp.References})
		}
	}
	if err != nil {
		_ = c.Fail(err)
		return "", err
	}

	text = c.Text()
	if strings.TrimSpace(text) != "" {
		s.Append(agent.RoleAssistant, text)
	}
	return text, nil
}
