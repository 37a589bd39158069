// Package agent runs the tool-calling conversation with a chat-completion
// model.
//
// An Agent holds a persona (name, role, instructions), a set of Tools and a
// Model. Each user turn sends the system prompt, the session history and the
// new input; while the model answers with tool calls the agent executes them,
// appends the results and asks again, up to MaxToolRounds. The agent makes no
// retrieval decisions of its own.
//
// Run returns the whole Response. Stream reports progress as typed Events:
//
//	resp, err := a.Stream(ctx, history, input, func(ev agent.Event) error {
//	    switch ev.Kind {
//	    case agent.EventRunContent:
//	        fmt.Print(ev.Content)
//	    }
//	    return nil
//	})
package agent
