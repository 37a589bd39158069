package http

import "github.com/fyrsmithlabs/ragchat/internal/agent"

// ChatRequest is the request body for POST /api/v1/chat.
type ChatRequest struct {
	Message string `json:"message"`
}

// DoneEvent is the payload of the final "done" SSE event, and the whole
// response body when streaming is off.
type DoneEvent struct {
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
	Error     string `json:"error,omitempty"`
	// References is only set on JSON responses; streams send them as a
	// "sources" event.
	References []agent.Reference `json:"references,omitempty"`
}

// HistoryResponse is the response body for GET /api/v1/history.
type HistoryResponse struct {
	SessionID string          `json:"session_id"`
	Messages  []agent.Message `json:"messages"`
}

// ClearResponse is the response body for POST /api/v1/chat/clear and
// DELETE /api/v1/session.
type ClearResponse struct {
	Status string `json:"status"`
}

// StatusResponse is the response body for GET /api/v1/status.
type StatusResponse struct {
	Status    string `json:"status"`
	Agent     string `json:"agent"`
	Model     string `json:"model"`
	Provider  string `json:"provider"`
	Documents int    `json:"documents"`
	Sessions  int    `json:"sessions"`
	Streaming bool   `json:"streaming"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
