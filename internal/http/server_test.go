package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragchat/internal/agent"
	"github.com/fyrsmithlabs/ragchat/internal/chat"
	"github.com/fyrsmithlabs/ragchat/internal/ingest"
	"github.com/fyrsmithlabs/ragchat/internal/vectorstore"
)

type fakeAgent struct {
	histories [][]agent.Message
	err       error
}

func (f *fakeAgent) Name() string    { return "Professor" }
func (f *fakeAgent) ModelID() string { return "test/model" }

func (f *fakeAgent) Run(ctx context.Context, history []agent.Message, input string) (agent.Response, error) {
	return f.Stream(ctx, history, input, func(agent.Event) error { return nil })
}

func (f *fakeAgent) Stream(_ context.Context, history []agent.Message, input string, emit agent.EmitFunc) (agent.Response, error) {
	f.histories = append(f.histories, history)
	if f.err != nil {
		return agent.Response{}, f.err
	}
	refs := []agent.Reference{{Query: input, Documents: []agent.ReferenceDocument{{Name: "equipe", Source: "equipe"}}}}
	events := []agent.Event{
		{Kind: agent.EventToolCallStarted, Tool: &agent.ToolCall{Name: "search_knowledge_base"}},
		{Kind: agent.EventToolCallCompleted, Tool: &agent.ToolCall{Name: "search_knowledge_base"}},
		{Kind: agent.EventRunContent, Content: "Arthur, "},
		{Kind: agent.EventRunContent, Content: "Rossetto e Gordon"},
		{Kind: agent.EventRunCompleted, Content: "Arthur, Rossetto e Gordon", References: refs},
	}
	for _, ev := range events {
		if err := emit(ev); err != nil {
			return agent.Response{}, err
		}
	}
	return agent.Response{Content: "Arthur, Rossetto e Gordon", References: refs}, nil
}

type sseEvent struct {
	Event string
	Data  string
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	var cur sseEvent
	sc := bufio.NewScanner(strings.NewReader(body))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			cur.Event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			cur.Data = strings.TrimPrefix(line, "data: ")
		case line == "":
			if cur.Event != "" {
				events = append(events, cur)
			}
			cur = sseEvent{}
		}
	}
	return events
}

func eventNames(events []sseEvent) []string {
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Event
	}
	return names
}

func setupTestServer(t *testing.T, a Agent, cfg *Config) *Server {
	t.Helper()
	store := vectorstore.NewTestStore(t, ingest.SampleDocuments()...)
	s, err := NewServer(a, store, zap.NewNop(), cfg)
	require.NoError(t, err)
	return s
}

func postChat(s *Server, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", SessionCookie)
	return nil
}

func TestNewServer(t *testing.T) {
	store := vectorstore.NewTestStore(t)

	t.Run("uses defaults when config is nil", func(t *testing.T) {
		s, err := NewServer(&fakeAgent{}, store, zap.NewNop(), nil)
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:8501", s.Addr())
		assert.True(t, s.config.Stream)
	})

	t.Run("requires agent, store and logger", func(t *testing.T) {
		_, err := NewServer(nil, store, zap.NewNop(), nil)
		assert.ErrorContains(t, err, "agent cannot be nil")
		_, err = NewServer(&fakeAgent{}, nil, zap.NewNop(), nil)
		assert.ErrorContains(t, err, "store cannot be nil")
		_, err = NewServer(&fakeAgent{}, store, nil, nil)
		assert.ErrorContains(t, err, "logger is required")
	})
}

func TestHandleHealthAndIndex(t *testing.T) {
	s := setupTestServer(t, &fakeAgent{}, nil)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "/api/v1/chat")
}

func TestHandleChat_Streams(t *testing.T) {
	a := &fakeAgent{}
	s := setupTestServer(t, a, &Config{Stream: true})

	rec := postChat(s, `{"message":"Quem são os sócios?"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := parseSSE(t, rec.Body.String())
	assert.Equal(t, []string{"info", "success", "content", "content", "content", "sources", "done"}, eventNames(events))

	var first chat.Render
	require.NoError(t, json.Unmarshal([]byte(events[0].Data), &first))
	assert.Equal(t, "🔍 Buscando na base de conhecimento...", first.Text)

	var final chat.Render
	require.NoError(t, json.Unmarshal([]byte(events[4].Data), &final))
	assert.True(t, final.Final)
	assert.Equal(t, "Arthur, Rossetto e Gordon", final.Text)

	var done DoneEvent
	require.NoError(t, json.Unmarshal([]byte(events[6].Data), &done))
	assert.Equal(t, "Arthur, Rossetto e Gordon", done.Content)
	assert.Empty(t, done.Error)

	cookie := sessionCookie(t, rec)
	assert.Equal(t, cookie.Value, done.SessionID)

	// The second turn sees the first one as history.
	rec = postChat(s, `{"message":"E a missão?"}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, a.histories, 2)
	assert.Equal(t, []agent.Message{
		{Role: agent.RoleUser, Content: "Quem são os sócios?"},
		{Role: agent.RoleAssistant, Content: "Arthur, Rossetto e Gordon"},
	}, a.histories[1])
}

func TestHandleChat_Blocking(t *testing.T) {
	a := &fakeAgent{}
	s := setupTestServer(t, a, &Config{Stream: false})

	rec := postChat(s, `{"message":"oi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON)

	var done DoneEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &done))
	assert.Equal(t, "Arthur, Rossetto e Gordon", done.Content)
	assert.Empty(t, done.Error)
	assert.Equal(t, sessionCookie(t, rec).Value, done.SessionID)
	require.Len(t, done.References, 1)
	assert.Equal(t, "equipe", done.References[0].Documents[0].Name)
	assert.Len(t, a.histories, 1)
}

func TestHandleChat_BlockingAgentError(t *testing.T) {
	s := setupTestServer(t, &fakeAgent{err: errors.New("401 unauthorized")}, &Config{Stream: false})

	rec := postChat(s, `{"message":"oi"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var done DoneEvent
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &done))
	assert.Equal(t, "401 unauthorized", done.Error)
	assert.Empty(t, done.Content)
}

func TestHandleChat_AgentError(t *testing.T) {
	s := setupTestServer(t, &fakeAgent{err: errors.New("401 unauthorized")}, &Config{Stream: true})

	rec := postChat(s, `{"message":"oi"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	events := parseSSE(t, rec.Body.String())
	require.Equal(t, []string{"error", "done"}, eventNames(events))
	assert.Contains(t, events[0].Data, "❌ Erro durante execução: 401 unauthorized")

	var done DoneEvent
	require.NoError(t, json.Unmarshal([]byte(events[1].Data), &done))
	assert.Equal(t, "401 unauthorized", done.Error)
}

func TestHandleChat_BadRequests(t *testing.T) {
	s := setupTestServer(t, &fakeAgent{}, nil)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"invalid json", `{`, http.StatusBadRequest},
		{"blank message", `{"message":"   "}`, http.StatusBadRequest},
		{"too long", `{"message":"` + strings.Repeat("a", MaxMessageLen+1) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, postChat(s, tt.body).Code)
		})
	}
}

func TestHandleChat_RateLimited(t *testing.T) {
	s := setupTestServer(t, &fakeAgent{}, &Config{Stream: true, RateLimit: 0.001, RateBurst: 1})

	rec := postChat(s, `{"message":"um"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)

	assert.Equal(t, http.StatusTooManyRequests, postChat(s, `{"message":"dois"}`, cookie).Code)

	// Another session has its own bucket.
	assert.Equal(t, http.StatusOK, postChat(s, `{"message":"três"}`).Code)
}

func TestHistoryAndClear(t *testing.T) {
	s := setupTestServer(t, &fakeAgent{}, &Config{Stream: true})
	cookie := sessionCookie(t, postChat(s, `{"message":"Quem são os sócios?"}`))

	get := func() HistoryResponse {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var h HistoryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &h))
		return h
	}

	h := get()
	assert.Equal(t, cookie.Value, h.SessionID)
	assert.Len(t, h.Messages, 2)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat/clear", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.JSONEq(t, `{"status":"cleared"}`, rec.Body.String())

	assert.Empty(t, get().Messages)
}

func TestHistory_UnknownSessionIsNotCreated(t *testing.T) {
	s := setupTestServer(t, &fakeAgent{}, &Config{Stream: true})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"session_id":"","messages":[]}`, rec.Body.String())
	assert.Empty(t, rec.Result().Cookies())
	assert.Zero(t, s.sessions.Len())
}

func TestEndSession(t *testing.T) {
	s := setupTestServer(t, &fakeAgent{}, &Config{Stream: true})
	cookie := sessionCookie(t, postChat(s, `{"message":"Quem são os sócios?"}`))
	require.Equal(t, 1, s.sessions.Len())

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/session", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ended"}`, rec.Body.String())

	_, ok := s.sessions.Lookup(cookie.Value)
	assert.False(t, ok)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)

	// The next turn starts a fresh session.
	next := sessionCookie(t, postChat(s, `{"message":"E a missão?"}`, cookie))
	assert.NotEqual(t, cookie.Value, next.Value)
}

func TestHandleStatus(t *testing.T) {
	s := setupTestServer(t, &fakeAgent{}, &Config{Stream: true})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var st StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.Equal(t, StatusResponse{
		Status:    "ok",
		Agent:     "Professor",
		Model:     "test/model",
		Provider:  "chromem",
		Documents: 4,
		Sessions:  0,
		Streaming: true,
	}, st)
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t, &fakeAgent{}, nil)
	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ragchat_http_requests_total")
}

func TestServer_Run(t *testing.T) {
	s := setupTestServer(t, &fakeAgent{}, &Config{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)
	assert.NoError(t, s.Run(ctx))
}
