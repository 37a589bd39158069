package http

import (
	"context"
	_ "embed"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragchat/internal/agent"
	"github.com/fyrsmithlabs/ragchat/internal/chat"
	"github.com/fyrsmithlabs/ragchat/internal/logging"
)

// SessionCookie carries the chat session ID.
const SessionCookie = "ragchat_session"

// MaxMessageLen bounds a single chat message, in bytes.
const MaxMessageLen = 8 << 10

//go:embed static/index.html
var indexHTML []byte

func (s *Server) handleIndex(c echo.Context) error {
	return c.Blob(http.StatusOK, echo.MIMETextHTMLCharsetUTF8, indexHTML)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// session returns the caller's session, issuing a cookie for new ones.
func (s *Server) session(c echo.Context) *chat.Session {
	var id string
	if ck, err := c.Cookie(SessionCookie); err == nil {
		id = ck.Value
	}
	sess := s.sessions.Get(id)
	if sess.ID != id {
		c.SetCookie(&http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

// handleChat runs one turn and streams every render as an SSE event,
// followed by a "done" event.
func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid chat request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message field is required")
	}
	if len(msg) > MaxMessageLen {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "message too long")
	}

	sess := s.session(c)
	if !s.limiter.allow(sess.ID) {
		return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests")
	}

	ctx := logging.WithSessionID(c.Request().Context(), sess.ID)
	if !s.config.Stream {
		return s.chatJSON(ctx, c, sess, msg)
	}

	sse := newSSEWriter(c.Response())
	sse.start()

	text, err := chat.RunTurn(ctx, s.agent, sess, msg, true, func(r chat.Render) error {
		return sse.send(r.Kind.String(), r)
	})

	done := s.done(sess, text, err)
	if sendErr := sse.send("done", done); sendErr != nil {
		s.logger.Debug("client went away", zap.String("session.id", sess.ID), zap.Error(sendErr))
	}
	return nil
}

// chatJSON runs a blocking turn and answers with the done payload as JSON.
func (s *Server) chatJSON(ctx context.Context, c echo.Context, sess *chat.Session, msg string) error {
	var refs []agent.Reference
	text, err := chat.RunTurn(ctx, s.agent, sess, msg, false, func(r chat.Render) error {
		if r.Kind == chat.RenderSources {
			refs = append(refs, r.References...)
		}
		return nil
	})

	done := s.done(sess, text, err)
	done.References = refs
	return c.JSON(http.StatusOK, done)
}

func (s *Server) done(sess *chat.Session, text string, err error) DoneEvent {
	done := DoneEvent{SessionID: sess.ID, Content: text}
	if err != nil {
		done.Error = err.Error()
		s.logger.Warn("chat turn failed",
			zap.String("session.id", sess.ID),
			zap.Error(err))
	}
	return done
}

// existingSession returns the caller's session without creating one.
func (s *Server) existingSession(c echo.Context) (*chat.Session, bool) {
	ck, err := c.Cookie(SessionCookie)
	if err != nil || ck.Value == "" {
		return nil, false
	}
	return s.sessions.Lookup(ck.Value)
}

func (s *Server) handleClear(c echo.Context) error {
	if sess, ok := s.existingSession(c); ok {
		sess.Clear()
	}
	return c.JSON(http.StatusOK, ClearResponse{Status: "cleared"})
}

// handleEndSession drops the session and expires its cookie.
func (s *Server) handleEndSession(c echo.Context) error {
	if sess, ok := s.existingSession(c); ok {
		s.sessions.Delete(sess.ID)
	}
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, ClearResponse{Status: "ended"})
}

func (s *Server) handleHistory(c echo.Context) error {
	sess, ok := s.existingSession(c)
	if !ok {
		return c.JSON(http.StatusOK, HistoryResponse{Messages: []agent.Message{}})
	}
	return c.JSON(http.StatusOK, HistoryResponse{SessionID: sess.ID, Messages: sess.Messages()})
}

func (s *Server) handleStatus(c echo.Context) error {
	docs, err := s.store.Count(c.Request().Context())
	if err != nil {
		s.logger.Warn("counting documents", zap.Error(err))
		docs = -1
	}
	return c.JSON(http.StatusOK, StatusResponse{
		Status:    "ok",
		Agent:     s.agent.Name(),
		Model:     s.agent.ModelID(),
		Provider:  s.store.Provider(),
		Documents: docs,
		Sessions:  s.sessions.Len(),
		Streaming: s.config.Stream,
	})
}
