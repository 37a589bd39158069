package logging

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace"
)

func TestContextFields_Empty(t *testing.T) {
	assert.Empty(t, ContextFields(context.Background()))
}

func TestContextFields_All(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})

	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = WithSessionID(ctx, "abc")
	ctx = WithRequestID(ctx, "req-1")
	ctx = WithTurn(ctx, 1)

	keys := map[string]bool{}
	for _, f := range ContextFields(ctx) {
		keys[f.Key] = true
	}
	for _, k := range []string{"trace_id", "span_id", "session.id", "request.id", "turn"} {
		assert.True(t, keys[k], k)
	}
}

func TestWithSessionID_RejectsInvalid(t *testing.T) {
	for _, id := range []string{"", "has space", "semi;colon", strings.Repeat("a", 129)} {
		ctx := WithSessionID(context.Background(), id)
		assert.Empty(t, SessionIDFromContext(ctx), id)
	}
	ctx := WithRequestID(context.Background(), "bad\nline")
	assert.Empty(t, RequestIDFromContext(ctx))
}

func TestTurnFromContext(t *testing.T) {
	_, ok := TurnFromContext(context.Background())
	assert.False(t, ok)

	turn, ok := TurnFromContext(WithTurn(context.Background(), 4))
	assert.True(t, ok)
	assert.Equal(t, 4, turn)
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))

	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)
	FromContext(ctx).Info(ctx, "via context")
	tl.AssertLogged(t, 0, "via context")
}

func TestTestLogger_TraceCorrelation(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	spanID, _ := trace.SpanIDFromHex("0102030405060708")
	ctx := trace.ContextWithSpanContext(context.Background(),
		trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID}))

	tl := NewTestLogger()
	tl.Info(ctx, "correlated")
	tl.AssertTraceCorrelation(t, "correlated")
}
