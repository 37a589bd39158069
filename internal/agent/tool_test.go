package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThinkTool(t *testing.T) {
	out := ThinkTool{}.Call(context.Background(), `{"title":"Plano","thought":"buscar equipe","action":"semantic_search","confidence":1.4}`)
	require.NotNil(t, out.Reasoning)
	assert.Equal(t, "Plano", out.Reasoning.Title)
	assert.Equal(t, 1.0, out.Reasoning.Confidence)
	assert.Contains(t, out.Content, "Passo registrado: Plano")
	assert.Contains(t, out.Content, "Ação: semantic_search")
	assert.Contains(t, out.Content, "Confiança: 1.00")
}

func TestThinkTool_BadArguments(t *testing.T) {
	for _, raw := range []string{"", "{", `{}`} {
		out := ThinkTool{}.Call(context.Background(), raw)
		assert.Nil(t, out.Reasoning, raw)
		assert.Contains(t, out.Content, "Erro", raw)
	}
}

func TestIsToolCallChunk(t *testing.T) {
	assert.True(t, isToolCallChunk([]byte(`[{"id":"1","type":"function","function":{"name":"x"}}]`)))
	assert.False(t, isToolCallChunk([]byte("[1] Primeiro item")))
	assert.False(t, isToolCallChunk([]byte(`["a","b"]`)))
	assert.False(t, isToolCallChunk([]byte("texto normal")))
}
