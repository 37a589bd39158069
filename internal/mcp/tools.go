package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragchat/internal/agent"
)

// searchInput covers the arguments of every retrieval tool. Tools ignore
// fields they do not use.
type searchInput struct {
	Query          string            `json:"query" jsonschema:"Texto da consulta"`
	K              int               `json:"k,omitempty" jsonschema:"Número máximo de documentos"`
	ScoreThreshold *float64          `json:"score_threshold,omitempty" jsonschema:"Similaridade mínima entre 0 e 1 (apenas semantic_search)"`
	Filters        map[string]string `json:"filters,omitempty" jsonschema:"Filtros de metadados, por exemplo categoria"`
}

type searchOutput struct {
	Content    string            `json:"content" jsonschema:"Resultado formatado da busca"`
	References []agent.Reference `json:"references,omitempty" jsonschema:"Documentos consultados"`
}

func (s *Server) registerTool(t agent.Tool) {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        t.Name(),
		Description: t.Description(),
	}, func(ctx context.Context, req *mcp.CallToolRequest, args searchInput) (*mcp.CallToolResult, searchOutput, error) {
		start := time.Now()
		s.metrics.IncrementActive(ctx, t.Name())
		defer s.metrics.DecrementActive(ctx, t.Name())

		raw, err := json.Marshal(args)
		if err != nil {
			s.metrics.RecordInvocation(ctx, t.Name(), time.Since(start), err)
			return nil, searchOutput{}, fmt.Errorf("encoding arguments: %w", err)
		}

		out := t.Call(ctx, string(raw))
		var callErr error
		if out.Failed {
			callErr = errors.New(out.Content)
		}
		s.metrics.RecordInvocation(ctx, t.Name(), time.Since(start), callErr)
		s.logger.Debug("mcp tool call",
			zap.String("tool", t.Name()),
			zap.Duration("duration", time.Since(start)),
			zap.Bool("failed", callErr != nil))

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: out.Content}},
			IsError: callErr != nil,
		}, searchOutput{Content: out.Content, References: out.References}, nil
	})
}
