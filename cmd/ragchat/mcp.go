package main

import (
	"github.com/fyrsmithlabs/ragchat/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Expose the retrieval tools over MCP on stdio",
		Long: `Run an MCP server on stdin/stdout exposing semantic_search,
similarity_search_with_relevance and search_knowledge_base, so other agents
can search the knowledge base. Logs go to stderr.

Examples:
  # Register with an MCP client
  ragchat mcp --log-level warn`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withApp(ctx, opts, nil, func(a *app) error {
				srv, err := mcp.NewServer(&mcp.Config{
					Name:    "ragchat",
					Version: version,
					Logger:  a.logger.Underlying(),
				}, a.tools())
				if err != nil {
					return err
				}
				return srv.Run(ctx)
			})
		},
	}
}
