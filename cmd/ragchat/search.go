package main

import (
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/ragchat/internal/retrieval"
	"github.com/spf13/cobra"
)

var searchStyles = map[string]retrieval.Style{
	"semantic":  retrieval.StyleSemantic,
	"relevance": retrieval.StyleRelevance,
	"knowledge": retrieval.StyleKnowledge,
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		k         int
		threshold float64
		filters   map[string]string
		style     string
	)

	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Search the knowledge base without the agent",
		Long: `Run a similarity search and print the hits the way the agent's tools
see them. No chat model is called.

Styles:
  semantic    similarity, source and category per hit (semantic_search)
  relevance   relevance score per hit (similarity_search_with_relevance)
  knowledge   numbered documents with full content (search_knowledge_base)

Examples:
  ragchat search "Quem são os sócios?"
  ragchat search -k 3 --threshold 0.5 --filter categoria=equipe sócios`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, ok := searchStyles[style]
			if !ok {
				return fmt.Errorf("unknown style %q (semantic, relevance, knowledge)", style)
			}

			ctx := cmd.Context()
			return withApp(ctx, opts, nil, func(a *app) error {
				q := retrieval.Query{Text: strings.Join(args, " "), K: k, Filters: filters}
				if cmd.Flags().Changed("threshold") {
					q.Threshold = retrieval.Threshold(float32(threshold))
				}
				res := a.retriever.Search(ctx, q)
				fmt.Fprintln(cmd.OutOrStdout(), res.Text(st))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&k, "k", "k", 0, "number of results (default retrieval.default_k)")
	cmd.Flags().Float64Var(&threshold, "threshold", 0, "drop hits with similarity below this value")
	cmd.Flags().StringToStringVar(&filters, "filter", nil, "metadata filters (key=value,...)")
	cmd.Flags().StringVar(&style, "style", "semantic", "output style: semantic, relevance or knowledge")
	return cmd
}
