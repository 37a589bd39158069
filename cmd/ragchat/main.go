// Package main implements the ragchat CLI: the console chat, the web chat
// server, corpus ingestion, direct searches and the MCP tool server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// rootOptions are the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "ragchat",
		Short: "Portuguese RAG chat agent over a company knowledge base",
		Long: `ragchat answers questions about a company knowledge base. The agent
searches a vector index of the corpus through three retrieval tools and
replies in Portuguese, citing the documents it used.

Configuration comes from ~/.config/ragchat/config.yaml, a .env file and
RAGCHAT_* environment variables. OPENROUTER_API_KEY and OPENAI_API_KEY are
read as well.

Examples:
  # Index the bundled sample corpus, then chat in the terminal
  ragchat ingest --samples
  ragchat chat

  # Serve the web chat on a different port
  ragchat serve --port 9000`,
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.config/ragchat/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the config")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level (trace, debug, info, warn, error)")

	cmd.AddCommand(
		newChatCmd(opts),
		newAskCmd(opts),
		newServeCmd(opts),
		newIngestCmd(opts),
		newSearchCmd(opts),
		newMCPCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the ragchat version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "ragchat %s\n", version)
		},
	}
}
