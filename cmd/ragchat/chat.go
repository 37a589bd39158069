package main

import (
	"strings"

	"github.com/fyrsmithlabs/ragchat/internal/chat"
	"github.com/spf13/cobra"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var stream bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the agent in the terminal",
		Long: `Start an interactive chat in the terminal. Type 'sair', 'exit' or
'quit' to leave. A failed turn prints an error and the chat continues.

Examples:
  # Streamed answers (default)
  ragchat chat

  # Print each answer only when it is complete
  ragchat chat --stream=false`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return withApp(ctx, opts, nil, func(a *app) error {
				ag, err := a.newAgent()
				if err != nil {
					return err
				}
				console := chat.NewConsole(ag, cmd.InOrStdin(), cmd.OutOrStdout(), chat.ConsoleOptions{
					Name:   ag.Name(),
					Stream: stream,
					Logger: a.logger.Underlying(),
				})
				return console.Run(ctx)
			})
		},
	}

	cmd.Flags().BoolVar(&stream, "stream", true, "stream answers as they are generated")
	return cmd
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	var stream bool

	cmd := &cobra.Command{
		Use:   "ask QUESTION...",
		Short: "Ask a single question and exit",
		Long: `Run one chat turn and print the answer with its sources.

Examples:
  ragchat ask "Quem são os sócios da empresa?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withApp(ctx, opts, nil, func(a *app) error {
				ag, err := a.newAgent()
				if err != nil {
					return err
				}
				console := chat.NewConsole(ag, strings.NewReader(""), cmd.OutOrStdout(), chat.ConsoleOptions{
					Name:   ag.Name(),
					Stream: stream,
					Logger: a.logger.Underlying(),
				})
				return console.Ask(ctx, strings.Join(args, " "))
			})
		},
	}

	cmd.Flags().BoolVar(&stream, "stream", true, "stream the answer as it is generated")
	return cmd
}
