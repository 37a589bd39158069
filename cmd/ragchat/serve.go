package main

import (
	"github.com/fyrsmithlabs/ragchat/internal/config"
	httpserver "github.com/fyrsmithlabs/ragchat/internal/http"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var (
		host   string
		port   int
		stream bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the web chat",
		Long: `Serve the web chat page and its JSON API until interrupted.

Endpoints:
  GET  /                    chat page
  GET  /health              liveness
  GET  /metrics             Prometheus metrics
  POST /api/v1/chat         one chat turn (SSE when streaming)
  POST /api/v1/chat/clear   clear the session history
  GET  /api/v1/history      session history
  GET  /api/v1/status       agent, model and index status

Examples:
  ragchat serve
  ragchat serve --host 0.0.0.0 --port 9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			configure := func(cfg *config.Config) {
				if cmd.Flags().Changed("host") {
					cfg.Server.Host = host
				}
				if cmd.Flags().Changed("port") {
					cfg.Server.Port = port
				}
			}
			return withApp(ctx, opts, configure, func(a *app) error {
				ag, err := a.newAgent()
				if err != nil {
					return err
				}
				srvCfg := httpserver.FromAppConfig(a.cfg.Server)
				srvCfg.Stream = stream
				srv, err := httpserver.NewServer(ag, a.store, a.logger.Underlying(), srvCfg)
				if err != nil {
					return err
				}
				cmd.PrintErrf("🌐 Chat disponível em http://%s\n", srv.Addr())
				return srv.Run(ctx)
			})
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "listen address (overrides server.http_host)")
	cmd.Flags().IntVar(&port, "port", 8501, "listen port (overrides server.http_port)")
	cmd.Flags().BoolVar(&stream, "stream", true, "stream chat answers over SSE")
	return cmd
}
