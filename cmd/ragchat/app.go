package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/ragchat/internal/agent"
	"github.com/fyrsmithlabs/ragchat/internal/config"
	"github.com/fyrsmithlabs/ragchat/internal/embeddings"
	"github.com/fyrsmithlabs/ragchat/internal/logging"
	"github.com/fyrsmithlabs/ragchat/internal/retrieval"
	"github.com/fyrsmithlabs/ragchat/internal/telemetry"
	"github.com/fyrsmithlabs/ragchat/internal/vectorstore"
	"go.uber.org/zap"
)

// Constructors for the remote dependencies. Tests replace them with offline
// fakes.
var (
	newEmbedder = func(cfg config.EmbeddingsConfig, logger *zap.Logger) (embeddings.Provider, error) {
		return embeddings.NewProvider(embeddings.ConfigFromApp(cfg), logger)
	}
	newModel = func(cfg config.LLMConfig) (agent.Model, error) {
		return agent.NewOpenAIModel(cfg)
	}
)

// app holds the dependencies built for one command invocation.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	embedder  embeddings.Provider
	store     vectorstore.Store
	retriever *retrieval.Retriever
}

// newApp loads configuration and sets up logging and telemetry. Storage is
// opened separately by openStore so commands that never search stay offline.
func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	if err := config.LoadDotEnv(opts.envFile); err != nil {
		return nil, err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}

	logCfg, err := logging.FromAppConfig(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logging config: %w", err)
	}
	logger, err := logging.NewLogger(logCfg, nil)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	tel, err := telemetry.New(ctx, telemetry.FromAppConfig(cfg.Telemetry, version), logger.Underlying())
	if err != nil {
		// Telemetry is optional; run without it.
		logger.Warn(ctx, "telemetry disabled", zap.Error(err))
		tel = nil
	}
	if lp := tel.LoggerProvider(); lp != nil {
		if bridged, err := logging.NewLogger(logCfg, lp); err == nil {
			logger = bridged
		}
	}

	return &app{cfg: cfg, logger: logger, telemetry: tel}, nil
}

// openStore builds the embedder, the vector store and the retriever.
func (a *app) openStore(ctx context.Context) error {
	log := a.logger.Underlying()

	embedder, err := newEmbedder(a.cfg.Embeddings, log)
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	a.embedder = embedder

	store, err := vectorstore.NewStore(ctx, a.cfg.VectorStore, embedder, log)
	if err != nil {
		return fmt.Errorf("creating vector store: %w", err)
	}
	a.store = store
	if err := store.Init(ctx); err != nil {
		return fmt.Errorf("initializing vector store: %w", err)
	}

	r, err := retrieval.New(store, log, retrieval.WithDefaultK(a.cfg.Retrieval.DefaultK))
	if err != nil {
		return err
	}
	a.retriever = r
	return nil
}

// tools returns the retrieval tools configured for this app.
func (a *app) tools() []agent.Tool {
	return retrieval.Tools(a.retriever, a.cfg.Retrieval)
}

// newAgent builds the chat agent with the retrieval tools and think.
// openStore must have succeeded first.
func (a *app) newAgent() (*agent.Agent, error) {
	model, err := newModel(a.cfg.LLM)
	if err != nil {
		return nil, err
	}
	tools := append(a.tools(), agent.ThinkTool{})
	return agent.New(agent.FromAppConfig(a.cfg.Agent, a.cfg.LLM), model, tools, a.logger.Underlying())
}

// Close releases everything newApp and openStore acquired.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	if a.embedder != nil {
		errs = append(errs, a.embedder.Close())
	}
	if a.telemetry != nil {
		errs = append(errs, a.telemetry.Shutdown(ctx))
	}
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

// withApp runs fn with a fully opened app and closes it afterwards.
// configure, when set, adjusts the loaded config before storage is opened.
func withApp(ctx context.Context, opts *rootOptions, configure func(*config.Config), fn func(*app) error) (err error) {
	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	if configure != nil {
		configure(a.cfg)
	}
	defer func() {
		if cerr := a.Close(context.WithoutCancel(ctx)); cerr != nil && err == nil {
			a.logger.Warn(ctx, "shutdown incomplete", zap.Error(cerr))
		}
	}()
	if err := a.openStore(ctx); err != nil {
		return err
	}
	return fn(a)
}
