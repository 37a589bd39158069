package main

import (
	"errors"
	"fmt"

	"github.com/fyrsmithlabs/ragchat/internal/config"
	"github.com/fyrsmithlabs/ragchat/internal/ingest"
	"github.com/fyrsmithlabs/ragchat/internal/secrets"
	"github.com/fyrsmithlabs/ragchat/internal/vectorstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newIngestCmd(opts *rootOptions) *cobra.Command {
	var (
		samples  bool
		dir      string
		meta     map[string]string
		recreate bool
		watch    bool
		showIDs  bool
	)

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Index documents into the vector store",
		Long: `Load documents, redact secrets and add them to the vector store.

--samples indexes the bundled sample corpus. --dir loads every .md,
.markdown and .txt file under a directory, split into chunks. Chunk IDs are
derived from the file path, so re-ingesting a file overwrites its chunks on
chromem and qdrant.

Examples:
  # Start over with the sample corpus
  ragchat ingest --samples --recreate

  # Index a docs folder, tagging every chunk
  ragchat ingest --dir ./docs --meta categoria=manual

  # Keep re-indexing files as they change
  ragchat ingest --dir ./docs --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !samples && dir == "" {
				return errors.New("nothing to ingest: pass --samples or --dir")
			}
			if watch && dir == "" {
				return errors.New("--watch requires --dir")
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			configure := func(cfg *config.Config) {
				if recreate {
					cfg.VectorStore.Recreate = true
				}
				cfg.Ingest.AllowlistPath = config.ExpandPath(cfg.Ingest.AllowlistPath)
			}

			return withApp(ctx, opts, configure, func(a *app) error {
				log := a.logger.Underlying()

				scrubCfg, err := secrets.FromIngestConfig(a.cfg.Ingest)
				if err != nil {
					return fmt.Errorf("secret scrubbing config: %w", err)
				}
				scrubber, err := secrets.New(scrubCfg)
				if err != nil {
					return fmt.Errorf("creating scrubber: %w", err)
				}

				loader := ingest.NewLoader(a.cfg.Ingest)
				if path := a.cfg.Ingest.AllowlistPath; path != "" {
					allow, err := secrets.LoadAllowlist(path)
					if err != nil {
						return err
					}
					loader.SkipPath = allow.SkipsPath
				}
				ingester := ingest.NewIngester(a.store, scrubber, log)

				var docs []vectorstore.Document
				if samples {
					docs = append(docs, ingest.SampleDocuments()...)
				}
				if dir != "" {
					loaded, err := loader.LoadDirectory(ctx, dir, meta)
					if err != nil && !(watch && errors.Is(err, ingest.ErrNoDocuments)) {
						return err
					}
					docs = append(docs, loaded...)
				}

				if len(docs) > 0 {
					ids, err := ingester.Ingest(ctx, docs)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "✅ %d documentos indexados (%s)\n", len(ids), a.store.Provider())
					if showIDs {
						for _, id := range ids {
							fmt.Fprintln(out, id)
						}
					}
				}

				if !watch {
					return nil
				}
				w := ingest.NewWatcher(dir, loader, ingester, meta, log)
				w.OnIngest = func(path string, ids []string, err error) {
					if err != nil {
						log.Warn("re-ingest failed", zap.String("path", path), zap.Error(err))
						return
					}
					fmt.Fprintf(out, "🔄 %s: %d trechos reindexados\n", path, len(ids))
				}
				fmt.Fprintf(out, "👀 Observando %s (Ctrl+C para sair)\n", dir)
				return w.Run(ctx)
			})
		},
	}

	cmd.Flags().BoolVar(&samples, "samples", false, "index the bundled sample corpus")
	cmd.Flags().StringVar(&dir, "dir", "", "directory of .md/.txt files to index")
	cmd.Flags().StringToStringVar(&meta, "meta", nil, "metadata added to every chunk (key=value,...)")
	cmd.Flags().BoolVar(&recreate, "recreate", false, "drop the collection's contents first")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-index files under --dir when they change")
	cmd.Flags().BoolVar(&showIDs, "ids", false, "print the stored document IDs")
	return cmd
}
