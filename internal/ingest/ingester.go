package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ragchat/internal/secrets"
	"github.com/fyrsmithlabs/ragchat/internal/vectorstore"
)

// DefaultBatchSize bounds the documents sent to the store per call.
const DefaultBatchSize = 64

var redactedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "ragchat",
	Subsystem: "ingest",
	Name:      "secrets_redacted_total",
	Help:      "Secrets redacted from documents before indexing, by rule",
}, []string{"rule"})

// Ingester scrubs documents and inserts them into a store.
type Ingester struct {
	store     vectorstore.Store
	scrubber  secrets.Scrubber
	logger    *zap.Logger
	batchSize int
}

// NewIngester returns an Ingester. A nil scrubber disables scrubbing.
func NewIngester(store vectorstore.Store, scrubber secrets.Scrubber, logger *zap.Logger) *Ingester {
	if scrubber == nil {
		scrubber = secrets.NoopScrubber{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingester{store: store, scrubber: scrubber, logger: logger, batchSize: DefaultBatchSize}
}

// Ingest scrubs and stores docs, returning the stored IDs in input order.
// Documents with blank content are skipped.
func (i *Ingester) Ingest(ctx context.Context, docs []vectorstore.Document) ([]string, error) {
	prepared := make([]vectorstore.Document, 0, len(docs))
	for _, d := range docs {
		if strings.TrimSpace(d.Content) == "" {
			i.logger.Warn("skipping blank document", zap.String("id", d.ID))
			continue
		}
		res := i.scrubber.Scrub(d.Content)
		if res.HasFindings() {
			for rule, n := range res.ByRule {
				redactedTotal.WithLabelValues(rule).Add(float64(n))
			}
			i.logger.Warn("redacted secrets before indexing",
				zap.String("id", d.ID),
				zap.Any(MetaName, d.Metadata[MetaName]),
				zap.Int("findings", len(res.Findings)),
				zap.Any("by_rule", res.ByRule))
		}
		d.Content = res.Scrubbed
		prepared = append(prepared, d)
	}
	if len(prepared) == 0 {
		return nil, vectorstore.ErrEmptyDocuments
	}

	ids := make([]string, 0, len(prepared))
	for start := 0; start < len(prepared); start += i.batchSize {
		end := min(start+i.batchSize, len(prepared))
		batch, err := i.store.AddDocuments(ctx, prepared[start:end])
		if err != nil {
			return ids, fmt.Errorf("adding documents %d-%d: %w", start, end-1, err)
		}
		ids = append(ids, batch...)
	}

	i.logger.Info("documents ingested",
		zap.Int("count", len(ids)),
		zap.String("provider", i.store.Provider()))
	return ids, nil
}

// Remove deletes documents by ID. Unknown IDs are ignored.
func (i *Ingester) Remove(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := i.store.DeleteDocuments(ctx, ids); err != nil {
		return fmt.Errorf("removing %d documents: %w", len(ids), err)
	}
	i.logger.Info("documents removed",
		zap.Int("count", len(ids)),
		zap.String("provider", i.store.Provider()))
	return nil
}
