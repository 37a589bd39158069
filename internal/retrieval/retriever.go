package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/ragchat/internal/vectorstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("ragchat.retrieval")

var searchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "ragchat",
		Subsystem: "retrieval",
		Name:      "searches_total",
		Help:      "Retrieval searches by outcome",
	},
	[]string{"status"},
)

// DefaultK is used when a query asks for k <= 0 and the Retriever has no
// default of its own.
const DefaultK = 5

// Query is one retrieval request.
type Query struct {
	Text    string
	K       int
	Filters map[string]string
	// Threshold, when set, drops hits with Score below it.
	Threshold *float32
}

func (q Query) threshold() float32 {
	if q.Threshold == nil {
		return 0
	}
	return *q.Threshold
}

// Threshold returns a pointer to t, for Query literals.
func Threshold(t float32) *float32 { return &t }

// Retriever runs queries against one store.
type Retriever struct {
	store    vectorstore.Store
	logger   *zap.Logger
	defaultK int
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithDefaultK sets the k used when a query's K is not positive.
func WithDefaultK(k int) Option {
	return func(r *Retriever) {
		if k > 0 {
			r.defaultK = k
		}
	}
}

// New returns a Retriever over store.
func New(store vectorstore.Store, logger *zap.Logger, opts ...Option) (*Retriever, error) {
	if store == nil {
		return nil, errors.New("retrieval: store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Retriever{store: store, logger: logger, defaultK: DefaultK}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Store returns the underlying store.
func (r *Retriever) Store() vectorstore.Store { return r.store }

// Search runs q. It never returns an error and never panics; faults come back
// as StatusFailed.
func (r *Retriever) Search(ctx context.Context, q Query) (res Result) {
	ctx, span := tracer.Start(ctx, "Retriever.Search")
	defer span.End()

	if q.K <= 0 {
		q.K = r.defaultK
	}
	res = Result{Query: q}
	span.SetAttributes(attribute.Int("k", q.K), attribute.Int("filters", len(q.Filters)))

	defer func() {
		if p := recover(); p != nil {
			res = Result{Query: q, Status: StatusFailed, Reason: fmt.Sprintf("%v", p)}
			r.logger.Error("retrieval panicked", zap.Any("panic", p))
		}
		searchesTotal.WithLabelValues(res.Status.String()).Inc()
		span.SetAttributes(attribute.String("status", res.Status.String()), attribute.Int("hits", len(res.Hits)))
	}()

	if strings.TrimSpace(q.Text) == "" {
		res.Status = StatusFailed
		res.Reason = "consulta vazia"
		return res
	}
	if t := q.threshold(); t < 0 || t > 1 {
		res.Status = StatusFailed
		res.Reason = fmt.Sprintf("threshold deve estar entre 0 e 1, recebido %.2f", t)
		return res
	}

	results, err := r.store.Search(ctx, q.Text, vectorstore.SearchOptions{K: q.K, Filters: q.Filters})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("vector search failed", zap.String("query", q.Text), zap.Error(err))
		res.Status = StatusFailed
		res.Reason = err.Error()
		return res
	}
	if len(results) == 0 {
		res.Status = StatusEmpty
		return res
	}

	hits := make([]Hit, 0, min(len(results), q.K))
	for _, sr := range results {
		if q.Threshold != nil && sr.Score < *q.Threshold {
			continue
		}
		if len(hits) == q.K {
			break
		}
		hits = append(hits, Hit{
			Rank:     len(hits) + 1,
			ID:       sr.ID,
			Content:  sr.Content,
			Score:    sr.Score,
			Distance: sr.Distance,
			Metadata: sr.Metadata,
		})
	}
	if len(hits) == 0 {
		res.Status = StatusBelowThreshold
		r.logger.Debug("all candidates below threshold",
			zap.String("query", q.Text),
			zap.Int("candidates", len(results)),
			zap.Float32("threshold", q.threshold()),
		)
		return res
	}

	res.Status = StatusOK
	res.Hits = hits
	return res
}
