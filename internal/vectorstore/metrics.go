package vectorstore

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationsTotal counts store calls.
	// Labels: provider, operation (init, add, search, count), result (success, error)
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragchat",
			Subsystem: "vectorstore",
			Name:      "operations_total",
			Help:      "Total number of vector store operations",
		},
		[]string{"provider", "operation", "result"},
	)

	// OperationDuration tracks store call latency, embedding time included.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragchat",
			Subsystem: "vectorstore",
			Name:      "operation_duration_seconds",
			Help:      "Duration of vector store operations in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider", "operation"},
	)

	// DocumentsAdded counts indexed chunks.
	DocumentsAdded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ragchat",
			Subsystem: "vectorstore",
			Name:      "documents_added_total",
			Help:      "Total number of documents written to the vector store",
		},
		[]string{"provider"},
	)

	// SearchResults observes how many hits each search returned.
	SearchResults = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ragchat",
			Subsystem: "vectorstore",
			Name:      "search_results",
			Help:      "Number of results returned per search",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20},
		},
		[]string{"provider"},
	)
)

func observe(provider, op string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	OperationsTotal.WithLabelValues(provider, op, result).Inc()
	OperationDuration.WithLabelValues(provider, op).Observe(time.Since(start).Seconds())
}

// instrumentedStore records Prometheus metrics around another Store.
type instrumentedStore struct {
	Store
}

// Instrument wraps s with Prometheus metrics.
func Instrument(s Store) Store {
	if _, ok := s.(*instrumentedStore); ok {
		return s
	}
	return &instrumentedStore{Store: s}
}

func (s *instrumentedStore) Init(ctx context.Context) error {
	start := time.Now()
	err := s.Store.Init(ctx)
	observe(s.Provider(), "init", start, err)
	return err
}

func (s *instrumentedStore) AddDocuments(ctx context.Context, docs []Document) ([]string, error) {
	start := time.Now()
	ids, err := s.Store.AddDocuments(ctx, docs)
	observe(s.Provider(), "add", start, err)
	if err == nil {
		DocumentsAdded.WithLabelValues(s.Provider()).Add(float64(len(ids)))
	}
	return ids, err
}

func (s *instrumentedStore) Search(ctx context.Context, query string, opts SearchOptions) ([]SearchResult, error) {
	start := time.Now()
	results, err := s.Store.Search(ctx, query, opts)
	observe(s.Provider(), "search", start, err)
	if err == nil {
		SearchResults.WithLabelValues(s.Provider()).Observe(float64(len(results)))
	}
	return results, err
}

func (s *instrumentedStore) DeleteDocuments(ctx context.Context, ids []string) error {
	start := time.Now()
	err := s.Store.DeleteDocuments(ctx, ids)
	observe(s.Provider(), "delete", start, err)
	return err
}

func (s *instrumentedStore) Count(ctx context.Context) (int, error) {
	start := time.Now()
	n, err := s.Store.Count(ctx)
	observe(s.Provider(), "count", start, err)
	return n, err
}
