// Package vectorstore stores document chunks with their embeddings and runs
// similarity search over them.
//
// Three backends implement Store:
//   - ChromemStore: embedded chromem-go, in memory or persisted to disk (default)
//   - PGVectorStore: Postgres with the pgvector extension, through langchaingo
//   - QdrantStore: external Qdrant over gRPC
//
// Every backend reports SearchResult.Score as a similarity where higher is
// better and SearchResult.Distance as 1 - Score. A score threshold keeps
// results with Score >= threshold.
//
// NewStore selects a backend from config and wraps it with Prometheus
// instrumentation.
package vectorstore
