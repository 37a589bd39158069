// Package retrieval adapts vector store searches into results a tool-calling
// model can read.
//
// A Retriever owns an injected vectorstore.Store. Search never returns a Go
// error: store faults, empty indexes and threshold misses become a typed
// Result whose Status tells them apart, and Result.Text renders the string
// handed back to the model.
//
// The tools in this package (semantic_search, similarity_search_with_relevance,
// search_knowledge_base) implement agent.Tool over a shared Retriever and are
// also exposed by the MCP server.
package retrieval
