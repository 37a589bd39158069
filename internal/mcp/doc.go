// Package mcp exposes the retrieval tools over the Model Context Protocol.
//
// The server runs on the stdio transport, so external agents can call the
// same semantic_search, similarity_search_with_relevance and
// search_knowledge_base adapters the chat agent uses. Logs must go to
// stderr while it runs; stdout carries the protocol.
package mcp
