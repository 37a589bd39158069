// Package ingest loads documents into the vector store.
//
// Sources are the built-in sample corpus or a directory of Markdown and
// plain-text files. Files are split into overlapping chunks, tagged with
// their origin (and the git revision when the directory is a repository),
// scrubbed of credentials, and inserted through vectorstore.Store.
// Watch re-ingests files as they change.
package ingest
