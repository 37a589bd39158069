// Package embeddings turns text into vectors for the vector store.
//
// Three providers are available. openai (the default) calls an
// OpenAI-compatible /embeddings endpoint through langchaingo. tei calls a
// Text-Embeddings-Inference server. fastembed runs ONNX models locally and is
// only compiled into cgo builds.
//
// Every Provider satisfies vectorstore.Embedder, which has the same method set
// as langchaingo's embeddings.Embedder.
package embeddings
