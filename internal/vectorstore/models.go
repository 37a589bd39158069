package vectorstore

import (
	"fmt"
	"strconv"
)

// Document is a chunk of text to index.
type Document struct {
	// ID is generated when empty.
	ID      string
	Content string
	// Metadata holds filterable attributes such as source and categoria.
	Metadata map[string]interface{}
}

// SearchResult is one hit from Search.
type SearchResult struct {
	ID       string
	Content  string
	Metadata map[string]interface{}
	// Score is cosine similarity, higher is better.
	Score float32
	// Distance is cosine distance, 1 - Score.
	Distance float32
}

// MetadataString returns metadata[key] as a string, or "" when absent.
func (r SearchResult) MetadataString(key string) string {
	v, ok := r.Metadata[key]
	if !ok || v == nil {
		return ""
	}
	return stringify(v)
}

func newResult(id, content string, metadata map[string]interface{}, score float32) SearchResult {
	return SearchResult{
		ID:       id,
		Content:  content,
		Metadata: metadata,
		Score:    score,
		Distance: 1 - score,
	}
}

func stringify(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

// metadataToStrings flattens metadata for backends that only store strings.
func metadataToStrings(metadata map[string]interface{}) map[string]string {
	if metadata == nil {
		return nil
	}
	out := make(map[string]string, len(metadata))
	for k, v := range metadata {
		out[k] = stringify(v)
	}
	return out
}

func metadataFromStrings(metadata map[string]string) map[string]interface{} {
	if metadata == nil {
		return nil
	}
	out := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}
