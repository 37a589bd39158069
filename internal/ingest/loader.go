package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/fyrsmithlabs/ragchat/internal/config"
	"github.com/fyrsmithlabs/ragchat/internal/ignore"
	"github.com/fyrsmithlabs/ragchat/internal/vectorstore"
)

// ErrNoDocuments is returned when a directory holds no loadable files.
var ErrNoDocuments = errors.New("no documents found")

// Metadata keys attached to every loaded chunk.
const (
	MetaSource   = "source"
	MetaName     = "name"
	MetaChunk    = "chunk"
	MetaRevision = "git_revision"
	MetaBranch   = "git_branch"
)

var supportedExt = map[string]bool{".md": true, ".markdown": true, ".txt": true}

// Supported reports whether path has an extension the loader reads.
func Supported(path string) bool {
	return supportedExt[strings.ToLower(filepath.Ext(path))]
}

// Loader reads and chunks files.
type Loader struct {
	chunkSize    int
	chunkOverlap int
	// SkipPath, when set, excludes files by their slash-separated relative path.
	SkipPath func(rel string) bool
	// IgnoreFiles are gitignore-style files read from the loaded root.
	IgnoreFiles []string
}

// NewLoader returns a Loader using the chunk settings from cfg.
func NewLoader(cfg config.IngestConfig) *Loader {
	l := &Loader{chunkSize: cfg.ChunkSize, chunkOverlap: cfg.ChunkOverlap, IgnoreFiles: ignore.DefaultFiles}
	if l.chunkSize <= 0 {
		l.chunkSize = 1000
	}
	if l.chunkOverlap < 0 || l.chunkOverlap >= l.chunkSize {
		l.chunkOverlap = 0
	}
	return l
}

// LoadDirectory walks dir and returns one document per chunk of every
// supported file, in path order. metadata is copied onto each document.
func (l *Loader) LoadDirectory(ctx context.Context, dir string, metadata map[string]string) ([]vectorstore.Document, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	ignored, err := l.ignoreMatcher(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(dir, path)
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if path != dir && (strings.HasPrefix(d.Name(), ".") || ignored.Match(rel, true)) {
				return filepath.SkipDir
			}
			return nil
		}
		if Supported(path) && !ignored.Match(rel, false) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}
	sort.Strings(paths)

	rev := detectRevision(dir)
	var docs []vectorstore.Document
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileDocs, err := l.loadFile(dir, path, metadata, rev)
		if err != nil {
			return nil, err
		}
		docs = append(docs, fileDocs...)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoDocuments, dir)
	}
	return docs, nil
}

// LoadFile chunks a single file. root is the directory names are relative to.
// A file excluded by root's ignore files yields no documents.
func (l *Loader) LoadFile(root, path string, metadata map[string]string) ([]vectorstore.Document, error) {
	ignored, err := l.ignoreMatcher(root)
	if err != nil {
		return nil, err
	}
	if rel, err := filepath.Rel(root, path); err == nil && ignored.Match(filepath.ToSlash(rel), false) {
		return nil, nil
	}
	return l.loadFile(root, path, metadata, detectRevision(root))
}

func (l *Loader) ignoreMatcher(root string) (*ignore.Matcher, error) {
	m, err := ignore.NewParser(l.IgnoreFiles, nil).Matcher(root)
	if err != nil {
		return nil, fmt.Errorf("reading ignore files in %s: %w", root, err)
	}
	return m, nil
}

func (l *Loader) loadFile(root, path string, metadata map[string]string, rev revision) ([]vectorstore.Document, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)
	if l.SkipPath != nil && l.SkipPath(rel) {
		return nil, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, nil
	}

	chunks, err := l.Split(path, text)
	if err != nil {
		return nil, fmt.Errorf("splitting %s: %w", rel, err)
	}

	source := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	docs := make([]vectorstore.Document, 0, len(chunks))
	for i, c := range chunks {
		if strings.TrimSpace(c) == "" {
			continue
		}
		meta := make(map[string]interface{}, len(metadata)+5)
		for k, v := range metadata {
			meta[k] = v
		}
		meta[MetaSource] = source
		meta[MetaName] = rel
		meta[MetaChunk] = i
		if rev.Hash != "" {
			meta[MetaRevision] = rev.Hash
		}
		if rev.Branch != "" {
			meta[MetaBranch] = rev.Branch
		}
		docs = append(docs, vectorstore.Document{
			ID:       ChunkID(rel, i),
			Content:  c,
			Metadata: meta,
		})
	}
	return docs, nil
}

// Split chunks text with the Markdown splitter for Markdown files and the
// recursive character splitter otherwise.
func (l *Loader) Split(path, text string) ([]string, error) {
	opts := []textsplitter.Option{
		textsplitter.WithChunkSize(l.chunkSize),
		textsplitter.WithChunkOverlap(l.chunkOverlap),
	}
	var splitter textsplitter.TextSplitter
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		splitter = textsplitter.NewMarkdownTextSplitter(opts...)
	default:
		splitter = textsplitter.NewRecursiveCharacter(opts...)
	}
	return splitter.SplitText(text)
}

// ChunkID is stable across runs, so re-ingesting a file overwrites its
// chunks in stores that upsert by ID.
func ChunkID(name string, chunk int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(fmt.Sprintf("ragchat:%s#%d", name, chunk))).String()
}
