// Package annotation loads page documents from JSON files on disk.
// Ground truth and predictions share the same layout: one JSON file per
// scanned page, named after the page image.
package annotation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/proofbench/proofbench-cli/internal/core/domain"
	"github.com/proofbench/proofbench-cli/internal/core/ports/driven"
	"github.com/proofbench/proofbench-cli/internal/logger"
)

// Ensure Loader implements the interface.
var _ driven.AnnotationStore = (*Loader)(nil)

// Loader reads edit documents from the filesystem.
type Loader struct{}

// NewLoader creates a filesystem annotation loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads and validates one page document.
func (l *Loader) Load(ctx context.Context, path string) (*domain.EditDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	doc, err := domain.DecodeEditDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// Stamp each edit with its page image so downstream output can name
	// the page without carrying the document around.
	for i := range doc.Edits {
		doc.Edits[i].Page = doc.Image
	}
	return doc, nil
}

// LoadDir reads every .json document in a directory, keyed by filename
// without extension. A single malformed document fails the whole load:
// scoring against a partially loaded ground-truth set would silently
// shift every metric.
func (l *Loader) LoadDir(ctx context.Context, dir string) (map[string]domain.EditDocument, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, dir)
		}
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	docs := make(map[string]domain.EditDocument, len(names))
	for _, name := range names {
		doc, err := l.Load(ctx, filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		fileID := strings.TrimSuffix(name, ".json")
		docs[fileID] = *doc
	}

	logger.Debug("Loaded %d documents from %s", len(docs), dir)
	return docs, nil
}
