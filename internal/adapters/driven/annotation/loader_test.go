package annotation

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/proofbench/proofbench-cli/internal/core/domain"
)

const validDoc = `{
  "image": "page_001.jpg",
  "page_number": 1,
  "source": "Little Dorrit",
  "edits": [
    {"type": "replacement", "original_text": "teh", "corrected_text": "the", "line_number": 5},
    {"type": "insertion", "original_text": "", "corrected_text": "very", "line_number": 0}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

// TestLoad tests reading and validating a single document.
func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "page_001.json", validDoc)

	doc, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "page_001.jpg", doc.Image)
	assert.Equal(t, "Little Dorrit", doc.Source)
	require.Len(t, doc.Edits, 2)
	assert.Equal(t, domain.EditReplacement, doc.Edits[0].Type)
	// Line 0 is the title line, not an error.
	assert.Equal(t, 0, doc.Edits[1].LineNumber)
	// Every edit carries its page image.
	assert.Equal(t, "page_001.jpg", doc.Edits[0].Page)
}

// TestLoad_NotFound tests the missing-file error.
func TestLoad_NotFound(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// TestLoad_SchemaViolations tests fail-fast validation.
func TestLoad_SchemaViolations(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader()
	ctx := context.Background()

	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"image": `},
		{"missing image", `{"page_number": 1, "edits": []}`},
		{"missing edits", `{"image": "p.jpg", "page_number": 1}`},
		{"unknown type", `{"image": "p.jpg", "edits": [
			{"type": "transposition", "original_text": "a", "corrected_text": "b", "line_number": 1}]}`},
		{"negative line", `{"image": "p.jpg", "edits": [
			{"type": "deletion", "original_text": "a", "corrected_text": "", "line_number": -1}]}`},
		{"no text", `{"image": "p.jpg", "edits": [
			{"type": "deletion", "original_text": "", "corrected_text": "", "line_number": 1}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, dir, tc.name+".json", tc.content)
			_, err := loader.Load(ctx, path)
			assert.ErrorIs(t, err, domain.ErrSchema)
		})
	}
}

// TestLoadDir tests loading a directory keyed by file id.
func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page_001.json", validDoc)
	writeFile(t, dir, "page_002.json", validDoc)
	writeFile(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0700))

	docs, err := NewLoader().LoadDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Contains(t, docs, "page_001")
	assert.Contains(t, docs, "page_002")
}

// TestLoadDir_FailFast tests that one malformed document fails the
// whole directory load.
func TestLoadDir_FailFast(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "page_001.json", validDoc)
	writeFile(t, dir, "page_002.json", `{"image": "p.jpg"}`)

	_, err := NewLoader().LoadDir(context.Background(), dir)
	assert.ErrorIs(t, err, domain.ErrSchema)
}

// TestLoadDir_Missing tests the missing-directory error.
func TestLoadDir_Missing(t *testing.T) {
	_, err := NewLoader().LoadDir(context.Background(), filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
