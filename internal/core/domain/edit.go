package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EditType classifies an editorial correction.
type EditType string

// Recognised edit types.
const (
	EditInsertion      EditType = "insertion"
	EditDeletion       EditType = "deletion"
	EditReplacement    EditType = "replacement"
	EditPunctuation    EditType = "punctuation"
	EditCapitalization EditType = "capitalization"
	EditItalicize      EditType = "italicize"
)

// editTypes holds all recognised types for validation.
var editTypes = map[EditType]bool{
	EditInsertion:      true,
	EditDeletion:       true,
	EditReplacement:    true,
	EditPunctuation:    true,
	EditCapitalization: true,
	EditItalicize:      true,
}

// ParseEditType parses a string into an EditType, case-insensitively.
func ParseEditType(s string) (EditType, error) {
	t := EditType(strings.ToLower(strings.TrimSpace(s)))
	if !editTypes[t] {
		return "", fmt.Errorf("%w: unknown edit type %q", ErrSchema, s)
	}
	return t, nil
}

// Edit is a single editorial correction on a page. Line number 0 denotes
// the title or heading; body lines are counted from 1.
type Edit struct {
	// Type classifies the correction.
	Type EditType `json:"type"`

	// OriginalText is the pre-edit text (empty for pure insertions).
	OriginalText string `json:"original_text"`

	// CorrectedText is the post-edit text (empty for pure deletions).
	CorrectedText string `json:"corrected_text"`

	// LineNumber locates the correction on the page.
	LineNumber int `json:"line_number"`

	// Page identifies the source image. Supplied by the loader, never
	// inferred from model output.
	Page string `json:"page,omitempty"`
}

// Validate checks the schema invariants for a single edit.
func (e Edit) Validate() error {
	if _, err := ParseEditType(string(e.Type)); err != nil {
		return err
	}
	if e.LineNumber < 0 {
		return fmt.Errorf("%w: negative line number %d", ErrSchema, e.LineNumber)
	}
	if e.OriginalText == "" && e.CorrectedText == "" {
		return fmt.Errorf("%w: edit has neither original nor corrected text", ErrSchema)
	}
	return nil
}

// EditDocument is the full set of corrections for one page, either human
// ground truth or a model prediction. Both share this schema.
type EditDocument struct {
	// Image is the scanned page image filename.
	Image string `json:"image"`

	// PageNumber is the page's position in the source document.
	PageNumber int `json:"page_number"`

	// Source is the source document title.
	Source string `json:"source"`

	// Edits is the ordered list of corrections. Order is preserved for
	// display but carries no meaning for matching.
	Edits []Edit `json:"edits"`

	// Annotator names the human annotator or the predicting model.
	Annotator string `json:"annotator,omitempty"`

	// AnnotationDate is an ISO 8601 date string.
	AnnotationDate string `json:"annotation_date,omitempty"`

	// Verified reports whether a human has checked the annotation.
	Verified bool `json:"verified,omitempty"`
}

// Validate checks the document and every edit in it, failing fast on the
// first schema violation. Malformed edits are never coerced or dropped -
// that would corrupt precision/recall semantics downstream.
func (d EditDocument) Validate() error {
	if d.Image == "" {
		return fmt.Errorf("%w: missing image", ErrSchema)
	}
	if d.Edits == nil {
		return fmt.Errorf("%w: missing edits", ErrSchema)
	}
	for i, e := range d.Edits {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("edit %d: %w", i, err)
		}
	}
	return nil
}

// DecodeEditDocument parses and validates an edit document from JSON.
func DecodeEditDocument(data []byte) (*EditDocument, error) {
	var doc EditDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchema, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}
