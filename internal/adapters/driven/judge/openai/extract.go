package openai

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// codeBlockPattern matches fenced code blocks with or without a
// language specifier.
var codeBlockPattern = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// ExtractJSON pulls a JSON object out of an LLM response. Models asked
// for JSON still wrap it in prose or code fences often enough that
// strict parsing alone would discard usable verdicts. Tried in order:
// the whole response, each fenced code block, the outermost brace span.
func ExtractJSON(text string) ([]byte, error) {
	trimmed := strings.TrimSpace(text)
	if json.Valid([]byte(trimmed)) {
		return []byte(trimmed), nil
	}

	for _, m := range codeBlockPattern.FindAllStringSubmatch(text, -1) {
		block := strings.TrimSpace(m[1])
		if json.Valid([]byte(block)) {
			return []byte(block), nil
		}
	}

	if start := strings.Index(text, "{"); start >= 0 {
		if end := strings.LastIndex(text, "}"); end > start {
			span := text[start : end+1]
			if json.Valid([]byte(span)) {
				return []byte(span), nil
			}
		}
	}

	snippet := text
	if len(snippet) > 200 {
		snippet = snippet[:200] + "..."
	}
	return nil, fmt.Errorf("no valid JSON found in response: %s", snippet)
}
