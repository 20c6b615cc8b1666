package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSchema indicates a malformed edit record: an unknown edit type,
	// a missing required field, or an invalid line number. Files with
	// schema errors fail fast and are never silently coerced.
	ErrSchema = errors.New("schema violation")

	// ErrJudgeUnavailable indicates the judge service is not configured
	// or cannot be reached at all. This aborts a model's evaluation and
	// is reported as a configuration error, unlike per-pair judge
	// failures which only zero the affected pair's score.
	ErrJudgeUnavailable = errors.New("judge unavailable")

	// ErrModelNotFound indicates a model id is missing from the registry.
	ErrModelNotFound = errors.New("model not found in configuration")

	// ErrImmutableResult indicates an attempt to overwrite a stored
	// evaluation artifact. Re-evaluation must create a new run instead.
	ErrImmutableResult = errors.New("evaluation result is immutable")

	// ErrRateLimited indicates the judge API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
