// Package domain contains the core business entities for the proofbench
// benchmark: editorial corrections, match results between predicted and
// ground-truth corrections, and the metrics derived from them.
//
// Types in this package are pure data and pure computation. They have no
// dependencies on adapters, storage, or the judge - those live behind the
// ports in internal/core/ports.
package domain
