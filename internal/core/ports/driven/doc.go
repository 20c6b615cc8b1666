// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): the LLM judge, the model registry, the
// annotation loader, and the result store.
package driven
