// Package driving provides interfaces for primary/inbound ports: the
// operations the CLI and TUI adapters invoke on the core services.
package driving
