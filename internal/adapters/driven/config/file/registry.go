// Package file provides a TOML-backed model registry. Each top-level
// table configures one model:
//
//	[gpt-4o]
//	endpoint = "https://api.openai.com/v1"
//	model_name = "gpt-4o-2024-08-06"
//	api_key = "${OPENAI_API_KEY}"
//	logical_name = "GPT-4o"
//
// Later files override earlier ones entry by entry, so a local override
// file can adjust credentials without copying the shared registry.
package file

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/proofbench/proofbench-cli/internal/core/domain"
	"github.com/proofbench/proofbench-cli/internal/core/ports/driven"
	"github.com/proofbench/proofbench-cli/internal/logger"
)

// Ensure Registry implements the interface.
var _ driven.ModelRegistry = (*Registry)(nil)

// matcherTable is the reserved table name for matcher tuning; it never
// names a model.
const matcherTable = "matcher"

// MatcherSettings are the registry-level matcher knobs.
type MatcherSettings struct {
	// Threshold is the judge-score acceptance threshold; zero means the
	// service default.
	Threshold float64 `toml:"threshold"`

	// MaxLineDiff is the candidate prefilter tolerance; zero means the
	// service default.
	MaxLineDiff int `toml:"max_line_diff"`
}

// Registry resolves model configurations from one or more TOML files.
// Entries are merged at load time; Resolve is a map lookup.
type Registry struct {
	models  map[string]domain.ModelConfig
	matcher MatcherSettings
}

// rawEntry mirrors one TOML table. Pointers distinguish "absent" from
// "zero" so inheritance only overrides keys the child actually sets.
type rawEntry struct {
	Inherit     *string  `toml:"inherit"`
	Endpoint    *string  `toml:"endpoint"`
	ModelName   *string  `toml:"model_name"`
	APIKey      *string  `toml:"api_key"`
	LogicalName *string  `toml:"logical_name"`
	Temperature *float64 `toml:"temperature"`
	Shots       *int     `toml:"shots"`
	Excluded    *bool    `toml:"excluded"`
}

// merge overlays set keys of other onto e.
func (e rawEntry) merge(other rawEntry) rawEntry {
	if other.Inherit != nil {
		e.Inherit = other.Inherit
	}
	if other.Endpoint != nil {
		e.Endpoint = other.Endpoint
	}
	if other.ModelName != nil {
		e.ModelName = other.ModelName
	}
	if other.APIKey != nil {
		e.APIKey = other.APIKey
	}
	if other.LogicalName != nil {
		e.LogicalName = other.LogicalName
	}
	if other.Temperature != nil {
		e.Temperature = other.Temperature
	}
	if other.Shots != nil {
		e.Shots = other.Shots
	}
	if other.Excluded != nil {
		e.Excluded = other.Excluded
	}
	return e
}

// NewRegistry loads and merges the given TOML files in order. At least
// the first file must exist; later override files may be absent.
func NewRegistry(paths ...string) (*Registry, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("registry: no config file given")
	}

	entries := make(map[string]rawEntry)
	var settings MatcherSettings

	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) && i > 0 {
				continue // optional override file
			}
			return nil, fmt.Errorf("read registry %s: %w", path, err)
		}

		var tables map[string]map[string]any
		if err := toml.Unmarshal(data, &tables); err != nil {
			return nil, fmt.Errorf("parse registry %s: %w", path, err)
		}

		for id, table := range tables {
			if id == matcherTable {
				s, err := decodeMatcher(table)
				if err != nil {
					return nil, fmt.Errorf("registry %s: %w", path, err)
				}
				settings = s
				continue
			}
			raw, err := decodeEntry(table)
			if err != nil {
				return nil, fmt.Errorf("registry %s: model %s: %w", path, id, err)
			}
			entries[id] = entries[id].merge(raw)
		}
	}

	models := make(map[string]domain.ModelConfig, len(entries))
	for id := range entries {
		cfg, err := resolveEntry(id, entries, nil)
		if err != nil {
			return nil, err
		}
		models[id] = cfg
	}

	return &Registry{models: models, matcher: settings}, nil
}

// Resolve returns the configuration for a model id.
func (r *Registry) Resolve(id string) (domain.ModelConfig, error) {
	cfg, ok := r.models[id]
	if !ok {
		return domain.ModelConfig{}, fmt.Errorf("%w: %s", domain.ErrModelNotFound, id)
	}
	return cfg, nil
}

// IDs returns all configured model ids, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.models))
	for id := range r.models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Matcher returns the registry-level matcher settings.
func (r *Registry) Matcher() MatcherSettings {
	return r.matcher
}

// resolveEntry flattens an inheritance chain into a ModelConfig.
func resolveEntry(id string, entries map[string]rawEntry, seen []string) (domain.ModelConfig, error) {
	entry, err := resolveRaw(id, entries, seen)
	if err != nil {
		return domain.ModelConfig{}, err
	}

	cfg := domain.ModelConfig{ID: id}
	if entry.Endpoint != nil {
		cfg.Endpoint = *entry.Endpoint
	}
	if entry.ModelName != nil {
		cfg.ModelName = *entry.ModelName
	}
	if entry.APIKey != nil {
		cfg.APIKey = expandEnv(id, *entry.APIKey)
	}
	if entry.LogicalName != nil {
		cfg.LogicalName = *entry.LogicalName
	}
	if entry.Temperature != nil {
		cfg.Temperature = *entry.Temperature
	}
	if entry.Shots != nil {
		cfg.Shots = *entry.Shots
	}
	if entry.Excluded != nil {
		cfg.Excluded = *entry.Excluded
	}
	return cfg, nil
}

// resolveRaw flattens an inheritance chain into a raw entry.
func resolveRaw(id string, entries map[string]rawEntry, seen []string) (rawEntry, error) {
	for _, s := range seen {
		if s == id {
			return rawEntry{}, fmt.Errorf(
				"registry: inheritance cycle through %s", strings.Join(append(seen, id), " -> "))
		}
	}

	entry := entries[id]
	if entry.Inherit == nil {
		return entry, nil
	}
	base, ok := entries[*entry.Inherit]
	if !ok {
		return rawEntry{}, fmt.Errorf("registry: model %s inherits unknown entry %s", id, *entry.Inherit)
	}
	if base.Inherit != nil {
		parent, err := resolveRaw(*entry.Inherit, entries, append(seen, id))
		if err != nil {
			return rawEntry{}, err
		}
		base = parent
	}
	base.Inherit = nil
	return base.merge(entry), nil
}

// decodeEntry round-trips one TOML table through the raw entry struct.
func decodeEntry(table map[string]any) (rawEntry, error) {
	data, err := toml.Marshal(table)
	if err != nil {
		return rawEntry{}, err
	}
	var entry rawEntry
	if err := toml.Unmarshal(data, &entry); err != nil {
		return rawEntry{}, err
	}
	return entry, nil
}

// decodeMatcher decodes the reserved [matcher] table.
func decodeMatcher(table map[string]any) (MatcherSettings, error) {
	data, err := toml.Marshal(table)
	if err != nil {
		return MatcherSettings{}, err
	}
	var s MatcherSettings
	if err := toml.Unmarshal(data, &s); err != nil {
		return MatcherSettings{}, err
	}
	return s, nil
}

// expandEnv resolves a ${ENV_VAR} credential reference. An unset
// variable resolves to empty with a warning, matching the behaviour of
// passing no key at all.
func expandEnv(id, value string) string {
	if !strings.HasPrefix(value, "${") || !strings.HasSuffix(value, "}") {
		return value
	}
	name := value[2 : len(value)-1]
	resolved := os.Getenv(name)
	if resolved == "" {
		logger.Warn("Environment variable %s not set for model %s", name, id)
	}
	return resolved
}
