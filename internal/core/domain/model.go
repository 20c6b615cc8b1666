package domain

import "strings"

// ModelConfig is a resolved model configuration entry. The judge adapter
// consumes only the Endpoint/ModelName/APIKey triple; the remaining
// fields describe the model for display and ranking.
type ModelConfig struct {
	// ID is the registry identifier.
	ID string

	// Endpoint is the API base URL.
	Endpoint string

	// ModelName is the technical model name sent to the API.
	ModelName string

	// APIKey is the credential, with ${ENV_VAR} references expanded.
	APIKey string

	// LogicalName is the human-readable display name.
	LogicalName string

	// Temperature is the sampling temperature, when set.
	Temperature float64

	// Shots is the few-shot example count used for this model's
	// predictions.
	Shots int

	// Excluded omits the model from leaderboard ranking while its raw
	// results remain in storage.
	Excluded bool
}

// DisplayName derives a readable name from a model id when no logical
// name is configured: "gpt-4o" becomes "GPT-4o", "claude-3-opus"
// becomes "Claude 3 Opus".
func DisplayName(id string) string {
	if id == "" {
		return id
	}
	for _, r := range id {
		if r >= 'A' && r <= 'Z' {
			return id // already mixed case, leave as-is
		}
	}

	if strings.HasPrefix(id, "gpt") {
		parts := strings.SplitN(id, "-", 2)
		if len(parts) == 2 {
			return strings.ToUpper(parts[0]) + "-" + parts[1]
		}
		return strings.ToUpper(id)
	}

	words := strings.Split(strings.ReplaceAll(id, "-", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
