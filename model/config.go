package model

import "fmt"

// BuildRegistry constructs a registry from flat judge settings: a primary
// model plus optional fallbacks, all served by the same provider/endpoint.
// Both capabilities resolve to the same chain; the split exists so that the
// two can diverge in configuration without touching callers.
func BuildRegistry(provider, modelName, endpoint string, fallback []string) (*Registry, error) {
	if modelName == "" {
		return nil, fmt.Errorf("judge model is required")
	}

	endpoints := map[string]*EndpointConfig{
		modelName: {
			Provider: provider,
			URL:      endpoint,
			Model:    modelName,
		},
	}
	for _, name := range fallback {
		if _, ok := endpoints[name]; ok {
			continue
		}
		endpoints[name] = &EndpointConfig{
			Provider: provider,
			URL:      endpoint,
			Model:    name,
		}
	}

	caps := map[Capability]*CapabilityConfig{
		CapabilityCompare: {
			Description: "Batched requirement/proposal compliance judging",
			Preferred:   []string{modelName},
			Fallback:    fallback,
		},
		CapabilityFast: {
			Description: "Single-requirement re-checks",
			Preferred:   []string{modelName},
			Fallback:    fallback,
		},
	}

	registry := NewRegistry(caps, endpoints)
	registry.SetDefault(modelName)
	return registry, nil
}
