package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry() *Registry {
	return NewRegistry(
		map[Capability]*CapabilityConfig{
			CapabilityCompare: {
				Preferred: []string{"qwen2.5:14b"},
				Fallback:  []string{"llama3.1:8b", "mistral:7b"},
			},
		},
		map[string]*EndpointConfig{
			"qwen2.5:14b": {Provider: "ollama", Model: "qwen2.5:14b"},
			"llama3.1:8b": {Provider: "ollama", Model: "llama3.1:8b"},
			"mistral:7b":  {Provider: "ollama", Model: "mistral:7b"},
		},
	)
}

func TestResolve(t *testing.T) {
	registry := testRegistry()
	assert.Equal(t, "qwen2.5:14b", registry.Resolve(CapabilityCompare))
}

func TestResolve_UnknownCapabilityFallsBackToDefault(t *testing.T) {
	registry := testRegistry()
	registry.SetDefault("qwen2.5:14b")
	assert.Equal(t, "qwen2.5:14b", registry.Resolve(CapabilityFast))
}

func TestGetFallbackChain(t *testing.T) {
	registry := testRegistry()
	chain := registry.GetFallbackChain(CapabilityCompare)
	assert.Equal(t, []string{"qwen2.5:14b", "llama3.1:8b", "mistral:7b"}, chain)
}

func TestGetEndpoint(t *testing.T) {
	registry := testRegistry()

	ep := registry.GetEndpoint("llama3.1:8b")
	require.NotNil(t, ep)
	assert.Equal(t, "ollama", ep.Provider)

	assert.Nil(t, registry.GetEndpoint("unknown"))
}

func TestBuildRegistry(t *testing.T) {
	registry, err := BuildRegistry("ollama", "qwen2.5:14b", "http://localhost:11434/v1", []string{"llama3.1:8b"})
	require.NoError(t, err)

	assert.Equal(t, "qwen2.5:14b", registry.Resolve(CapabilityCompare))
	assert.Equal(t, []string{"qwen2.5:14b", "llama3.1:8b"}, registry.GetFallbackChain(CapabilityCompare))

	ep := registry.GetEndpoint("llama3.1:8b")
	require.NotNil(t, ep)
	assert.Equal(t, "http://localhost:11434/v1", ep.URL)
}

func TestBuildRegistry_RequiresModel(t *testing.T) {
	_, err := BuildRegistry("ollama", "", "", nil)
	assert.Error(t, err)
}

func TestParseCapability(t *testing.T) {
	assert.Equal(t, CapabilityCompare, ParseCapability("compare"))
	assert.Equal(t, CapabilityFast, ParseCapability("fast"))
	assert.Equal(t, Capability(""), ParseCapability("bogus"))
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	registry := testRegistry()
	registry.SetHealthConfig(HealthConfig{FailureThreshold: 3, RecoveryTimeout: time.Hour})

	registry.MarkEndpointFailure("qwen2.5:14b")
	registry.MarkEndpointFailure("qwen2.5:14b")
	assert.True(t, registry.IsEndpointAvailable("qwen2.5:14b"))

	registry.MarkEndpointFailure("qwen2.5:14b")
	assert.False(t, registry.IsEndpointAvailable("qwen2.5:14b"))

	health := registry.GetEndpointHealth("qwen2.5:14b")
	require.NotNil(t, health)
	assert.True(t, health.CircuitOpen)
	assert.Equal(t, 3, health.FailureCount)
}

func TestCircuitBreaker_SuccessResets(t *testing.T) {
	registry := testRegistry()
	registry.SetHealthConfig(HealthConfig{FailureThreshold: 2, RecoveryTimeout: time.Hour})

	registry.MarkEndpointFailure("qwen2.5:14b")
	registry.MarkEndpointFailure("qwen2.5:14b")
	require.False(t, registry.IsEndpointAvailable("qwen2.5:14b"))

	registry.MarkEndpointSuccess("qwen2.5:14b")
	assert.True(t, registry.IsEndpointAvailable("qwen2.5:14b"))

	health := registry.GetEndpointHealth("qwen2.5:14b")
	require.NotNil(t, health)
	assert.Zero(t, health.FailureCount)
	assert.False(t, health.CircuitOpen)
}

func TestCircuitBreaker_HalfOpenAfterRecoveryTimeout(t *testing.T) {
	registry := testRegistry()
	registry.SetHealthConfig(HealthConfig{FailureThreshold: 1, RecoveryTimeout: 10 * time.Millisecond})

	registry.MarkEndpointFailure("qwen2.5:14b")
	require.False(t, registry.IsEndpointAvailable("qwen2.5:14b"))

	time.Sleep(20 * time.Millisecond)
	assert.True(t, registry.IsEndpointAvailable("qwen2.5:14b"))
}

func TestGetAvailableFallbackChain_SkipsTrippedEndpoints(t *testing.T) {
	registry := testRegistry()
	registry.SetHealthConfig(HealthConfig{FailureThreshold: 1, RecoveryTimeout: time.Hour})

	registry.MarkEndpointFailure("qwen2.5:14b")

	chain := registry.GetAvailableFallbackChain(CapabilityCompare)
	assert.Equal(t, []string{"llama3.1:8b", "mistral:7b"}, chain)
}

func TestGetAvailableFallbackChain_AllDownReturnsFullChain(t *testing.T) {
	registry := testRegistry()
	registry.SetHealthConfig(HealthConfig{FailureThreshold: 1, RecoveryTimeout: time.Hour})

	for _, name := range []string{"qwen2.5:14b", "llama3.1:8b", "mistral:7b"} {
		registry.MarkEndpointFailure(name)
	}

	chain := registry.GetAvailableFallbackChain(CapabilityCompare)
	assert.Equal(t, []string{"qwen2.5:14b", "llama3.1:8b", "mistral:7b"}, chain)
}

func TestUnknownEndpointIsAvailable(t *testing.T) {
	registry := testRegistry()
	registry.SetHealthConfig(DefaultHealthConfig())
	assert.True(t, registry.IsEndpointAvailable("never-seen"))
}
