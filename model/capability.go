// Package model provides capability-based judge model selection. Instead of
// hardcoding model names, callers specify capabilities ("compare", "fast")
// and the registry resolves them to configured endpoints with fallback
// chains and health tracking.
package model

// Capability represents a semantic capability for model selection.
type Capability string

const (
	// CapabilityCompare is for batched compliance judging: careful
	// reasoning over requirement/proposal pairs with structured output.
	CapabilityCompare Capability = "compare"

	// CapabilityFast is for quick single-requirement re-checks.
	CapabilityFast Capability = "fast"
)

// IsValid checks if a capability string is a known capability.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityCompare, CapabilityFast:
		return true
	}
	return false
}

// String returns the string representation of the capability.
func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a string to a Capability, returning empty for
// invalid values.
func ParseCapability(s string) Capability {
	cap := Capability(s)
	if cap.IsValid() {
		return cap
	}
	return ""
}
