package codemodel

// Tier is the enforcement level a code generator targets. The model itself
// is tier-agnostic; the tier only describes how strongly a target language
// can hold the line.
type Tier uint8

const (
	// TierTypestate encodes each state as a distinct compile-time type;
	// illegal operations do not compile.
	TierTypestate Tier = iota
	// TierTaggedVariant encodes states as a tagged union checked
	// structurally; illegal operations fail at construction.
	TierTaggedVariant
	// TierRuntimeChecked gates every operation with a runtime state check;
	// illegal operations fail when invoked.
	TierRuntimeChecked
)

func (t Tier) String() string {
	switch t {
	case TierTypestate:
		return "typestate"
	case TierTaggedVariant:
		return "tagged-variant"
	case TierRuntimeChecked:
		return "runtime-checked"
	}
	return "unknown"
}

// Capability describes what a tier can guarantee. Generators consume this
// descriptor uniformly instead of the core special-casing target languages.
type Capability struct {
	// CompileTimeStates: illegal operations are rejected before the
	// program runs.
	CompileTimeStates bool
	// StructuralTypes: state identity is carried in value structure rather
	// than nominal types.
	StructuralTypes bool
	// RuntimeGuards: every operation re-checks the current state when
	// invoked.
	RuntimeGuards bool
}

// CapabilityOf returns the capability descriptor of a tier.
func CapabilityOf(t Tier) Capability {
	switch t {
	case TierTypestate:
		return Capability{CompileTimeStates: true}
	case TierTaggedVariant:
		return Capability{StructuralTypes: true, RuntimeGuards: true}
	default:
		return Capability{RuntimeGuards: true}
	}
}
