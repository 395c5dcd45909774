package models

// SelectorKind identifies how the external build tool addresses a target.
type SelectorKind string

// Selector kinds understood by the cargo invoker.
const (
	SelectorBinary  SelectorKind = "binary"  // built with --bin <name>
	SelectorPackage SelectorKind = "package" // built with -p <name>
)

// Selector describes how the external build tool identifies a target:
// either a binary name or a package name.
type Selector struct {
	Kind SelectorKind
	Name string
}

// BuildTarget is a named unit of work handed to the external build tool.
// Targets are immutable once a run starts; Ordinal is the target's position
// in the fixed sequence.
type BuildTarget struct {
	Name     string
	Selector Selector
	Ordinal  int
}

// BuildConfiguration holds the shared parameters applied uniformly to every
// target's invocation. It is constructed once at startup and never mutated.
type BuildConfiguration struct {
	// ProfileFlags is an optional string of extra build flags (e.g.
	// "--release") forwarded verbatim to every invocation. Empty means no
	// extra flags.
	ProfileFlags string
}

// DefaultTargets returns the fixed target list for the Suzuka project, in
// build order. The list is baked in at compile time and is not
// user-configurable at runtime.
//
// suzuka-full-node-setup appears twice on purpose: first as a standalone
// binary (the setup tool the other builds expect on disk), then again as a
// package.
func DefaultTargets() []BuildTarget {
	return []BuildTarget{
		{
			Name:     "suzuka-config",
			Selector: Selector{Kind: SelectorBinary, Name: "suzuka-full-node-setup"},
			Ordinal:  0,
		},
		{
			Name:     "suzuka-full-node",
			Selector: Selector{Kind: SelectorPackage, Name: "suzuka-full-node"},
			Ordinal:  1,
		},
		{
			Name:     "suzuka-faucet-service",
			Selector: Selector{Kind: SelectorPackage, Name: "suzuka-faucet-service"},
			Ordinal:  2,
		},
		{
			Name:     "suzuka-full-node-setup",
			Selector: Selector{Kind: SelectorPackage, Name: "suzuka-full-node-setup"},
			Ordinal:  3,
		},
	}
}
