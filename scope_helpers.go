package nestmap

const (
	// Recommended priorities for common layering patterns. Higher numbers win.
	ScopePriorityDefaults = 100
	ScopePriorityPackage  = 200
	ScopePriorityMode     = 300
	ScopePriorityUser     = 400
)

// DefaultsPackageModeUser assembles the canonical four-layer stack
// (defaults → package → mode → user). Nil trees become empty layers.
func DefaultsPackageModeUser(defaults, pkg, mode, user *ResolvingTreeMap) (*Stack, error) {
	return NewStack(
		NewLayer(NewScope("user", ScopePriorityUser, WithScopeLabel("User")), user),
		NewLayer(NewScope("mode", ScopePriorityMode, WithScopeLabel("Observing Mode")), mode),
		NewLayer(NewScope("package", ScopePriorityPackage, WithScopeLabel("Package")), pkg),
		NewLayer(NewScope("defaults", ScopePriorityDefaults, WithScopeLabel("Defaults")), defaults),
	)
}
