package definitions

// Resolution is the outcome of looking up a component definition. It is
// either [Resolved] or [Missing].
type Resolution interface {
	isResolution()
}

// Resolved carries the component definition that was found.
type Resolved struct {
	Component ComponentDefinition
}

// Missing records the artifact id that could not be found.
type Missing struct {
	RequestedID string
}

func (Resolved) isResolution() {}
func (Missing) isResolution()  {}

// ResolveComponent looks up a component definition by artifact id.
func (ix *Index) ResolveComponent(artifactID string) Resolution {
	if c, ok := ix.Components[artifactID]; ok && artifactID != "" {
		return Resolved{Component: c}
	}
	return Missing{RequestedID: artifactID}
}

// ResolveMember looks up the component definition a member instantiates.
func (ix *Index) ResolveMember(m Member) Resolution {
	return ix.ResolveComponent(m.ComponentArtifactID())
}
