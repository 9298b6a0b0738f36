package definitions

import (
	"github.com/matzehuels/flowview/pkg/errors"
)

// Validate checks the index for dangling references and malformed
// identifiers. It never fails as a whole; every problem is returned as a
// separate error so the caller can report them and carry on.
//
// Reported problems:
//   - componentArtifactId not present in components (RESOLUTION_FAILED)
//   - member whose component is not present (RESOLUTION_FAILED)
//   - connection endpoint referencing an unknown member (RESOLUTION_FAILED)
//   - duplicate member ids, empty ids, unknown slot directions
//     (INVALID_DEFINITIONS)
func (ix *Index) Validate() []error {
	var errs []error

	if ix.ComponentArtifactID != "" {
		if _, ok := ix.ResolveComponent(ix.ComponentArtifactID).(Missing); ok {
			errs = append(errs, errors.Resolution("component %q was not found in definitions", ix.ComponentArtifactID))
		}
	}

	for key, c := range ix.Components {
		for _, s := range c.Slots {
			if err := errors.ValidateIdentifier("slotId", s.SlotID); err != nil {
				errs = append(errs, errors.Wrap(errors.ErrCodeInvalidDefinitions, err, "component %q", key))
				continue
			}
			for _, d := range s.Direction {
				if !d.Valid() {
					errs = append(errs, errors.New(errors.ErrCodeInvalidDefinitions,
						"component %q slot %q has unknown direction %q", key, s.SlotID, d))
				}
			}
		}
	}

	seen := make(map[string]bool, len(ix.Members))
	for _, m := range ix.Members {
		if err := errors.ValidateIdentifier("memberId", m.MemberID); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[m.MemberID] {
			errs = append(errs, errors.New(errors.ErrCodeInvalidDefinitions, "duplicate memberId %q", m.MemberID))
		}
		seen[m.MemberID] = true
		if r, ok := ix.ResolveMember(m).(Missing); ok {
			errs = append(errs, errors.Resolution(
				"the component definition of member %q with artifactId %q was not found in definitions",
				m.MemberID, r.RequestedID))
		}
	}

	for _, c := range ix.Connections {
		for _, ep := range []Endpoint{c.Source, c.Destination} {
			if !ep.IsBoundary() && !seen[ep.MemberIDRef] {
				errs = append(errs, errors.Resolution(
					"connection %q references unknown member %q", c.ConnectionID, ep.MemberIDRef))
			}
		}
	}

	return errs
}
