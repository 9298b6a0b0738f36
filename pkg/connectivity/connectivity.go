// Package connectivity answers which members of a compound are wired to a
// given member.
//
// The relation is one-directional: B is directly connected to A when some
// connection has A as its source member and B as its destination member.
// A member that only receives data from A's neighbours, or that only sends
// data to A, is not connected to A. Boundary endpoints and self-loops never
// count.
//
// [Highlight] turns the relation into the sets a renderer needs when a
// member is selected: the members to emphasise, the members to gray out,
// and the connections touching a grayed member.
package connectivity

import (
	"slices"

	"github.com/matzehuels/flowview/pkg/definitions"
)

// DirectlyConnected returns the members that memberID sends data to, in
// connection order and without duplicates. It never contains memberID.
func DirectlyConnected(memberID string, connections []definitions.Connection) []string {
	var out []string
	seen := make(map[string]bool)
	for _, c := range connections {
		if c.Source.IsBoundary() || c.Source.MemberIDRef != memberID {
			continue
		}
		dst := c.Destination.MemberIDRef
		if dst == "" || dst == memberID || seen[dst] {
			continue
		}
		seen[dst] = true
		out = append(out, dst)
	}
	return out
}

// NonConnected returns the members, in the order given, that are neither
// memberID nor directly connected to it.
func NonConnected(memberID string, members []string, connections []definitions.Connection) []string {
	direct := DirectlyConnected(memberID, connections)
	var out []string
	for _, m := range members {
		if m == memberID || slices.Contains(direct, m) {
			continue
		}
		out = append(out, m)
	}
	return out
}

// State is the highlight and gray-out assignment for one selection. The
// zero State means nothing is selected.
type State struct {
	Selected    string   `json:"selected,omitempty"`
	Highlighted []string `json:"highlighted,omitempty"`
	Grayed      []string `json:"grayed,omitempty"`
	GrayedEdges []string `json:"grayedEdges,omitempty"`
}

// Empty reports whether nothing is selected.
func (s State) Empty() bool { return s.Selected == "" }

// IsHighlighted reports whether the member is the selection or directly
// connected to it.
func (s State) IsHighlighted(memberID string) bool {
	return slices.Contains(s.Highlighted, memberID)
}

// IsGrayed reports whether the member is grayed out.
func (s State) IsGrayed(memberID string) bool {
	return slices.Contains(s.Grayed, memberID)
}

// IsEdgeGrayed reports whether the connection is grayed out.
func (s State) IsEdgeGrayed(connectionID string) bool {
	return slices.Contains(s.GrayedEdges, connectionID)
}

// Highlight computes the state for selecting memberID among members.
// Selecting the root, an empty id or an id that is not a member clears the
// state.
func Highlight(memberID string, members []string, connections []definitions.Connection, rootID string) State {
	if memberID == "" || memberID == rootID || !slices.Contains(members, memberID) {
		return State{}
	}

	st := State{
		Selected:    memberID,
		Highlighted: append([]string{memberID}, DirectlyConnected(memberID, connections)...),
		Grayed:      NonConnected(memberID, members, connections),
	}

	grayed := make(map[string]bool, len(st.Grayed))
	for _, m := range st.Grayed {
		grayed[m] = true
	}
	for _, c := range connections {
		if grayed[c.Source.MemberIDRef] || grayed[c.Destination.MemberIDRef] {
			st.GrayedEdges = append(st.GrayedEdges, c.ConnectionID)
		}
	}
	return st
}
