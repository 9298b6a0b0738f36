package definitions

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Direction is the data-flow direction of a slot.
type Direction string

const (
	Input  Direction = "input"
	Output Direction = "output"
)

// Valid reports whether d is Input or Output.
func (d Direction) Valid() bool { return d == Input || d == Output }

// Directions is the ordered direction list of a slot. It decodes from
// either a JSON array or a single string.
type Directions []Direction

// UnmarshalJSON implements json.Unmarshaler.
func (ds *Directions) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*ds = Directions{Direction(single)}
		return nil
	}
	var list []Direction
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("direction: %w", err)
	}
	*ds = list
	return nil
}

// Slot is a named data point on a component.
type Slot struct {
	SlotID      string     `json:"slotId"`
	Direction   Directions `json:"direction"`
	Description string     `json:"description,omitempty"`
	Type        string     `json:"type,omitempty"`
}

// Has reports whether the slot is declared with direction d.
func (s Slot) Has(d Direction) bool {
	for _, v := range s.Direction {
		if v == d {
			return true
		}
	}
	return false
}

// ComponentDefinition describes one component and its slots.
type ComponentDefinition struct {
	ArtifactID   string `json:"artifactId"`
	WebpackageID string `json:"webpackageId,omitempty"`
	Slots        []Slot `json:"slots"`
}

// Member is an instance of a component inside a compound.
type Member struct {
	MemberID    string `json:"memberId"`
	ArtifactID  string `json:"artifactId,omitempty"`
	ComponentID string `json:"componentId,omitempty"`
}

// ComponentArtifactID returns the artifact id the member refers to. A
// componentId of the form "webpackage/artifact" resolves to the part after
// the first slash; otherwise ArtifactID is used.
func (m Member) ComponentArtifactID() string {
	if m.ComponentID != "" {
		if i := strings.Index(m.ComponentID, "/"); i >= 0 {
			return m.ComponentID[i+1:]
		}
		return m.ComponentID
	}
	return m.ArtifactID
}

// Endpoint is one end of a connection. An empty MemberIDRef is the
// compound boundary.
type Endpoint struct {
	Slot        string `json:"slot"`
	MemberIDRef string `json:"memberIdRef,omitempty"`
}

// IsBoundary reports whether the endpoint is the compound itself.
func (e Endpoint) IsBoundary() bool { return e.MemberIDRef == "" }

// Connection wires a source slot to a destination slot.
type Connection struct {
	ConnectionID string   `json:"connectionId"`
	HookFunction string   `json:"hookFunction,omitempty"`
	Source       Endpoint `json:"source"`
	Destination  Endpoint `json:"destination"`
}

// Index is a decoded definitions document.
type Index struct {
	ComponentArtifactID string                         `json:"componentArtifactId,omitempty"`
	Components          map[string]ComponentDefinition `json:"components"`
	Members             []Member                       `json:"members,omitempty"`
	Connections         []Connection                   `json:"connections,omitempty"`

	// HasMembers records whether the document carried a "members" key,
	// which marks the root as a compound even when the list is empty.
	HasMembers bool `json:"-"`
}

type wireIndex struct {
	ComponentArtifactID string                         `json:"componentArtifactId,omitempty"`
	Components          map[string]ComponentDefinition `json:"components"`
	Members             *[]Member                      `json:"members,omitempty"`
	Connections         []Connection                   `json:"connections,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. A "members" key marks the
// document as a compound even when its value is null.
func (ix *Index) UnmarshalJSON(data []byte) error {
	var w struct {
		wireIndex
		Members json.RawMessage `json:"members"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*ix = Index{
		ComponentArtifactID: w.ComponentArtifactID,
		Components:          w.Components,
		Connections:         w.Connections,
		HasMembers:          len(w.Members) > 0,
	}
	if ix.HasMembers {
		if err := json.Unmarshal(w.Members, &ix.Members); err != nil {
			return err
		}
	}
	for key, c := range ix.Components {
		if c.ArtifactID == "" {
			c.ArtifactID = key
			ix.Components[key] = c
		}
	}
	return nil
}

// MarshalJSON implements json.Marshaler. The members key is written when
// HasMembers is set or members are present.
func (ix Index) MarshalJSON() ([]byte, error) {
	w := wireIndex{
		ComponentArtifactID: ix.ComponentArtifactID,
		Components:          ix.Components,
		Connections:         ix.Connections,
	}
	if ix.HasMembers || len(ix.Members) > 0 {
		members := ix.Members
		if members == nil {
			members = []Member{}
		}
		w.Members = &members
	}
	if w.Components == nil {
		w.Components = map[string]ComponentDefinition{}
	}
	return json.Marshal(w)
}

// IsCompound reports whether the root component is a compound.
func (ix *Index) IsCompound() bool {
	return ix.HasMembers || len(ix.Members) > 0
}

// Member returns the member with the given id.
func (ix *Index) Member(id string) (Member, bool) {
	for _, m := range ix.Members {
		if m.MemberID == id {
			return m, true
		}
	}
	return Member{}, false
}

// MemberIDs returns member ids in declaration order.
func (ix *Index) MemberIDs() []string {
	ids := make([]string, len(ix.Members))
	for i, m := range ix.Members {
		ids[i] = m.MemberID
	}
	return ids
}
