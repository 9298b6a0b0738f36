package model

import (
	"github.com/matzehuels/flowview/pkg/definitions"
	"github.com/matzehuels/flowview/pkg/textmetrics"
)

// Side is the node side a port is attached to.
type Side string

const (
	West Side = "WEST"
	East Side = "EAST"
)

// Layout hint values understood by the layout adapter.
const (
	PortConstraintsFixedSide = "FIXED_SIDE"
	PortLabelsInside         = "INSIDE"
	PortLabelsOutside        = "OUTSIDE"
	NodeLabelTopCenter       = "V_TOP H_CENTER"
	PortAlignmentBegin       = "BEGIN"
)

// Label is a measured piece of text.
type Label struct {
	Text   string           `json:"text"`
	Width  float64          `json:"width"`
	Height float64          `json:"height"`
	Font   textmetrics.Font `json:"font"`
	Class  string           `json:"class,omitempty"`
}

// TooltipField is one "Name: Value" line of a tooltip.
type TooltipField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Tooltip is a structured tooltip. Renderers escape it when they turn it
// into markup.
type Tooltip []TooltipField

// Spacing is padding on the four sides of a box.
type Spacing struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

// LayoutHints carries per-node placement constraints for the layout engine.
type LayoutHints struct {
	PortConstraints     string  `json:"portConstraints"`
	PortLabelPlacement  string  `json:"portLabelPlacement"`
	NodeLabelPlacement  string  `json:"nodeLabelPlacement"`
	PortAlignment       string  `json:"portAlignment"`
	PortSpacing         float64 `json:"portSpacing"`
	AdditionalPortSpace Spacing `json:"additionalPortSpace"`
	BorderSpacing       float64 `json:"borderSpacing"`
}

// Port is one (slot, direction) pair of a node.
type Port struct {
	ID        string                `json:"id"`
	SlotID    string                `json:"slotId"`
	Direction definitions.Direction `json:"direction"`
	Side      Side                  `json:"side"`
	Labels    []Label               `json:"labels"`
	Height    float64               `json:"height"`
	Tooltip   Tooltip               `json:"tooltip,omitempty"`
}

// Node is the root component or one member.
type Node struct {
	ID           string      `json:"id"`
	ArtifactID   string      `json:"artifactId"`
	MemberID     string      `json:"memberId,omitempty"`
	Labels       []Label     `json:"labels"`
	Width        float64     `json:"width"`
	Height       float64     `json:"height"`
	HeaderHeight float64     `json:"headerHeight"`
	Ports        []Port      `json:"ports"`
	Hints        LayoutHints `json:"properties"`
	Children     []Node      `json:"children,omitempty"`

	// Placeholder marks a node whose component definition was missing.
	Placeholder bool `json:"placeholder,omitempty"`
}

// Port returns the port with the given id.
func (n *Node) Port(id string) (*Port, bool) {
	for i := range n.Ports {
		if n.Ports[i].ID == id {
			return &n.Ports[i], true
		}
	}
	return nil, false
}

// Edge is one connection.
type Edge struct {
	ID           string  `json:"id"`
	Labels       []Label `json:"labels"`
	Source       string  `json:"source"`
	SourcePort   string  `json:"sourcePort"`
	Target       string  `json:"target"`
	TargetPort   string  `json:"targetPort"`
	HookFunction string  `json:"hookFunction,omitempty"`
	Tooltip      Tooltip `json:"tooltip,omitempty"`
	Highlighted  bool    `json:"highlighted"`
}

// Graph is the layout input: the root node with its members as children,
// plus the connections between them.
type Graph struct {
	Root  Node   `json:"root"`
	Edges []Edge `json:"edges"`

	// MaxRootSlotWidth is the widest input-port label of the root node.
	// Edge labels are offset by it so they line up with the root's slot
	// column.
	MaxRootSlotWidth float64 `json:"maxRootSlotWidth"`

	// Diagnostics lists the non-fatal problems met while building.
	Diagnostics []error `json:"-"`
}

// Node returns the root or the member node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	if g.Root.ID == id {
		return &g.Root, true
	}
	for i := range g.Root.Children {
		if g.Root.Children[i].ID == id {
			return &g.Root.Children[i], true
		}
	}
	return nil, false
}

func (g *Graph) hasPort(nodeID, portID string) bool {
	n, ok := g.Node(nodeID)
	if !ok {
		return false
	}
	_, ok = n.Port(portID)
	return ok
}

// MemberIDs returns the member node ids in order.
func (g *Graph) MemberIDs() []string {
	ids := make([]string, len(g.Root.Children))
	for i, c := range g.Root.Children {
		ids[i] = c.ID
	}
	return ids
}

// NodeCount returns the number of nodes including the root.
func (g *Graph) NodeCount() int { return 1 + len(g.Root.Children) }

// PortID composes the id of the port for slotID on the node componentID.
func PortID(slotID, componentID string, d definitions.Direction) string {
	return slotID + "_" + componentID + "_" + string(d)
}
