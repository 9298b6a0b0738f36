package model

import (
	"math"
	"unicode/utf8"

	"github.com/matzehuels/flowview/pkg/definitions"
	"github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/textmetrics"
)

// Label classes emitted by the builder.
const (
	ClassMemberID          = "memberIdLabel"
	ClassComponentName     = "componentNameLabel"
	ClassComponentNameRoot = "componentNameRootLabel"
)

// Builder converts definitions into a layout graph. A Builder holds no
// per-build state and may be reused.
type Builder struct {
	cfg      Config
	measurer textmetrics.Measurer
}

// NewBuilder creates a Builder. A nil measurer uses
// [textmetrics.NewApproxMeasurer].
func NewBuilder(cfg Config, m textmetrics.Measurer) *Builder {
	if m == nil {
		m = textmetrics.NewApproxMeasurer()
	}
	return &Builder{cfg: cfg, measurer: m}
}

// Config returns the metrics the builder was created with.
func (b *Builder) Config() Config { return b.cfg }

// Build converts ix into a graph rooted at rootSelectionID.
//
// An empty rootSelectionID selects ix.ComponentArtifactID, and when that is
// empty too the ad-hoc placeholder component is used. Unresolvable
// references never fail the build: they are recorded in
// Graph.Diagnostics and replaced by placeholders (root, members) or
// skipped (connections).
func (b *Builder) Build(ix *definitions.Index, rootSelectionID string) *Graph {
	if ix == nil {
		ix = &definitions.Index{}
	}
	g := &Graph{}

	root := b.resolveRoot(ix, rootSelectionID, g)
	g.Root = b.node(root, "", true, &g.MaxRootSlotWidth, g)
	g.Root.Hints.PortLabelPlacement = PortLabelsOutside
	g.Root.Hints.BorderSpacing = b.cfg.RootBorderSpacing

	known := make(map[string]bool, len(ix.Members))
	for _, m := range ix.Members {
		if known[m.MemberID] || m.MemberID == g.Root.ID {
			g.Diagnostics = append(g.Diagnostics, errors.New(errors.ErrCodeInvalidDefinitions,
				"duplicate member id %q", m.MemberID))
			continue
		}
		known[m.MemberID] = true
		switch r := ix.ResolveMember(m).(type) {
		case definitions.Resolved:
			g.Root.Children = append(g.Root.Children, b.node(r.Component, m.MemberID, false, nil, g))
		case definitions.Missing:
			g.Diagnostics = append(g.Diagnostics, errors.Resolution(
				"the component definition of member %q with artifactId %q was not found in definitions",
				m.MemberID, r.RequestedID))
			placeholder := definitions.ComponentDefinition{ArtifactID: r.RequestedID}
			n := b.node(placeholder, m.MemberID, false, nil, g)
			n.Placeholder = true
			g.Root.Children = append(g.Root.Children, n)
		}
	}

	for _, c := range ix.Connections {
		if !b.endpointKnown(c.Source, known) || !b.endpointKnown(c.Destination, known) {
			g.Diagnostics = append(g.Diagnostics, errors.Resolution(
				"connection %q references a member that is not part of the compound", c.ConnectionID))
			continue
		}
		e := b.edge(c, g.Root.ID)
		if !g.hasPort(e.Source, e.SourcePort) || !g.hasPort(e.Target, e.TargetPort) {
			g.Diagnostics = append(g.Diagnostics, errors.Resolution(
				"connection %q references a slot that does not exist (%s -> %s)", c.ConnectionID, e.SourcePort, e.TargetPort))
			continue
		}
		g.Edges = append(g.Edges, e)
	}

	return g
}

func (b *Builder) resolveRoot(ix *definitions.Index, selection string, g *Graph) definitions.ComponentDefinition {
	id := selection
	if id == "" {
		id = ix.ComponentArtifactID
	}
	if id == "" {
		return AdHocComponent()
	}
	switch r := ix.ResolveComponent(id).(type) {
	case definitions.Resolved:
		return r.Component
	case definitions.Missing:
		g.Diagnostics = append(g.Diagnostics, errors.Resolution(
			"the component with artifactId %q was not found in definitions", r.RequestedID))
	}
	return AdHocComponent()
}

// AdHocComponent returns the placeholder root definition.
func AdHocComponent() definitions.ComponentDefinition {
	return definitions.ComponentDefinition{ArtifactID: AdHocArtifactID}
}

func (b *Builder) endpointKnown(ep definitions.Endpoint, known map[string]bool) bool {
	return ep.IsBoundary() || known[ep.MemberIDRef]
}

// node builds the node for component c. memberID is empty for the root.
// maxRoot, when non-nil, receives the widest input-port label.
func (b *Builder) node(c definitions.ComponentDefinition, memberID string, isRoot bool, maxRoot *float64, g *Graph) Node {
	id := memberID
	if id == "" {
		id = c.ArtifactID
	}

	ports, slotsWidth, slotsHeight := b.ports(c, id, maxRoot, g)
	labels, headerWidth, headerHeight := b.header(memberID, c.WebpackageID, c.ArtifactID, isRoot)

	return Node{
		ID:           id,
		ArtifactID:   c.ArtifactID,
		MemberID:     memberID,
		Labels:       labels,
		Width:        math.Max(slotsWidth+b.cfg.SlotLabelsSpace, headerWidth),
		Height:       slotsHeight + headerHeight,
		HeaderHeight: headerHeight,
		Ports:        ports,
		Hints: LayoutHints{
			PortConstraints:    PortConstraintsFixedSide,
			PortLabelPlacement: PortLabelsInside,
			NodeLabelPlacement: NodeLabelTopCenter,
			PortAlignment:      PortAlignmentBegin,
			PortSpacing:        b.cfg.SlotSpacing,
			AdditionalPortSpace: Spacing{
				Top:    headerHeight + b.cfg.SlotsAreaMargin*1.5,
				Bottom: b.cfg.SlotsAreaMargin,
			},
		},
	}
}

func (b *Builder) ports(c definitions.ComponentDefinition, nodeID string, maxRoot *float64, g *Graph) (ports []Port, width, height float64) {
	var maxLeft, maxRight float64
	var inputs, outputs int
	seen := make(map[string]bool)

	for _, s := range c.Slots {
		for _, d := range s.Direction {
			if !d.Valid() {
				g.Diagnostics = append(g.Diagnostics, errors.New(errors.ErrCodeInvalidDefinitions,
					"slot %q of %q has unknown direction %q", s.SlotID, nodeID, d))
				continue
			}
			id := PortID(s.SlotID, nodeID, d)
			if seen[id] {
				g.Diagnostics = append(g.Diagnostics, errors.New(errors.ErrCodeInvalidDefinitions,
					"slot %q of %q declares direction %q twice", s.SlotID, nodeID, d))
				continue
			}
			seen[id] = true
			label := b.label(s.SlotID, b.cfg.SlotLabelFont, "")
			side := East
			if d == definitions.Input {
				side = West
				maxLeft = math.Max(maxLeft, label.Width)
				inputs++
			} else {
				maxRight = math.Max(maxRight, label.Width)
				outputs++
			}
			ports = append(ports, Port{
				ID:        id,
				SlotID:    s.SlotID,
				Direction: d,
				Side:      side,
				Labels:    []Label{label},
				Height:    b.cfg.SlotDiameter(),
				Tooltip:   slotTooltip(s),
			})
		}
	}

	if maxRoot != nil {
		*maxRoot = maxLeft
	}
	width = maxLeft + maxRight
	height = float64(max(inputs, outputs))*b.cfg.SlotPitch() + b.cfg.SlotsAreaMargin
	return ports, width, height
}

func slotTooltip(s definitions.Slot) Tooltip {
	return Tooltip{
		{Name: "Description", Value: orDash(s.Description)},
		{Name: "Type", Value: orDash(s.Type)},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// header returns the three stacked header labels and the header box size.
func (b *Builder) header(memberID, webpackageID, artifactID string, isRoot bool) ([]Label, float64, float64) {
	if webpackageID != "" {
		webpackageID = ":" + webpackageID
	}
	artifactID = "/" + artifactID

	var labels []Label
	if isRoot {
		labels = []Label{
			b.label("", textmetrics.Font{}, ClassMemberID),
			b.label(webpackageID, b.cfg.RootNameFont, ClassComponentNameRoot),
			b.label(artifactID, b.cfg.RootNameFont, ClassComponentNameRoot),
		}
	} else {
		labels = []Label{
			b.label(memberID, b.cfg.MemberIDFont, ClassMemberID),
			b.label(webpackageID, b.cfg.MemberNameFont, ClassComponentName),
			b.label(artifactID, b.cfg.MemberNameFont, ClassComponentName),
		}
	}

	var width, height float64
	for _, l := range labels {
		width = math.Max(width, l.Width)
		height += l.Height
	}
	return labels, width + 2*b.cfg.HeaderMargin, height + 2*b.cfg.HeaderMargin
}

func (b *Builder) label(text string, f textmetrics.Font, class string) Label {
	w, h := textmetrics.Measure(b.measurer, text, f)
	return Label{Text: text, Width: w, Height: h, Font: f, Class: class}
}

func (b *Builder) edge(c definitions.Connection, rootID string) Edge {
	e := Edge{
		ID:           c.ConnectionID,
		HookFunction: c.HookFunction,
	}

	if c.Source.IsBoundary() {
		e.Source = rootID
		e.SourcePort = PortID(c.Source.Slot, rootID, definitions.Input)
	} else {
		e.Source = c.Source.MemberIDRef
		e.SourcePort = PortID(c.Source.Slot, c.Source.MemberIDRef, definitions.Output)
	}
	if c.Destination.IsBoundary() {
		e.Target = rootID
		e.TargetPort = PortID(c.Destination.Slot, rootID, definitions.Output)
	} else {
		e.Target = c.Destination.MemberIDRef
		e.TargetPort = PortID(c.Destination.Slot, c.Destination.MemberIDRef, definitions.Input)
	}

	text, truncated := TruncateLabel(c.ConnectionID, b.cfg.ConnectionLabelMaxLength)
	e.Labels = []Label{b.label(text, b.cfg.ConnectionLabelFont, "")}
	if truncated {
		e.Tooltip = append(e.Tooltip, TooltipField{Name: "Connection Id", Value: c.ConnectionID})
	}
	if c.HookFunction != "" {
		e.Tooltip = append(e.Tooltip, TooltipField{Name: "Hook function", Value: c.HookFunction})
	}
	return e
}

// TruncateLabel shortens s to limit characters followed by "..." when it is
// longer than limit. A non-positive limit disables truncation.
func TruncateLabel(s string, limit int) (string, bool) {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s, false
	}
	r := []rune(s)
	return string(r[:limit]) + "...", true
}
