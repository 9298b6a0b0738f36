package viewer

import (
	"slices"

	"github.com/matzehuels/flowview/pkg/connectivity"
	"github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/render"
	"github.com/matzehuels/flowview/pkg/render/dataflow"
	"github.com/matzehuels/flowview/pkg/transform"
)

// SetScale applies a scale token to the main surface: "none" does
// nothing, "auto" fits and centers the diagram, a positive number sets
// the scale and keeps the translation. Invalid tokens are logged and
// returned; the transform is left unchanged. Tokens that arrive before
// the viewer is ready are dropped.
func (v *Viewer) SetScale(token string) error {
	tok, err := transform.ParseScale(token)
	if err != nil {
		v.logger.Error("invalid scale", "err", err)
		return err
	}

	v.mu.Lock()
	if v.status != StatusReady {
		v.mu.Unlock()
		v.logger.Debug("scale ignored, viewer not ready", "scale", token)
		return nil
	}
	switch tok.Mode {
	case transform.ScaleNone:
		v.mu.Unlock()
		return nil
	case transform.ScaleAuto:
		v.main.AutoFitAndCenter()
	case transform.ScaleLiteral:
		v.main.ApplyScale(tok.Value)
	}
	v.mu.Unlock()
	v.emit(Event{Kind: EventTransform})
	return nil
}

// Zoom is an interactive zoom or pan of the main surface. The navigator
// frame follows.
func (v *Viewer) Zoom(x, y, scale float64) {
	v.gesture(func() { v.main.Zoom(x, y, scale) })
}

// Pan moves the main diagram by (dx, dy).
func (v *Viewer) Pan(dx, dy float64) {
	v.gesture(func() { v.main.Pan(dx, dy) })
}

// ZoomBy multiplies the main scale by factor around the viewport center.
func (v *Viewer) ZoomBy(factor float64) {
	v.gesture(func() { v.main.ZoomBy(factor) })
}

// DragNavigator moves the minimap frame to (x, y). The main diagram
// follows.
func (v *Viewer) DragNavigator(x, y float64) {
	v.gesture(func() {
		v.navigator.Zoom(x, y, v.navigator.Transform().Scale)
	})
}

// PanNavigator moves the minimap frame by (dx, dy).
func (v *Viewer) PanNavigator(dx, dy float64) {
	v.gesture(func() { v.navigator.Pan(dx, dy) })
}

func (v *Viewer) gesture(fn func()) {
	v.mu.Lock()
	if v.status != StatusReady {
		v.mu.Unlock()
		return
	}
	fn()
	v.mu.Unlock()
	v.emit(Event{Kind: EventTransform})
}

// Transforms returns the main, navigator and minimap transforms. All are
// the identity before the viewer is ready.
func (v *Viewer) Transforms() (main, navigator, minimap transform.Transform) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.main == nil {
		id := transform.Identity()
		return id, id, id
	}
	return v.main.Transform(), v.navigator.Transform(), v.minimap.Transform()
}

// ScaleExtent returns the scale extent of the main surface.
func (v *Viewer) ScaleExtent() (lo, hi float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.main == nil {
		return 0, 0
	}
	return v.main.ScaleExtent()
}

// HighlightMember highlights memberID, the members it feeds and grays
// out the rest. Before the viewer is ready the member is only
// remembered. An id that is not a member clears the highlight.
func (v *Viewer) HighlightMember(memberID string) {
	v.mu.Lock()
	v.highlightedMember = memberID
	if v.status != StatusReady {
		v.mu.Unlock()
		return
	}
	v.highlight = v.computeHighlightLocked(memberID)
	if v.highlight.Empty() {
		v.highlightedMember = ""
	}
	v.mu.Unlock()
	v.emit(Event{Kind: EventHighlight})
}

// ClickNode handles a click on a node: the root clears the highlight,
// a member is highlighted.
func (v *Viewer) ClickNode(nodeID string) {
	v.mu.Lock()
	isRoot := v.graph != nil && nodeID == v.graph.Root.ID
	v.mu.Unlock()
	if isRoot {
		v.ClearHighlight()
		return
	}
	v.HighlightMember(nodeID)
}

// ClearHighlight removes the member highlight.
func (v *Viewer) ClearHighlight() {
	v.mu.Lock()
	v.highlightedMember = ""
	v.highlight = connectivity.State{}
	v.mu.Unlock()
	v.emit(Event{Kind: EventHighlight})
}

// Highlight returns the current member highlight.
func (v *Viewer) Highlight() connectivity.State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.highlight
}

// HighlightedMember returns the remembered member, which may not be
// applied yet.
func (v *Viewer) HighlightedMember() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.highlightedMember
}

func (v *Viewer) computeHighlightLocked(memberID string) connectivity.State {
	if v.graph == nil || v.index == nil {
		return connectivity.State{}
	}
	return connectivity.Highlight(memberID, v.graph.MemberIDs(), v.index.Connections, v.graph.Root.ID)
}

// HoverEdge highlights a connection while the pointer is over it.
func (v *Viewer) HoverEdge(connectionID string) {
	v.mu.Lock()
	v.hoveredEdge = connectionID
	v.mu.Unlock()
	v.emit(Event{Kind: EventHighlight})
}

// LeaveEdge ends the hover highlight. Toggled connections stay
// highlighted.
func (v *Viewer) LeaveEdge(connectionID string) {
	v.mu.Lock()
	if v.hoveredEdge == connectionID {
		v.hoveredEdge = ""
	}
	v.mu.Unlock()
	v.emit(Event{Kind: EventHighlight})
}

// ToggleEdge pins or unpins the highlight of a connection.
func (v *Viewer) ToggleEdge(connectionID string) {
	v.mu.Lock()
	if v.toggledEdges[connectionID] {
		delete(v.toggledEdges, connectionID)
	} else {
		v.toggledEdges[connectionID] = true
	}
	v.mu.Unlock()
	v.emit(Event{Kind: EventHighlight})
}

// EdgeHighlighted reports whether a connection is hovered or toggled.
func (v *Viewer) EdgeHighlighted(connectionID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hoveredEdge == connectionID || v.toggledEdges[connectionID]
}

func (v *Viewer) highlightedEdgesLocked() []string {
	var ids []string
	for id := range v.toggledEdges {
		ids = append(ids, id)
	}
	if v.hoveredEdge != "" && !v.toggledEdges[v.hoveredEdge] {
		ids = append(ids, v.hoveredEdge)
	}
	slices.Sort(ids)
	return ids
}

// ToggleDisconnectedSlots hides or shows the slots no connection is
// attached to and returns whether they are now hidden.
func (v *Viewer) ToggleDisconnectedSlots() bool {
	v.mu.Lock()
	v.hideDisconnected = !v.hideDisconnected
	hidden := v.hideDisconnected
	v.mu.Unlock()
	v.emit(Event{Kind: EventHighlight})
	return hidden
}

// DisconnectedSlotsHidden reports whether disconnected slots are hidden.
func (v *Viewer) DisconnectedSlotsHidden() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hideDisconnected
}

// HasDisconnectedSlots reports whether the laid out diagram has slots no
// connection is attached to.
func (v *Viewer) HasDisconnectedSlots() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.disconnected) > 0
}

// DisconnectedSlots returns the port ids of the disconnected slots.
func (v *Viewer) DisconnectedSlots() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return slices.Clone(v.disconnected)
}

// ViewOptions returns the sink options describing the current view.
func (v *Viewer) ViewOptions() []dataflow.SVGOption {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.viewOptionsLocked()
}

func (v *Viewer) viewOptionsLocked() []dataflow.SVGOption {
	opts := []dataflow.SVGOption{
		dataflow.WithStyle(v.style),
		dataflow.WithViewport(v.viewport.Width, v.viewport.Height),
		dataflow.WithHighlight(v.highlight),
		dataflow.WithHighlightedEdges(v.highlightedEdgesLocked()...),
		dataflow.WithHiddenDisconnected(v.hideDisconnected),
		dataflow.WithEdgeLabelOffset(v.labelMargin),
		dataflow.WithTitle(v.title),
		dataflow.WithMinimap(v.minimapScale),
	}
	if v.main != nil {
		opts = append(opts, dataflow.WithTransform(v.main.Transform()))
	}
	return opts
}

// Render draws the current view as SVG.
func (v *Viewer) Render(extra ...dataflow.SVGOption) ([]byte, error) {
	v.mu.Lock()
	if v.status != StatusReady {
		v.mu.Unlock()
		return nil, errors.New(errors.ErrCodeInvalidInput, "viewer is not ready")
	}
	res := v.result
	opts := append(v.viewOptionsLocked(), extra...)
	v.mu.Unlock()
	return dataflow.RenderSVG(res, opts...), nil
}

// RenderJSON writes the current view as JSON.
func (v *Viewer) RenderJSON(extra ...dataflow.SVGOption) ([]byte, error) {
	v.mu.Lock()
	if v.status != StatusReady {
		v.mu.Unlock()
		return nil, errors.New(errors.ErrCodeInvalidInput, "viewer is not ready")
	}
	res := v.result
	opts := append(v.viewOptionsLocked(), extra...)
	v.mu.Unlock()
	return dataflow.RenderJSON(res, opts...)
}

// Export returns a standalone SVG document of the current view and the
// suggested file name, "<artifactId>.svg" of the root component.
func (v *Viewer) Export(extra ...dataflow.SVGOption) (string, []byte, error) {
	svg, err := v.Render(extra...)
	if err != nil {
		return "", nil, err
	}
	v.mu.Lock()
	name := v.graph.Root.ArtifactID + ".svg"
	css := v.style.CSS()
	v.mu.Unlock()
	if err := errors.ValidateExportFilename(name); err != nil {
		return "", nil, err
	}
	return name, render.Export(svg, css), nil
}
