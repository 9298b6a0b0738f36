package dataflow

import (
	"encoding/json"
	"slices"

	"github.com/matzehuels/flowview/pkg/connectivity"
	"github.com/matzehuels/flowview/pkg/layout"
	"github.com/matzehuels/flowview/pkg/transform"
)

// View is the JSON document written by [RenderJSON].
type View struct {
	Title            string               `json:"title,omitempty"`
	Viewport         *transform.Size      `json:"viewport,omitempty"`
	Transform        *transform.Transform `json:"transform,omitempty"`
	Highlight        *connectivity.State  `json:"highlight,omitempty"`
	HighlightedEdges []string             `json:"highlightedEdges,omitempty"`
	HiddenSlots      []string             `json:"hiddenSlots,omitempty"`
	LabelMargin      float64              `json:"labelMargin"`
	Layout           *layout.Result       `json:"layout"`
}

// NewView collects res and the view state set by opts.
func NewView(res *layout.Result, opts ...SVGOption) View {
	r := newSVGRenderer(opts...)
	v := View{
		Title:       r.title,
		Transform:   r.transform,
		LabelMargin: r.labelMargin,
		Layout:      res,
	}
	if r.viewport.Positive() {
		vp := r.viewport
		v.Viewport = &vp
	}
	if !r.highlight.Empty() {
		h := r.highlight
		v.Highlight = &h
	}
	for id := range r.highlightedEdges {
		v.HighlightedEdges = append(v.HighlightedEdges, id)
	}
	slices.Sort(v.HighlightedEdges)
	if r.hideDisconnected {
		v.HiddenSlots = res.DisconnectedPorts()
	}
	return v
}

// RenderJSON renders res and the view state as indented JSON.
func RenderJSON(res *layout.Result, opts ...SVGOption) ([]byte, error) {
	return json.MarshalIndent(NewView(res, opts...), "", "  ")
}
