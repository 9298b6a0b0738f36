package viewer

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowview/pkg/definitions"
	"github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/layout"
	"github.com/matzehuels/flowview/pkg/transform"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

// pipelineIndex is boundary -> a -> b -> c with an extra d fed by a.
// Every member has an unused "spare" input.
func pipelineIndex() *definitions.Index {
	in, out := definitions.Input, definitions.Output
	ep := func(member, slot string) definitions.Endpoint {
		return definitions.Endpoint{MemberIDRef: member, Slot: slot}
	}
	return &definitions.Index{
		ComponentArtifactID: "pipeline",
		HasMembers:          true,
		Components: map[string]definitions.ComponentDefinition{
			"pipeline": {ArtifactID: "pipeline", WebpackageID: "demo@1.0", Slots: []definitions.Slot{
				{SlotID: "start", Direction: definitions.Directions{in}},
			}},
			"step": {ArtifactID: "step", Slots: []definitions.Slot{
				{SlotID: "in", Direction: definitions.Directions{in}},
				{SlotID: "spare", Direction: definitions.Directions{in}},
				{SlotID: "out", Direction: definitions.Directions{out}},
			}},
		},
		Members: []definitions.Member{
			{MemberID: "a", ArtifactID: "step"},
			{MemberID: "b", ArtifactID: "step"},
			{MemberID: "c", ArtifactID: "step"},
			{MemberID: "d", ArtifactID: "step"},
		},
		Connections: []definitions.Connection{
			{ConnectionID: "start-a", Source: definitions.Endpoint{Slot: "start"}, Destination: ep("a", "in")},
			{ConnectionID: "a-b", Source: ep("a", "out"), Destination: ep("b", "in")},
			{ConnectionID: "b-c", Source: ep("b", "out"), Destination: ep("c", "in")},
			{ConnectionID: "a-d", Source: ep("a", "out"), Destination: ep("d", "in")},
		},
	}
}

// gateEngine delays layouts until release is closed.
type gateEngine struct {
	release chan struct{}
	err     error
}

func newGate() *gateEngine { return &gateEngine{release: make(chan struct{})} }

func (*gateEngine) Name() string { return "gate" }

func (e *gateEngine) Layout(ctx context.Context, req layout.Request) (*layout.Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-e.release:
	}
	if e.err != nil {
		return nil, e.err
	}
	return layout.NewLayeredEngine().Layout(ctx, req)
}

func newViewer(t *testing.T, engine layout.Engine, opts ...Option) *Viewer {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger()), WithViewport(1000, 800), WithSettleDelay(time.Hour)}, opts...)
	v := New(engine, opts...)
	t.Cleanup(func() { v.Close() })
	return v
}

func readyViewer(t *testing.T, opts ...Option) *Viewer {
	t.Helper()
	v := newViewer(t, layout.NewLayeredEngine(), opts...)
	v.SetDefinitions(context.Background(), pipelineIndex())
	waitReady(t, v)
	return v
}

func waitReady(t *testing.T, v *Viewer) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := v.WaitReady(ctx); err != nil {
		t.Fatalf("WaitReady() error: %v", err)
	}
}

func TestViewerBecomesReady(t *testing.T) {
	gate := newGate()
	v := newViewer(t, gate)
	if v.Status() != StatusInit {
		t.Errorf("Status() = %q, want init", v.Status())
	}
	v.SetDefinitions(context.Background(), pipelineIndex())
	if v.Status() != StatusInit {
		t.Errorf("Status() before layout = %q, want init", v.Status())
	}
	if _, err := v.Render(); err == nil {
		t.Error("Render() before ready succeeded")
	}
	close(gate.release)
	waitReady(t, v)

	if v.Status() != StatusReady {
		t.Errorf("Status() = %q, want ready", v.Status())
	}
	if v.Result() == nil {
		t.Fatal("Result() = nil after ready")
	}
	if v.Title() != TitleDataflow {
		t.Errorf("Title() = %q, want %q", v.Title(), TitleDataflow)
	}
}

func TestViewerTitles(t *testing.T) {
	ix := pipelineIndex()
	ix.Members, ix.Connections, ix.HasMembers = nil, nil, false
	v := newViewer(t, layout.NewLayeredEngine())
	v.SetDefinitions(context.Background(), ix)
	waitReady(t, v)
	if v.Title() != TitleInterface {
		t.Errorf("Title() = %q, want %q", v.Title(), TitleInterface)
	}

	v2 := readyViewer(t, WithTitle("Custom"))
	if v2.Title() != "Custom" {
		t.Errorf("Title() = %q, want Custom", v2.Title())
	}
}

func TestViewerInitialFit(t *testing.T) {
	v := readyViewer(t)
	bb := v.Result().BoundingBox
	content := transform.Size{Width: bb.Width, Height: bb.Height}
	vp := transform.Size{Width: 1000, Height: 800}

	want, err := transform.AutoScale(vp, content)
	if err != nil {
		t.Fatal(err)
	}
	main, nav, mini := v.Transforms()
	if main.Scale != want {
		t.Errorf("main scale = %v, want %v", main.Scale, want)
	}
	off := transform.CenterOffset(vp, content, want)
	if main.X != off.X || main.Y != off.Y {
		t.Errorf("main translation = (%v,%v), want (%v,%v)", main.X, main.Y, off.X, off.Y)
	}
	if lo, _ := v.ScaleExtent(); lo != want {
		t.Errorf("scale extent lower bound = %v, want %v", lo, want)
	}
	if nav != transform.Identity() || mini != transform.Identity() {
		t.Errorf("navigator/minimap = %v / %v, want identity before interaction", nav, mini)
	}
}

func TestSetScale(t *testing.T) {
	v := readyViewer(t)
	fit, _, _ := v.Transforms()

	if err := v.SetScale("none"); err != nil {
		t.Fatal(err)
	}
	if got, _, _ := v.Transforms(); got != fit {
		t.Errorf("none changed transform to %v", got)
	}

	if err := v.SetScale("2.5"); err != nil {
		t.Fatal(err)
	}
	got, _, _ := v.Transforms()
	if got.Scale != 2.5 || got.X != fit.X || got.Y != fit.Y {
		t.Errorf("literal scale = %v, want scale 2.5 at (%v,%v)", got, fit.X, fit.Y)
	}

	if err := v.SetScale("auto"); err != nil {
		t.Fatal(err)
	}
	if got, _, _ := v.Transforms(); got != fit {
		t.Errorf("auto = %v, want %v", got, fit)
	}
}

func TestSetScaleInvalid(t *testing.T) {
	v := readyViewer(t)
	before, _, _ := v.Transforms()
	for _, tok := range []string{"-1", "0", "big", "NaN"} {
		err := v.SetScale(tok)
		if !errors.Is(err, errors.ErrCodeInvalidScale) {
			t.Errorf("SetScale(%q) error = %v, want INVALID_SCALE", tok, err)
		}
	}
	if after, _, _ := v.Transforms(); after != before {
		t.Errorf("transform changed to %v", after)
	}
}

func TestSetScaleBeforeReadyIgnored(t *testing.T) {
	gate := newGate()
	v := newViewer(t, gate)
	v.SetDefinitions(context.Background(), pipelineIndex())
	if err := v.SetScale("3"); err != nil {
		t.Errorf("SetScale() before ready error = %v", err)
	}
	close(gate.release)
	waitReady(t, v)

	main, _, _ := v.Transforms()
	if lo, _ := v.ScaleExtent(); main.Scale != lo {
		t.Errorf("main scale = %v, want auto scale %v", main.Scale, lo)
	}
}

func TestPendingHighlightAppliedOnReady(t *testing.T) {
	gate := newGate()
	v := newViewer(t, gate)
	v.SetDefinitions(context.Background(), pipelineIndex())
	v.HighlightMember("a")
	if !v.Highlight().Empty() {
		t.Error("highlight applied before ready")
	}
	close(gate.release)
	waitReady(t, v)

	h := v.Highlight()
	if h.Selected != "a" {
		t.Fatalf("Selected = %q, want a", h.Selected)
	}
	for _, m := range []string{"a", "b", "d"} {
		if !h.IsHighlighted(m) {
			t.Errorf("%s not highlighted", m)
		}
	}
	if !h.IsGrayed("c") {
		t.Error("c not grayed")
	}
	if !h.IsEdgeGrayed("b-c") {
		t.Error("b-c not grayed")
	}
}

func TestHighlightSurvivesRebuild(t *testing.T) {
	v := readyViewer(t)
	v.HighlightMember("b")
	v.SetDefinitions(context.Background(), pipelineIndex())
	waitReady(t, v)
	if got := v.Highlight().Selected; got != "b" {
		t.Errorf("Selected after rebuild = %q, want b", got)
	}
}

func TestClickNode(t *testing.T) {
	v := readyViewer(t)

	v.ClickNode("b")
	if got := v.Highlight().Selected; got != "b" {
		t.Errorf("Selected = %q, want b", got)
	}
	v.ClickNode("pipeline")
	if !v.Highlight().Empty() || v.HighlightedMember() != "" {
		t.Error("clicking the root did not clear the highlight")
	}

	v.HighlightMember("a")
	v.HighlightMember("nope")
	if !v.Highlight().Empty() || v.HighlightedMember() != "" {
		t.Error("unknown member did not clear the highlight")
	}

	v.HighlightMember("c")
	v.ClearHighlight()
	if !v.Highlight().Empty() {
		t.Error("ClearHighlight() kept the highlight")
	}
}

func TestEdgeHighlight(t *testing.T) {
	v := readyViewer(t)

	v.HoverEdge("a-b")
	if !v.EdgeHighlighted("a-b") {
		t.Error("hovered edge not highlighted")
	}
	v.LeaveEdge("a-b")
	if v.EdgeHighlighted("a-b") {
		t.Error("edge highlighted after leave")
	}

	v.ToggleEdge("a-b")
	v.HoverEdge("a-b")
	v.LeaveEdge("a-b")
	if !v.EdgeHighlighted("a-b") {
		t.Error("toggled edge lost highlight on leave")
	}
	v.ToggleEdge("a-b")
	if v.EdgeHighlighted("a-b") {
		t.Error("edge highlighted after second toggle")
	}

	v.HoverEdge("b-c")
	v.LeaveEdge("a-b")
	if !v.EdgeHighlighted("b-c") {
		t.Error("leaving another edge ended the hover")
	}
}

func TestDisconnectedSlots(t *testing.T) {
	v := readyViewer(t)
	if !v.HasDisconnectedSlots() {
		t.Fatal("HasDisconnectedSlots() = false")
	}
	// Four spare inputs plus the outputs of c and d.
	if got := len(v.DisconnectedSlots()); got != 6 {
		t.Errorf("len(DisconnectedSlots()) = %d, want 6: %v", got, v.DisconnectedSlots())
	}

	svg, err := v.Render()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(svg), "slot-spare_a_input") {
		t.Error("disconnected slot missing while shown")
	}
	if !v.ToggleDisconnectedSlots() || !v.DisconnectedSlotsHidden() {
		t.Error("ToggleDisconnectedSlots() did not hide")
	}
	svg, _ = v.Render()
	if strings.Contains(string(svg), "slot-spare_a_input") {
		t.Error("disconnected slot rendered while hidden")
	}
	if v.ToggleDisconnectedSlots() {
		t.Error("second toggle did not show")
	}
}

func TestZoomReflectsOntoNavigator(t *testing.T) {
	v := readyViewer(t)
	lo, _ := v.ScaleExtent()

	v.Zoom(10, 20, 2*lo)
	main, nav, _ := v.Transforms()
	if main.Scale != 2*lo {
		t.Fatalf("main scale = %v, want %v", main.Scale, 2*lo)
	}
	want := transform.Reflect(main, 1/DefaultMinimapScale, nil)
	if nav != want {
		t.Errorf("navigator = %v, want %v", nav, want)
	}

	v.Zoom(0, 0, lo/10)
	if main, _, _ := v.Transforms(); main.Scale != lo {
		t.Errorf("scale below extent not clamped: %v", main.Scale)
	}
}

func TestNavigatorDragMovesMain(t *testing.T) {
	v := readyViewer(t)
	lo, _ := v.ScaleExtent()
	v.Zoom(0, 0, 2*lo)

	v.DragNavigator(5, 7)
	main, nav, _ := v.Transforms()
	if nav.X != 5 || nav.Y != 7 {
		t.Fatalf("navigator = %v, want at (5,7)", nav)
	}
	bb := v.Result().BoundingBox
	initial := transform.CenterOffset(transform.Size{Width: 1000, Height: 800},
		transform.Size{Width: bb.Width, Height: bb.Height}, 1)
	want := transform.Reflect(nav, DefaultMinimapScale, &initial)
	if main != want {
		t.Errorf("main = %v, want %v", main, want)
	}

	// The frame cannot leave the minimap.
	v.DragNavigator(-50, 1e6)
	_, nav, _ = v.Transforms()
	if nav.X != 0 {
		t.Errorf("navigator x = %v, want clamped to 0", nav.X)
	}
	mini := transform.Size{Width: 1000, Height: 800}.Scaled(DefaultMinimapScale)
	if limit := mini.Height - mini.Height*nav.Scale; nav.Y != limit {
		t.Errorf("navigator y = %v, want clamped to %v", nav.Y, limit)
	}
}

func TestGesturesBeforeReadyIgnored(t *testing.T) {
	gate := newGate()
	v := newViewer(t, gate)
	v.SetDefinitions(context.Background(), pipelineIndex())
	v.Zoom(1, 2, 3)
	v.Pan(1, 1)
	v.DragNavigator(1, 1)
	main, _, _ := v.Transforms()
	if main != transform.Identity() {
		t.Errorf("main = %v before ready, want identity", main)
	}
	close(gate.release)
	waitReady(t, v)
}

func TestSettleFitsMinimap(t *testing.T) {
	v := newViewer(t, layout.NewLayeredEngine(), WithSettleDelay(10*time.Millisecond))
	settled := make(chan struct{}, 1)
	v.Subscribe(func(e Event) {
		if e.Kind == EventSettled {
			settled <- struct{}{}
		}
	})
	v.SetDefinitions(context.Background(), pipelineIndex())
	waitReady(t, v)

	select {
	case <-settled:
	case <-time.After(5 * time.Second):
		t.Fatal("minimap never settled")
	}
	_, _, mini := v.Transforms()
	bb := v.Result().BoundingBox
	miniSize := transform.Size{Width: 1000, Height: 800}.Scaled(DefaultMinimapScale)
	want, _ := transform.AutoScale(miniSize, transform.Size{Width: bb.Width, Height: bb.Height})
	if mini.Scale != want {
		t.Errorf("minimap scale = %v, want %v", mini.Scale, want)
	}
}

func TestCloseStopsSettle(t *testing.T) {
	v := newViewer(t, layout.NewLayeredEngine(), WithSettleDelay(30*time.Millisecond))
	settled := make(chan struct{}, 1)
	v.Subscribe(func(e Event) {
		if e.Kind == EventSettled {
			settled <- struct{}{}
		}
	})
	v.SetDefinitions(context.Background(), pipelineIndex())
	waitReady(t, v)
	v.Close()

	select {
	case <-settled:
		t.Error("settle timer fired after Close")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestCloseCancelsLayout(t *testing.T) {
	gate := newGate()
	v := newViewer(t, gate)
	v.SetDefinitions(context.Background(), pipelineIndex())
	v.Close()

	err := v.WaitReady(context.Background())
	if !errors.Is(err, errors.ErrCodeSuperseded) {
		t.Errorf("WaitReady() after Close = %v, want SUPERSEDED", err)
	}
	if v.Status() != StatusInit {
		t.Errorf("Status() = %q, want init", v.Status())
	}
}

func TestRebuildSupersedes(t *testing.T) {
	gate := newGate()
	v := newViewer(t, gate)
	v.SetDefinitions(context.Background(), pipelineIndex())

	ix := pipelineIndex()
	ix.Members = ix.Members[:2]
	ix.Connections = ix.Connections[:2]
	v.SetDefinitions(context.Background(), ix)
	close(gate.release)
	waitReady(t, v)

	if got := len(v.Result().Root.Children); got != 2 {
		t.Errorf("members after rebuild = %d, want 2", got)
	}
}

func TestConcurrentSetDefinitions(t *testing.T) {
	v := newViewer(t, layout.NewLayeredEngine())
	for i := 0; i < 200; i++ {
		var wg sync.WaitGroup
		for j := 0; j < 2; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				v.SetDefinitions(context.Background(), pipelineIndex())
			}()
		}
		wg.Wait()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := v.WaitReady(ctx)
		cancel()
		if err != nil {
			t.Fatalf("round %d: WaitReady() = %v, Status() = %q", i, err, v.Status())
		}
		if v.Status() != StatusReady {
			t.Fatalf("round %d: Status() = %q, want ready", i, v.Status())
		}
	}
}

func TestLayoutFailure(t *testing.T) {
	gate := newGate()
	gate.err = errors.New(errors.ErrCodeLayout, "no room")
	close(gate.release)
	v := newViewer(t, gate)
	failed := make(chan error, 1)
	v.Subscribe(func(e Event) {
		if e.Kind == EventFailed {
			failed <- e.Err
		}
	})
	v.SetDefinitions(context.Background(), pipelineIndex())

	if err := v.WaitReady(context.Background()); !errors.Is(err, errors.ErrCodeLayout) {
		t.Errorf("WaitReady() = %v, want LAYOUT_FAILED", err)
	}
	select {
	case err := <-failed:
		if err == nil {
			t.Error("failed event without error")
		}
	case <-time.After(5 * time.Second):
		t.Error("no failed event")
	}
	if v.Status() != StatusInit {
		t.Errorf("Status() = %q, want init", v.Status())
	}
}

func TestWaitReadyWithoutDefinitions(t *testing.T) {
	v := newViewer(t, layout.NewLayeredEngine())
	if err := v.WaitReady(context.Background()); err == nil {
		t.Error("WaitReady() without definitions succeeded")
	}
}

func TestExport(t *testing.T) {
	v := readyViewer(t)
	v.HighlightMember("a")

	name, doc, err := v.Export()
	if err != nil {
		t.Fatal(err)
	}
	if name != "pipeline.svg" {
		t.Errorf("name = %q, want pipeline.svg", name)
	}
	s := string(doc)
	for _, want := range []string{
		`<?xml version="1.0" standalone="no"?>` + "\r\n",
		`xmlns="http://www.w3.org/2000/svg"`,
		`xmlns:xlink="http://www.w3.org/1999/xlink"`,
		`<![CDATA[`,
		`class="dataflow-node member highlighted"`,
		`class="diagram-title">Dataflow view</text>`,
		`class="minimap"`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("Export() missing %q", want)
		}
	}
}

func TestRenderJSON(t *testing.T) {
	v := readyViewer(t)
	v.ToggleEdge("a-b")
	data, err := v.RenderJSON()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{`"title": "Dataflow view"`, `"highlightedEdges": [`, `"a-b"`, `"transform": {`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("RenderJSON() missing %s", want)
		}
	}
}
