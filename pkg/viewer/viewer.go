// Package viewer drives one component diagram: it builds the graph from
// definitions, lays it out in the background, and owns the view state a
// front-end renders (main and minimap transforms, member highlighting,
// connection highlighting, hidden slots).
//
// A Viewer starts in [StatusInit]. [Viewer.SetDefinitions] builds the graph
// and submits a layout; when the layout completes the surfaces are set up
// and the viewer becomes [StatusReady]. Scale changes that arrive before
// that are dropped. A highlighted member is remembered and re-applied
// every time the viewer becomes ready.
//
// All methods are safe for concurrent use. Listeners registered with
// [Viewer.Subscribe] are called without the viewer lock held and may call
// back into the viewer.
package viewer

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowview/pkg/connectivity"
	"github.com/matzehuels/flowview/pkg/definitions"
	"github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/layout"
	"github.com/matzehuels/flowview/pkg/model"
	"github.com/matzehuels/flowview/pkg/render/dataflow"
	"github.com/matzehuels/flowview/pkg/transform"
)

// Status is the lifecycle state of a Viewer.
type Status string

const (
	StatusInit  Status = "init"
	StatusReady Status = "ready"
)

// EventKind classifies viewer events.
type EventKind string

const (
	EventReady     EventKind = "ready"
	EventSettled   EventKind = "settled"
	EventTransform EventKind = "transform"
	EventHighlight EventKind = "highlight"
	EventFailed    EventKind = "failed"
)

// Event is published to subscribers after a state change.
type Event struct {
	Kind EventKind
	Err  error
}

// round is one SetDefinitions call and the layout it waits for.
type round struct {
	gen  uint64
	done chan struct{}
	err  error
}

// Viewer is the controller of one diagram.
type Viewer struct {
	mu sync.Mutex

	logger        *log.Logger
	builder       *model.Builder
	scheduler     *layout.Scheduler
	style         dataflow.Style
	viewport      transform.Size
	minimapScale  float64
	settleDelay   time.Duration
	fixedTitle    string
	rootSelection string
	layoutOpts    layout.Options
	labelMargin   float64

	status  Status
	gen     uint64
	current *round
	index   *definitions.Index
	graph   *model.Graph
	result  *layout.Result
	title   string

	main      *transform.Surface
	navigator *transform.Surface
	minimap   *transform.Surface
	settle    *time.Timer

	highlightedMember string
	highlight         connectivity.State
	hoveredEdge       string
	toggledEdges      map[string]bool
	hideDisconnected  bool
	disconnected      []string

	listeners map[int]func(Event)
	nextID    int
	closed    bool
}

// New returns a viewer laying out with engine.
func New(engine layout.Engine, opts ...Option) *Viewer {
	v := &Viewer{
		style:        dataflow.Simple{},
		viewport:     DefaultViewport,
		minimapScale: DefaultMinimapScale,
		settleDelay:  DefaultSettleDelay,
		layoutOpts:   layout.DefaultOptions(),
		labelMargin:  dataflow.DefaultLabelMargin,
		status:       StatusInit,
		toggledEdges: map[string]bool{},
		listeners:    map[int]func(Event){},
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = log.Default()
	}
	if v.builder == nil {
		v.builder = model.NewBuilder(model.DefaultConfig(), nil)
	}
	if v.minimapScale <= 0 {
		v.minimapScale = DefaultMinimapScale
	}
	v.scheduler = layout.NewScheduler(engine, v.logger)
	return v
}

// Subscribe registers fn for viewer events and returns a function that
// removes it.
func (v *Viewer) Subscribe(fn func(Event)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()
	id := v.nextID
	v.nextID++
	v.listeners[id] = fn
	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		delete(v.listeners, id)
	}
}

func (v *Viewer) emit(events ...Event) {
	if len(events) == 0 {
		return
	}
	v.mu.Lock()
	fns := make([]func(Event), 0, len(v.listeners))
	for _, fn := range v.listeners {
		fns = append(fns, fn)
	}
	v.mu.Unlock()
	for _, e := range events {
		for _, fn := range fns {
			fn(e)
		}
	}
}

// SetDefinitions replaces the diagram. The graph is rebuilt from scratch
// and a layout is submitted, superseding any layout still running. The
// viewer is in StatusInit until the layout has been applied; use
// [Viewer.WaitReady] to block until then.
func (v *Viewer) SetDefinitions(ctx context.Context, ix *definitions.Index) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.gen++
	gen := v.gen
	v.stopSettleLocked()
	if v.current != nil {
		v.finishLocked(v.current, errors.New(errors.ErrCodeSuperseded, "definitions replaced"))
	}
	r := &round{gen: gen, done: make(chan struct{})}
	v.current = r
	v.status = StatusInit
	v.index = ix
	v.result = nil
	v.highlight = connectivity.State{}
	v.hoveredEdge = ""
	v.toggledEdges = map[string]bool{}
	v.disconnected = nil

	v.graph = v.builder.Build(ix, v.rootSelection)
	for _, d := range v.graph.Diagnostics {
		v.logger.Warn("definitions", "err", errors.UserMessage(d))
	}
	v.title = v.fixedTitle
	if v.title == "" {
		v.title = TitleInterface
		if ix != nil && ix.HasMembers {
			v.title = TitleDataflow
		}
	}
	req := layout.NewRequest(v.graph, layout.Size{Width: v.viewport.Width, Height: v.viewport.Height}, v.layoutOpts)
	// Submit under mu so scheduler order matches gen order.
	ch := v.scheduler.Submit(ctx, req)
	v.logger.Debug("layout submitted", "request", req.ID, "nodes", v.graph.NodeCount())
	v.mu.Unlock()

	go func() {
		c := <-ch
		v.complete(r, c)
	}()
}

// WaitReady blocks until the latest SetDefinitions call has been applied
// or has failed. It returns the layout error, if any.
func (v *Viewer) WaitReady(ctx context.Context) error {
	v.mu.Lock()
	r := v.current
	v.mu.Unlock()
	if r == nil {
		return errors.New(errors.ErrCodeInvalidInput, "no definitions set")
	}
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (v *Viewer) finishLocked(r *round, err error) {
	select {
	case <-r.done:
	default:
		r.err = err
		close(r.done)
	}
}

func (v *Viewer) complete(r *round, c layout.Completion) {
	v.mu.Lock()
	if v.closed || r.gen != v.gen {
		v.finishLocked(r, errors.New(errors.ErrCodeSuperseded, "layout %s superseded", c.RequestID))
		v.mu.Unlock()
		return
	}
	if c.Err != nil {
		v.finishLocked(r, c.Err)
		v.mu.Unlock()
		if !c.Superseded() {
			v.logger.Error("layout failed", "err", c.Err)
			v.emit(Event{Kind: EventFailed, Err: c.Err})
		}
		return
	}

	v.applyLocked(c.Result)
	events := []Event{{Kind: EventReady}}
	if v.highlightedMember != "" {
		v.highlight = v.computeHighlightLocked(v.highlightedMember)
		events = append(events, Event{Kind: EventHighlight})
	}
	v.status = StatusReady
	v.finishLocked(r, nil)
	v.mu.Unlock()

	v.logger.Debug("layout applied", "request", c.RequestID, "took", c.Duration)
	v.emit(events...)
}

func (v *Viewer) applyLocked(res *layout.Result) {
	v.result = res
	v.disconnected = res.DisconnectedPorts()

	content := transform.Size{Width: res.BoundingBox.Width, Height: res.BoundingBox.Height}
	v.main = transform.NewSurface("main",
		&transform.StaticGeometry{ViewportSize: v.viewport, ContentSize: content},
		transform.WithLogger(v.logger))
	v.main.SetScaleExtent(v.main.AutoScale(), math.Inf(1))
	v.main.AutoFitAndCenter()
	v.main.SnapshotInitialPosition()

	mini := v.viewport.Scaled(v.minimapScale)
	v.minimap = transform.NewSurface("minimap",
		&transform.StaticGeometry{ViewportSize: mini, ContentSize: content},
		transform.WithLogger(v.logger))
	v.navigator = transform.NewSurface("navigator",
		&transform.StaticGeometry{ViewportSize: mini, ContentSize: mini},
		transform.WithLogger(v.logger),
		transform.WithRestrictedDragging(),
		transform.WithScaleExtent(0, 1))

	v.main.SetReflected(v.navigator, 1/v.minimapScale)
	v.navigator.SetReflected(v.main, v.minimapScale)

	gen := v.gen
	v.settle = time.AfterFunc(v.settleDelay, func() {
		v.mu.Lock()
		if v.closed || v.gen != gen || v.minimap == nil {
			v.mu.Unlock()
			return
		}
		v.minimap.AutoFitAndCenter()
		v.mu.Unlock()
		v.emit(Event{Kind: EventSettled})
	})
}

func (v *Viewer) stopSettleLocked() {
	if v.settle != nil {
		v.settle.Stop()
		v.settle = nil
	}
}

// Status returns the lifecycle state.
func (v *Viewer) Status() Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

// Title returns the diagram title.
func (v *Viewer) Title() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.title
}

// Graph returns the graph of the current definitions.
func (v *Viewer) Graph() *model.Graph {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.graph
}

// Result returns the applied layout, or nil before the viewer is ready.
func (v *Viewer) Result() *layout.Result {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.result
}

// Close cancels the layout in flight and the settle timer. A closed
// viewer ignores further definitions.
func (v *Viewer) Close() error {
	v.mu.Lock()
	v.closed = true
	v.stopSettleLocked()
	if v.current != nil {
		v.finishLocked(v.current, errors.New(errors.ErrCodeSuperseded, "viewer closed"))
	}
	v.mu.Unlock()

	v.scheduler.Cancel()
	v.scheduler.Wait()
	return nil
}
