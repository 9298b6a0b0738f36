package pipeline

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowview/pkg/cache"
	"github.com/matzehuels/flowview/pkg/connectivity"
	"github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/layout"
	"github.com/matzehuels/flowview/pkg/model"
	"github.com/matzehuels/flowview/pkg/viewer"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner holds no per-run state. Multiple goroutines can use the same
// Runner with different options.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Logger  *log.Logger
	Engine  layout.Engine
	Builder *model.Builder

	// LayoutOptions are the hints passed to Engine.
	LayoutOptions layout.Options
}

// NewRunner creates a runner with the given cache and keyer. A nil keyer
// uses [cache.NewDefaultKeyer], a nil cache disables caching. The engine
// defaults to [layout.LayeredEngine]; set Engine to change it.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:         c,
		Keyer:         keyer,
		Logger:        logger,
		Engine:        layout.NewLayeredEngine(),
		Builder:       model.NewBuilder(model.DefaultConfig(), nil),
		LayoutOptions: layout.DefaultOptions(),
	}
}

// Execute runs layout, presentation and render with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	v, result, err := r.view(ctx, opts)
	if err != nil {
		return nil, err
	}
	defer v.Close()

	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, v, opts)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"cached", renderHit,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// Layout lays out the definitions and applies the view options without
// rendering anything.
func (r *Runner) Layout(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateForLayout(); err != nil {
		return nil, err
	}
	v, result, err := r.view(ctx, opts)
	if err != nil {
		return nil, err
	}
	_ = v.Close()
	return result, nil
}

// Connectivity computes the highlight state for selecting memberID. It
// builds the graph but does not lay it out.
func (r *Runner) Connectivity(opts Options, memberID string) (connectivity.State, error) {
	if opts.Definitions == nil {
		return connectivity.State{}, errors.New(errors.ErrCodeInvalidDefinitions, "definitions are required")
	}
	if err := errors.ValidateIdentifier("member", memberID); err != nil {
		return connectivity.State{}, err
	}
	g := r.Builder.Build(opts.Definitions, opts.RootSelection)
	return connectivity.Highlight(memberID, g.MemberIDs(), opts.Definitions.Connections, g.Root.ID), nil
}

// view opens a viewer, waits for its layout and applies the view options.
// The caller closes the viewer.
func (r *Runner) view(ctx context.Context, opts Options) (*viewer.Viewer, *Result, error) {
	tracked := &hitCache{Cache: r.Cache}
	engine := r.Engine
	if !opts.Refresh {
		engine = layout.NewCachedEngine(r.Engine, tracked, r.Keyer, r.Logger)
	}

	vopts := []viewer.Option{
		viewer.WithLogger(r.Logger),
		viewer.WithBuilder(r.Builder),
		viewer.WithViewport(opts.Width, opts.Height),
		viewer.WithRootSelection(opts.RootSelection),
		viewer.WithLayoutOptions(r.LayoutOptions),
	}
	if opts.Title != "" {
		vopts = append(vopts, viewer.WithTitle(opts.Title))
	}
	v := viewer.New(engine, vopts...)

	start := time.Now()
	v.SetDefinitions(ctx, opts.Definitions)
	if err := v.WaitReady(ctx); err != nil {
		_ = v.Close()
		return nil, nil, fmt.Errorf("layout: %w", err)
	}

	result := &Result{
		Graph:  v.Graph(),
		Layout: v.Result(),
		Title:  v.Title(),
	}
	result.Stats.LayoutTime = time.Since(start)
	result.Stats.NodeCount = result.Graph.NodeCount()
	result.Stats.EdgeCount = len(result.Graph.Edges)
	result.CacheInfo.LayoutHit = tracked.hits.Load() > 0
	for _, d := range result.Graph.Diagnostics {
		result.Warnings = append(result.Warnings, errors.UserMessage(d))
	}

	r.Logger.Info("computed layout",
		"engine", r.Engine.Name(),
		"nodes", result.Stats.NodeCount,
		"edges", result.Stats.EdgeCount,
		"cached", result.CacheInfo.LayoutHit,
		"duration", result.Stats.LayoutTime)

	if opts.Scale != "" {
		if err := v.SetScale(opts.Scale); err != nil {
			result.Warnings = append(result.Warnings, errors.UserMessage(err))
		}
	}
	if opts.Highlight != "" {
		v.HighlightMember(opts.Highlight)
		result.Highlight = v.Highlight()
		if result.Highlight.Empty() {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%q is not a member, highlight cleared", opts.Highlight))
		}
	}
	if opts.HideDisconnected && !v.DisconnectedSlotsHidden() {
		v.ToggleDisconnectedSlots()
	}
	result.DisconnectedSlots = v.DisconnectedSlots()
	result.ExportName = result.Graph.Root.ArtifactID + ".svg"

	return v, result, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// hitCache counts cache hits of one run.
type hitCache struct {
	cache.Cache
	hits atomic.Int32
}

func (c *hitCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.Cache.Get(ctx, key)
	if ok {
		c.hits.Add(1)
	}
	return data, ok, err
}
