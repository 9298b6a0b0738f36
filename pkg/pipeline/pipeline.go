// Package pipeline renders definitions documents end to end.
//
// A run decodes definitions, drives a [viewer.Viewer] until its layout is
// applied, sets the requested scale, highlight and slot visibility, and
// writes the view in one or more formats. The CLI and the HTTP server both
// go through a [Runner], so their output is identical for the same input.
//
// # Stages
//
//  1. Layout: build the graph and lay it out (cached by request hash)
//  2. Present: apply scale token, highlighted member, hidden slots
//  3. Render: SVG, JSON, PNG or PDF (cached by layout hash and view)
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Definitions: ix,
//	    Scale:       "auto",
//	    Highlight:   "parser",
//	    Formats:     []string{"svg", "png"},
//	})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile(res.ExportName, res.Artifacts["svg"], 0o644)
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowview/pkg/cache"
	"github.com/matzehuels/flowview/pkg/connectivity"
	"github.com/matzehuels/flowview/pkg/definitions"
	"github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/layout"
	"github.com/matzehuels/flowview/pkg/model"
)

// Default values shared by the CLI and the API.
const (
	DefaultWidth    = 1024.0
	DefaultHeight   = 768.0
	DefaultPNGScale = 2.0
)

// Format constants for output formats.
const (
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
	FormatJSON: true,
}

// Options describes one run. It decodes from an API request body.
type Options struct {
	Definitions *definitions.Index `json:"definitions"`

	// View options
	RootSelection    string  `json:"root,omitempty"`
	Width            float64 `json:"width,omitempty"`
	Height           float64 `json:"height,omitempty"`
	Scale            string  `json:"scale,omitempty"`
	Highlight        string  `json:"highlight,omitempty"`
	HideDisconnected bool    `json:"hide_disconnected,omitempty"`
	Title            string  `json:"title,omitempty"`

	// Render options
	Formats  []string `json:"formats,omitempty"`
	PNGScale float64  `json:"png_scale,omitempty"`
	Refresh  bool     `json:"refresh,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result contains the outputs of a run.
type Result struct {
	Graph  *model.Graph
	Layout *layout.Result
	Title  string

	// ExportName is the suggested file name of the SVG export.
	ExportName string

	// Highlight is the applied member highlight, empty when none.
	Highlight connectivity.State

	// DisconnectedSlots lists port ids no connection touches.
	DisconnectedSlots []string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Warnings are the non-fatal problems met during the run.
	Warnings []string

	Stats     Stats
	CacheInfo CacheInfo
}

// Stats contains run statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits for each stage.
type CacheInfo struct {
	LayoutHit bool
	RenderHit bool // all artifacts came from cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: svg, png, pdf, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults checks required fields and applies defaults. It
// is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{FormatSVG}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.PNGScale == 0 {
		o.PNGScale = DefaultPNGScale
	}
	if o.PNGScale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "png_scale must be positive, got %g", o.PNGScale)
	}
	o.validated = true
	return nil
}

// ValidateForLayout checks the fields a layout needs.
func (o *Options) ValidateForLayout() error {
	if o.Definitions == nil {
		return errors.New(errors.ErrCodeInvalidDefinitions, "definitions are required")
	}
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.Width < 0 || o.Height < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "viewport must be positive, got %gx%g", o.Width, o.Height)
	}
	if o.Highlight != "" {
		if err := errors.ValidateIdentifier("highlight", o.Highlight); err != nil {
			return err
		}
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return nil
}

// ArtifactKeyOpts returns cache key options for one rendered format.
func (o *Options) ArtifactKeyOpts(format, title string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:    format,
		Scale:     o.Scale,
		Highlight: o.Highlight,
		Title:     title,
		Hidden:    o.HideDisconnected,
		Minimap:   true,
	}
	if format == FormatPNG {
		k.Zoom = o.PNGScale
	}
	return k
}

func (o *Options) String() string {
	return fmt.Sprintf("%gx%g scale=%q highlight=%q formats=%v", o.Width, o.Height, o.Scale, o.Highlight, o.Formats)
}
