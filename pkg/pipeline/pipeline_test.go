package pipeline

import (
	"bytes"
	"context"
	"io"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowview/pkg/cache"
	"github.com/matzehuels/flowview/pkg/definitions"
	"github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/render"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func station(t *testing.T) *definitions.Index {
	t.Helper()
	ix, err := definitions.ImportJSON("testdata/station.json")
	if err != nil {
		t.Fatal(err)
	}
	return ix
}

func newTestRunner(t *testing.T, c cache.Cache) *Runner {
	t.Helper()
	r := NewRunner(c, nil, quietLogger())
	t.Cleanup(func() { r.Close() })
	return r
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"json", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %v, want INVALID_FORMAT", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "png"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}
	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Definitions: &definitions.Index{}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults() error = %v", err)
	}
	if opts.Width != DefaultWidth || opts.Height != DefaultHeight {
		t.Errorf("viewport = %vx%v, want %vx%v", opts.Width, opts.Height, DefaultWidth, DefaultHeight)
	}
	if !slices.Equal(opts.Formats, []string{FormatSVG}) {
		t.Errorf("Formats = %v, want [svg]", opts.Formats)
	}
	if opts.PNGScale != DefaultPNGScale {
		t.Errorf("PNGScale = %v, want %v", opts.PNGScale, DefaultPNGScale)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestOptionsValidate(t *testing.T) {
	ix := &definitions.Index{}
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"no definitions", Options{}, errors.ErrCodeInvalidDefinitions},
		{"negative width", Options{Definitions: ix, Width: -1}, errors.ErrCodeInvalidInput},
		{"bad format", Options{Definitions: ix, Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
		{"bad highlight", Options{Definitions: ix, Highlight: "a\x00b"}, errors.ErrCodeInvalidDefinitions},
		{"negative png scale", Options{Definitions: ix, PNGScale: -2}, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("ValidateAndSetDefaults() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Definitions: &definitions.Index{}, Formats: []string{"json"}}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	opts.Formats = []string{"bogus"}
	// already validated, so the changed field is not re-checked
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Errorf("second ValidateAndSetDefaults() error = %v", err)
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{Scale: "auto", Highlight: "m", PNGScale: 3}
	if k := opts.ArtifactKeyOpts(FormatSVG, "T"); k.Zoom != 0 || k.Title != "T" || !k.Minimap {
		t.Errorf("ArtifactKeyOpts(svg) = %+v", k)
	}
	if k := opts.ArtifactKeyOpts(FormatPNG, "T"); k.Zoom != 3 {
		t.Errorf("ArtifactKeyOpts(png).Zoom = %v, want 3", k.Zoom)
	}
}

func TestExecute(t *testing.T) {
	r := newTestRunner(t, nil)
	res, err := r.Execute(context.Background(), Options{
		Definitions: station(t),
		Formats:     []string{FormatSVG, FormatJSON},
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if res.Title != "Dataflow view" {
		t.Errorf("Title = %q, want Dataflow view", res.Title)
	}
	if res.ExportName != "weather-station.svg" {
		t.Errorf("ExportName = %q, want weather-station.svg", res.ExportName)
	}
	if res.Stats.NodeCount != 3 {
		t.Errorf("NodeCount = %d, want 3", res.Stats.NodeCount)
	}
	if res.Stats.EdgeCount != 3 {
		t.Errorf("EdgeCount = %d, want 3", res.Stats.EdgeCount)
	}
	if len(res.DisconnectedSlots) == 0 {
		t.Error("DisconnectedSlots is empty, want the unused sensor config slots")
	}
	if res.Layout == nil || res.Layout.Root.ArtifactID != "weather-station" {
		t.Errorf("Layout root = %+v", res.Layout)
	}

	svg := string(res.Artifacts[FormatSVG])
	for _, want := range []string{`<?xml version="1.0" standalone="no"?>`, `xmlns:xlink=`, `dataflow-node member`} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if !strings.Contains(string(res.Artifacts[FormatJSON]), `"title": "Dataflow view"`) {
		t.Error("json artifact missing title")
	}
}

func TestExecuteCaching(t *testing.T) {
	c, err := cache.NewMemoryCache(16)
	if err != nil {
		t.Fatal(err)
	}
	r := newTestRunner(t, c)
	ix := station(t)
	ctx := context.Background()

	first, err := r.Execute(ctx, Options{Definitions: ix})
	if err != nil {
		t.Fatal(err)
	}
	if first.CacheInfo.LayoutHit || first.CacheInfo.RenderHit {
		t.Errorf("first run CacheInfo = %+v, want misses", first.CacheInfo)
	}

	second, err := r.Execute(ctx, Options{Definitions: ix})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheInfo.LayoutHit || !second.CacheInfo.RenderHit {
		t.Errorf("second run CacheInfo = %+v, want hits", second.CacheInfo)
	}
	if !bytes.Equal(first.Artifacts[FormatSVG], second.Artifacts[FormatSVG]) {
		t.Error("cached svg differs from rendered svg")
	}

	// a different highlight reuses the layout but not the artifact
	third, err := r.Execute(ctx, Options{Definitions: ix, Highlight: "sensor1"})
	if err != nil {
		t.Fatal(err)
	}
	if !third.CacheInfo.LayoutHit || third.CacheInfo.RenderHit {
		t.Errorf("highlight run CacheInfo = %+v, want layout hit and render miss", third.CacheInfo)
	}

	refreshed, err := r.Execute(ctx, Options{Definitions: ix, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheInfo.LayoutHit || refreshed.CacheInfo.RenderHit {
		t.Errorf("refresh run CacheInfo = %+v, want misses", refreshed.CacheInfo)
	}
}

func TestExecuteHighlight(t *testing.T) {
	r := newTestRunner(t, nil)
	ix := station(t)

	res, err := r.Execute(context.Background(), Options{Definitions: ix, Highlight: "sensor1"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Highlight.Selected != "sensor1" {
		t.Errorf("Highlight.Selected = %q, want sensor1", res.Highlight.Selected)
	}
	if !res.Highlight.IsHighlighted("fmt") {
		t.Errorf("Highlight = %+v, want fmt highlighted", res.Highlight)
	}
	if !strings.Contains(string(res.Artifacts[FormatSVG]), "highlighted") {
		t.Error("svg has no highlighted node")
	}

	res, err = r.Execute(context.Background(), Options{Definitions: ix, Highlight: "nobody"})
	if err != nil {
		t.Fatal(err)
	}
	if !res.Highlight.Empty() {
		t.Errorf("Highlight = %+v, want empty", res.Highlight)
	}
	if len(res.Warnings) == 0 {
		t.Error("Warnings is empty, want an unknown-member warning")
	}
}

func TestExecuteInvalidScale(t *testing.T) {
	r := newTestRunner(t, nil)
	res, err := r.Execute(context.Background(), Options{Definitions: station(t), Scale: "huge"})
	if err != nil {
		t.Fatalf("Execute() error = %v, want graceful degradation", err)
	}
	if !slices.ContainsFunc(res.Warnings, func(w string) bool { return strings.Contains(w, "huge") }) {
		t.Errorf("Warnings = %v, want a scale warning", res.Warnings)
	}
	if len(res.Artifacts[FormatSVG]) == 0 {
		t.Error("svg not rendered")
	}
}

func TestExecuteHideDisconnected(t *testing.T) {
	r := newTestRunner(t, nil)
	shown, err := r.Execute(context.Background(), Options{Definitions: station(t), Formats: []string{FormatJSON}})
	if err != nil {
		t.Fatal(err)
	}
	hidden, err := r.Execute(context.Background(), Options{Definitions: station(t), Formats: []string{FormatJSON}, HideDisconnected: true})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(shown.Artifacts[FormatJSON]), `"hiddenSlots"`) {
		t.Error("hiddenSlots present without HideDisconnected")
	}
	if !strings.Contains(string(hidden.Artifacts[FormatJSON]), `"hiddenSlots"`) {
		t.Error("hiddenSlots missing with HideDisconnected")
	}
}

func TestExecuteConversions(t *testing.T) {
	if !render.Available() {
		t.Skip("rsvg-convert not installed")
	}
	r := newTestRunner(t, nil)
	res, err := r.Execute(context.Background(), Options{Definitions: station(t), Formats: []string{FormatPNG, FormatPDF}})
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(res.Artifacts[FormatPNG], []byte("\x89PNG")) {
		t.Error("png artifact has no PNG signature")
	}
	if !bytes.HasPrefix(res.Artifacts[FormatPDF], []byte("%PDF")) {
		t.Error("pdf artifact has no PDF signature")
	}
}

func TestLayout(t *testing.T) {
	r := newTestRunner(t, nil)
	res, err := r.Layout(context.Background(), Options{Definitions: station(t)})
	if err != nil {
		t.Fatal(err)
	}
	if res.Artifacts != nil {
		t.Errorf("Artifacts = %v, want none", res.Artifacts)
	}
	if len(res.Layout.Nodes()) != 3 {
		t.Errorf("len(Nodes()) = %d, want 3", len(res.Layout.Nodes()))
	}
}

func TestConnectivity(t *testing.T) {
	r := newTestRunner(t, nil)
	opts := Options{Definitions: station(t)}

	st, err := r.Connectivity(opts, "sensor1")
	if err != nil {
		t.Fatal(err)
	}
	if st.Selected != "sensor1" || !st.IsHighlighted("fmt") {
		t.Errorf("Connectivity(sensor1) = %+v", st)
	}

	st, err = r.Connectivity(opts, "weather-station")
	if err != nil {
		t.Fatal(err)
	}
	if !st.Empty() {
		t.Errorf("Connectivity(root) = %+v, want empty", st)
	}

	if _, err := r.Connectivity(opts, ""); err == nil {
		t.Error("Connectivity(\"\") error = nil, want error")
	}
	if _, err := r.Connectivity(Options{}, "sensor1"); !errors.Is(err, errors.ErrCodeInvalidDefinitions) {
		t.Errorf("Connectivity(no definitions) error = %v", err)
	}
}

func TestLoadDefinitions(t *testing.T) {
	r := newTestRunner(t, nil)

	ix, err := r.LoadDefinitions("testdata/station.json", nil)
	if err != nil {
		t.Fatal(err)
	}
	if ix.ComponentArtifactID != "weather-station" {
		t.Errorf("ComponentArtifactID = %q", ix.ComponentArtifactID)
	}

	data, err := os.ReadFile("testdata/station.json")
	if err != nil {
		t.Fatal(err)
	}
	ix, err = r.LoadDefinitions(Stdin, bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(ix.Members) != 2 {
		t.Errorf("len(Members) = %d, want 2", len(ix.Members))
	}

	if _, err := r.LoadDefinitions("testdata/missing.json", nil); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("LoadDefinitions(missing) error = %v, want FILE_NOT_FOUND", err)
	}
	if _, err := r.LoadDefinitions(Stdin, strings.NewReader("{")); !errors.Is(err, errors.ErrCodeInvalidDefinitions) {
		t.Errorf("LoadDefinitions(malformed) error = %v, want INVALID_DEFINITIONS", err)
	}
}
