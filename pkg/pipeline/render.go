package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/flowview/pkg/cache"
	"github.com/matzehuels/flowview/pkg/layout"
	"github.com/matzehuels/flowview/pkg/observability"
	"github.com/matzehuels/flowview/pkg/render"
	"github.com/matzehuels/flowview/pkg/transform"
	"github.com/matzehuels/flowview/pkg/viewer"
)

// renderInput is hashed into artifact keys together with the view options.
// The request id is cleared first.
type renderInput struct {
	Layout   *layout.Result `json:"layout"`
	Viewport transform.Size `json:"viewport"`
}

// RenderWithCacheInfo renders the view of v in every requested format and
// reports whether all of them came from the cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, v *viewer.Viewer, opts Options) (map[string][]byte, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, false, err
	}

	positioned := *v.Result()
	positioned.RequestID = ""
	hash, err := cache.HashJSON(renderInput{
		Layout:   &positioned,
		Viewport: transform.Size{Width: opts.Width, Height: opts.Height},
	})
	if err != nil {
		return nil, false, fmt.Errorf("hash layout for cache key: %w", err)
	}
	title := v.Title()
	key := func(format string) string {
		return r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format, title))
	}
	hooks := observability.Cache()

	if !opts.Refresh {
		artifacts := make(map[string][]byte, len(opts.Formats))
		for _, format := range opts.Formats {
			data, hit, err := r.Cache.Get(ctx, key(format))
			if err != nil || !hit {
				break
			}
			artifacts[format] = data
		}
		if len(artifacts) == len(opts.Formats) {
			hooks.OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
		hooks.OnCacheMiss(ctx, "artifact")
	}

	rendered, err := Render(ctx, v, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		if err := r.Cache.Set(ctx, key(format), data, cache.TTLArtifact); err != nil {
			r.Logger.Warn("artifact cache write failed", "format", format, "err", err)
			continue
		}
		hooks.OnCacheSet(ctx, "artifact", len(data))
	}
	return rendered, false, nil
}

// Render writes the current view of v in the formats of opts. SVG output
// is the standalone export document; PNG and PDF are converted from it.
func Render(ctx context.Context, v *viewer.Viewer, opts Options) (artifacts map[string][]byte, err error) {
	hooks := observability.Render()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	defer func() { hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err) }()

	_, doc, err := v.Export()
	if err != nil {
		return nil, err
	}

	artifacts = make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		var data []byte
		switch format {
		case FormatSVG:
			data = doc
		case FormatJSON:
			data, err = v.RenderJSON()
		case FormatPNG:
			data, err = render.ToPNG(ctx, doc, opts.PNGScale)
		case FormatPDF:
			data, err = render.ToPDF(ctx, doc)
		default:
			err = ValidateFormat(format)
		}
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}
