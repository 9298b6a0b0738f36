package viewer

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/flowview/pkg/layout"
	"github.com/matzehuels/flowview/pkg/model"
	"github.com/matzehuels/flowview/pkg/render/dataflow"
	"github.com/matzehuels/flowview/pkg/transform"
)

const (
	// DefaultMinimapScale is the minimap size relative to the viewport.
	DefaultMinimapScale = 0.3
	// DefaultSettleDelay is how long after a layout the minimap diagram is
	// fitted.
	DefaultSettleDelay = time.Second

	TitleDataflow  = "Dataflow view"
	TitleInterface = "Interface view"
)

// DefaultViewport is used when no viewport is configured.
var DefaultViewport = transform.Size{Width: 1024, Height: 768}

// Option configures a Viewer.
type Option func(*Viewer)

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(v *Viewer) { v.logger = l }
}

// WithBuilder sets the graph builder.
func WithBuilder(b *model.Builder) Option {
	return func(v *Viewer) { v.builder = b }
}

// WithViewport sets the size of the main surface.
func WithViewport(width, height float64) Option {
	return func(v *Viewer) { v.viewport = transform.Size{Width: width, Height: height} }
}

// WithMinimapScale sets the minimap size relative to the viewport.
func WithMinimapScale(s float64) Option {
	return func(v *Viewer) { v.minimapScale = s }
}

// WithSettleDelay sets the delay before the minimap diagram is fitted.
func WithSettleDelay(d time.Duration) Option {
	return func(v *Viewer) { v.settleDelay = d }
}

// WithTitle fixes the title instead of deriving it from the definitions.
func WithTitle(title string) Option {
	return func(v *Viewer) { v.fixedTitle = title }
}

// WithRootSelection selects the component drawn as root by artifact id.
func WithRootSelection(artifactID string) Option {
	return func(v *Viewer) { v.rootSelection = artifactID }
}

// WithLayoutOptions sets the hints passed to the layout engine.
func WithLayoutOptions(o layout.Options) Option {
	return func(v *Viewer) { v.layoutOpts = o }
}

// WithStyle sets the style used by Render and Export.
func WithStyle(s dataflow.Style) Option {
	return func(v *Viewer) { v.style = s }
}

// WithEdgeLabelMargin sets the margin added to connection labels.
func WithEdgeLabelMargin(m float64) Option {
	return func(v *Viewer) { v.labelMargin = m }
}
