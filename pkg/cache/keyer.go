package cache

// Keyer builds cache keys.
type Keyer interface {
	// LayoutKey is the key of a positioned layout.
	LayoutKey(requestHash string, opts LayoutKeyOpts) string
	// ArtifactKey is the key of a rendered output file.
	ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string
}

// LayoutKeyOpts are the layout inputs not covered by the request hash.
type LayoutKeyOpts struct {
	Engine string `json:"engine"`
}

// ArtifactKeyOpts are the render settings that change an artifact.
type ArtifactKeyOpts struct {
	Format    string  `json:"format"`
	Scale     string  `json:"scale,omitempty"`
	Highlight string  `json:"highlight,omitempty"`
	Title     string  `json:"title,omitempty"`
	Hidden    bool    `json:"hidden,omitempty"`
	Minimap   bool    `json:"minimap,omitempty"`
	Zoom      float64 `json:"zoom,omitempty"`
}

// DefaultKeyer hashes its inputs with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// LayoutKey implements Keyer.
func (DefaultKeyer) LayoutKey(requestHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", requestHash, opts)
}

// ArtifactKey implements Keyer.
func (DefaultKeyer) ArtifactKey(layoutHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", layoutHash, opts)
}
