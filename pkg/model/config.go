package model

import "github.com/matzehuels/flowview/pkg/textmetrics"

// AdHocArtifactID is the artifact id of the placeholder root used when the
// definitions name no root component or the named one cannot be found.
const AdHocArtifactID = "ad-hoc-component"

// Config holds the fonts and spacings used to size nodes, ports and edge
// labels. Use [DefaultConfig] and override individual fields.
type Config struct {
	HeaderMargin float64 `toml:"header_margin"`

	RootNameFont        textmetrics.Font `toml:"root_name_font"`
	MemberNameFont      textmetrics.Font `toml:"member_name_font"`
	MemberIDFont        textmetrics.Font `toml:"member_id_font"`
	SlotLabelFont       textmetrics.Font `toml:"slot_label_font"`
	ConnectionLabelFont textmetrics.Font `toml:"connection_label_font"`

	// SlotLabelsSpace is the horizontal gap between the input and output
	// label columns of a node.
	SlotLabelsSpace float64 `toml:"slot_labels_space"`
	SlotRadius      float64 `toml:"slot_radius"`
	SlotsAreaMargin float64 `toml:"slots_area_margin"`
	SlotSpacing     float64 `toml:"slot_spacing"`

	ConnectionLabelMargin    float64 `toml:"connection_label_margin"`
	ConnectionLabelMaxLength int     `toml:"connection_label_max_length"`

	RootBorderSpacing float64 `toml:"root_border_spacing"`
}

// DefaultConfig returns the standard diagram metrics.
func DefaultConfig() Config {
	return Config{
		HeaderMargin:             10,
		RootNameFont:             textmetrics.Font{Size: 16, Family: "arial"},
		MemberNameFont:           textmetrics.Font{Size: 12, Family: "arial"},
		MemberIDFont:             textmetrics.Font{Size: 16, Family: "arial", Weight: "bold"},
		SlotLabelFont:            textmetrics.Font{Size: 12, Family: "arial"},
		ConnectionLabelFont:      textmetrics.Font{Size: 10, Family: "arial"},
		SlotLabelsSpace:          40,
		SlotRadius:               5,
		SlotsAreaMargin:          10,
		SlotSpacing:              11,
		ConnectionLabelMargin:    10,
		ConnectionLabelMaxLength: 50,
		RootBorderSpacing:        70,
	}
}

// SlotDiameter is twice the slot radius.
func (c Config) SlotDiameter() float64 { return 2 * c.SlotRadius }

// SlotPitch is the vertical distance between consecutive ports on a side.
func (c Config) SlotPitch() float64 { return c.SlotDiameter() + c.SlotSpacing }
