// Package layout positions a diagram graph.
//
// The graph builder decides what a diagram contains and how large every
// node is; a layout [Engine] decides where the members go. This package
// defines the request and result shapes of that hand-off, two engines, and
// the plumbing around them:
//
//   - [GraphvizEngine] places members with Graphviz dot (left to right,
//     orthogonal splines) through github.com/goccy/go-graphviz
//   - [LayeredEngine] is a small pure-Go longest-path layering, used when
//     Graphviz is not wanted and in tests
//   - [Scheduler] runs one request at a time per surface: a new request
//     cancels the one in flight, which completes with SUPERSEDED
//   - [CachedEngine] memoises results in a [cache.Cache]
//
// Engines only place member boxes. Port positions, the enclosing root box
// and orthogonal edge routes are derived from those placements by the same
// code for every engine, so results differ only in member arrangement.
//
// All coordinates in a [Result] are absolute, in points, with the root
// node's top-left corner at the origin and y growing downwards.
//
// [cache.Cache]: github.com/matzehuels/flowview/pkg/cache.Cache
package layout

import (
	"context"

	"github.com/google/uuid"

	"github.com/matzehuels/flowview/pkg/definitions"
	"github.com/matzehuels/flowview/pkg/model"
)

// Algorithm hint values.
const (
	EdgeRoutingOrthogonal     = "ORTHOGONAL"
	NodeLayeringLongestPath   = "LONGEST_PATH"
	NodePlacementBrandesKoepf = "BRANDES_KOEPF"
	CrossingMinimizationSweep = "LAYER_SWEEP"
	AlgorithmLayered          = "layered"
)

// Engine positions a graph.
type Engine interface {
	// Name identifies the engine in cache keys and logs.
	Name() string
	// Layout positions req.Graph. It must honour ctx cancellation.
	Layout(ctx context.Context, req Request) (*Result, error)
}

// Size is a width and height in points.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Point is a position in points.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned box.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Options carries algorithm hints. Engines apply the hints they support
// and ignore the rest.
type Options struct {
	Algorithm            string  `json:"algorithm"`
	EdgeRouting          string  `json:"edgeRouting"`
	NodeLayering         string  `json:"nodeLayering"`
	NodePlacement        string  `json:"nodePlacement"`
	CrossingMinimization string  `json:"crossMin"`
	IntCoordinates       bool    `json:"intCoordinates"`
	NodeSeparation       float64 `json:"nodeSeparation"`
	RankSeparation       float64 `json:"rankSeparation"`
}

// DefaultOptions returns the standard hints.
func DefaultOptions() Options {
	return Options{
		Algorithm:            AlgorithmLayered,
		EdgeRouting:          EdgeRoutingOrthogonal,
		NodeLayering:         NodeLayeringLongestPath,
		NodePlacement:        NodePlacementBrandesKoepf,
		CrossingMinimization: CrossingMinimizationSweep,
		IntCoordinates:       true,
		NodeSeparation:       30,
		RankSeparation:       60,
	}
}

// Request is one layout job.
type Request struct {
	ID      string       `json:"-"`
	Graph   *model.Graph `json:"graph"`
	Size    Size         `json:"size"`
	Options Options      `json:"options"`
}

// NewRequest creates a request with a fresh id.
func NewRequest(g *model.Graph, size Size, opts Options) Request {
	return Request{ID: uuid.NewString(), Graph: g, Size: size, Options: opts}
}

// Result is a positioned graph.
type Result struct {
	RequestID string `json:"requestId,omitempty"`
	Engine    string `json:"engine"`

	Root  PositionedNode `json:"root"`
	Edges []RoutedEdge   `json:"edges"`

	// BoundingBox encloses every node, port and edge.
	BoundingBox Rect `json:"boundingBox"`

	MaxRootSlotWidth float64 `json:"maxRootSlotWidth"`
}

// PositionedNode is a node with its box.
type PositionedNode struct {
	ID           string           `json:"id"`
	ArtifactID   string           `json:"artifactId"`
	MemberID     string           `json:"memberId,omitempty"`
	X            float64          `json:"x"`
	Y            float64          `json:"y"`
	Width        float64          `json:"width"`
	Height       float64          `json:"height"`
	HeaderHeight float64          `json:"headerHeight"`
	Labels       []model.Label    `json:"labels"`
	Ports        []PositionedPort `json:"ports"`
	Children     []PositionedNode `json:"children,omitempty"`
	Placeholder  bool             `json:"placeholder,omitempty"`
}

// PositionedPort is a port with its box relative to the owning node and
// its absolute centre.
type PositionedPort struct {
	ID        string                `json:"id"`
	SlotID    string                `json:"slotId"`
	Direction definitions.Direction `json:"direction"`
	Side      model.Side            `json:"side"`
	Labels    []model.Label         `json:"labels"`
	Tooltip   model.Tooltip         `json:"tooltip,omitempty"`
	X         float64               `json:"x"`
	Y         float64               `json:"y"`
	Width     float64               `json:"width"`
	Height    float64               `json:"height"`
	Center    Point                 `json:"center"`
	Connected bool                  `json:"connected"`
}

// PositionedLabel is a label with its anchor position.
type PositionedLabel struct {
	model.Label
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RoutedEdge is a connection with its orthogonal route.
type RoutedEdge struct {
	ID           string            `json:"id"`
	Source       string            `json:"source"`
	SourcePort   string            `json:"sourcePort"`
	Target       string            `json:"target"`
	TargetPort   string            `json:"targetPort"`
	HookFunction string            `json:"hookFunction,omitempty"`
	Labels       []PositionedLabel `json:"labels"`
	Tooltip      model.Tooltip     `json:"tooltip,omitempty"`
	SourcePoint  Point             `json:"sourcePoint"`
	TargetPoint  Point             `json:"targetPoint"`
	BendPoints   []Point           `json:"bendPoints"`
	SourceRadius float64           `json:"sourceRadius"`
	TargetRadius float64           `json:"targetRadius"`
	Highlighted  bool              `json:"highlighted"`
}

// Node returns the root or the member with the given id.
func (r *Result) Node(id string) (*PositionedNode, bool) {
	if r.Root.ID == id {
		return &r.Root, true
	}
	for i := range r.Root.Children {
		if r.Root.Children[i].ID == id {
			return &r.Root.Children[i], true
		}
	}
	return nil, false
}

// Nodes returns the root followed by its members.
func (r *Result) Nodes() []*PositionedNode {
	out := []*PositionedNode{&r.Root}
	for i := range r.Root.Children {
		out = append(out, &r.Root.Children[i])
	}
	return out
}

// DisconnectedPorts returns the ids of ports no edge is attached to.
func (r *Result) DisconnectedPorts() []string {
	var out []string
	for _, n := range r.Nodes() {
		for _, p := range n.Ports {
			if !p.Connected {
				out = append(out, p.ID)
			}
		}
	}
	return out
}
