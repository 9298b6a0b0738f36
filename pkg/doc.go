// Package pkg provides the libraries behind flowview, a viewer for
// component dataflow diagrams.
//
// # Overview
//
// A definitions document describes a compound component: its slots, the
// member components inside it and the connections between member slots.
// flowview turns it into a positioned, navigable diagram. The packages are
// organized by stage:
//
//  1. [definitions] - decoding and resolving the definitions document
//  2. [model] and [textmetrics] - the layout input graph with measured labels
//  3. [layout] - layout engines, request scheduling and layout caching
//  4. [transform] - zoom and pan state of the main view and the minimap
//  5. [connectivity] - which members a selected member sends data to
//  6. [viewer] - the interactive state tying the stages together
//  7. [render] - SVG output, standalone export and PNG/PDF conversion
//  8. [pipeline] - one-shot orchestration with caching, used by the CLI and server
//
// Supporting packages: [cache], [config], [errors], [observability],
// [buildinfo] and [fonts].
//
// # Data Flow
//
//	definitions JSON
//	       ↓
//	  [model] Builder.Build (nodes, ports, edges, label metrics)
//	       ↓
//	  [layout] Engine.Layout (positions, routes)
//	       ↓
//	  [viewer] scale, highlight, hidden slots
//	       ↓
//	  [render/dataflow] SVG / view JSON → [render] export, PNG, PDF
//
// # Quick Start
//
//	import (
//	    "context"
//	    "github.com/matzehuels/flowview/pkg/definitions"
//	    "github.com/matzehuels/flowview/pkg/pipeline"
//	)
//
//	ix, _ := definitions.ImportJSON("station.json")
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, err := runner.Execute(context.Background(), pipeline.Options{
//	    Definitions: ix,
//	    Highlight:   "sensor1",
//	    Formats:     []string{pipeline.FormatSVG},
//	})
//	os.WriteFile(res.ExportName, res.Artifacts[pipeline.FormatSVG], 0o644)
//
// [definitions]: github.com/matzehuels/flowview/pkg/definitions
// [model]: github.com/matzehuels/flowview/pkg/model
// [textmetrics]: github.com/matzehuels/flowview/pkg/textmetrics
// [layout]: github.com/matzehuels/flowview/pkg/layout
// [transform]: github.com/matzehuels/flowview/pkg/transform
// [connectivity]: github.com/matzehuels/flowview/pkg/connectivity
// [viewer]: github.com/matzehuels/flowview/pkg/viewer
// [render]: github.com/matzehuels/flowview/pkg/render
// [render/dataflow]: github.com/matzehuels/flowview/pkg/render/dataflow
// [pipeline]: github.com/matzehuels/flowview/pkg/pipeline
// [cache]: github.com/matzehuels/flowview/pkg/cache
// [config]: github.com/matzehuels/flowview/pkg/config
// [errors]: github.com/matzehuels/flowview/pkg/errors
// [observability]: github.com/matzehuels/flowview/pkg/observability
// [buildinfo]: github.com/matzehuels/flowview/pkg/buildinfo
// [fonts]: github.com/matzehuels/flowview/pkg/fonts
package pkg
