package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowview/pkg/errors"
	"github.com/matzehuels/flowview/pkg/pipeline"
)

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output  string
		formats string
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [definitions.json|-]",
		Short: "Render a definitions document to SVG, PNG, PDF or JSON",
		Long: `Render a definitions document as a dataflow diagram.

The SVG output is a standalone document with the diagram styles embedded.
PNG and PDF are converted from it and need rsvg-convert on the PATH. The
JSON output describes the current view (viewport, transforms, highlight
and the positioned graph).

Without -o, files are named after the root component (<artifactId>.svg).
Use -o - to write a single format to stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Formats = parseFormats(formats)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd, args[0], opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output format(s): svg (default), png, pdf, json (comma-separated)")
	addViewFlags(cmd, &opts)
	cmd.Flags().Float64Var(&opts.PNGScale, "png-scale", pipeline.DefaultPNGScale, "PNG resolution multiplier")

	return cmd
}

// addViewFlags registers the flags shared by render and layout.
func addViewFlags(cmd *cobra.Command, opts *pipeline.Options) {
	f := cmd.Flags()
	f.StringVar(&opts.RootSelection, "root", "", "root component artifact id (default: the document's)")
	f.Float64Var(&opts.Width, "width", 0, "viewport width (default from config)")
	f.Float64Var(&opts.Height, "height", 0, "viewport height (default from config)")
	f.StringVar(&opts.Scale, "scale", "", "scale: auto, none, tiny, small, medium, big, huge or a number")
	f.StringVar(&opts.Highlight, "highlight", "", "member id to highlight with its direct neighbours")
	f.BoolVar(&opts.HideDisconnected, "hide-disconnected", false, "hide slots without connections")
	f.StringVar(&opts.Title, "title", "", "diagram title")
	f.BoolVar(&opts.Refresh, "refresh", false, "recompute even when cached")
}

func (c *CLI) runRender(cmd *cobra.Command, input string, opts pipeline.Options, output string) error {
	ctx := cmd.Context()
	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Definitions, err = loadDefinitions(cmd, runner, input)
	if err != nil {
		return err
	}
	c.setCLIDefaults(&opts)

	toStdout := output == "-"
	if toStdout && len(opts.Formats) != 1 {
		return errors.New(errors.ErrCodeInvalidInput, "-o - needs exactly one format, got %d", len(opts.Formats))
	}

	spinner := newSpinnerWithContext(ctx, "Laying out "+input)
	if !toStdout {
		spinner.Start()
	}
	prog := newProgress(c.Logger)
	res, err := runner.Execute(ctx, opts)
	spinner.Stop()
	if cancelled(ctx, err) {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	prog.done("render", "formats", opts.Formats, "layout", res.Stats.LayoutTime, "render", res.Stats.RenderTime)

	if toStdout {
		_, err := cmd.OutOrStdout().Write(res.Artifacts[opts.Formats[0]])
		printWarningsTo(cmd.ErrOrStderr(), res.Warnings)
		return err
	}

	paths := outputPaths(output, res.ExportName, opts.Formats)
	for _, format := range opts.Formats {
		if err := writeFile(paths[format], res.Artifacts[format]); err != nil {
			return err
		}
	}

	printSuccess("Rendered %s", res.Title)
	for _, format := range opts.Formats {
		printFile(paths[format])
	}
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.CacheInfo.LayoutHit)
	printWarnings(res.Warnings)
	return nil
}

// outputPaths maps each format to its file. A single format writes to
// output as given; several formats share output as a base path. An empty
// output is derived from the export name.
func outputPaths(output, exportName string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, exportName)
	for _, format := range formats {
		paths[format] = base + "." + format
	}
	return paths
}

// basePath strips a known format extension from output, or derives the
// base from the export name when output is empty.
func basePath(output, exportName string) string {
	if output == "" {
		return strings.TrimSuffix(exportName, filepath.Ext(exportName))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", path, err)
	}
	return nil
}

// cancelled reports whether err came from the command being interrupted.
func cancelled(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil
}
