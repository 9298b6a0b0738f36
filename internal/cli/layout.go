package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/flowview/pkg/pipeline"
)

// layoutCommand creates the layout command.
func (c *CLI) layoutCommand() *cobra.Command {
	var output string
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "layout [definitions.json|-]",
		Short: "Compute the positioned graph of a definitions document",
		Long: `Compute the positioned graph of a definitions document.

The output is the layout engine's result as JSON: every node with its
position, size and ports, and every edge with its route. Results are cached,
so a later render of the same document skips the layout step.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runLayout(cmd, args[0], opts, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <artifactId>.layout.json, - for stdout)")
	addViewFlags(cmd, &opts)

	return cmd
}

func (c *CLI) runLayout(cmd *cobra.Command, input string, opts pipeline.Options, output string) error {
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
	spinner := newSpinnerWithContext(ctx, "Computing layout")
	if !toStdout {
		spinner.Start()
	}
	res, err := runner.Layout(ctx, opts)
	spinner.Stop()
	if cancelled(ctx, err) {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("compute layout: %w", err)
	}

	data, err := json.MarshalIndent(res.Layout, "", "  ")
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}
	data = append(data, '\n')

	if toStdout {
		_, err := cmd.OutOrStdout().Write(data)
		printWarningsTo(cmd.ErrOrStderr(), res.Warnings)
		return err
	}

	if output == "" {
		output = strings.TrimSuffix(res.ExportName, ".svg") + ".layout.json"
	}
	if err := writeFile(output, data); err != nil {
		return err
	}

	printSuccess("Layout complete")
	printFile(output)
	printStats(res.Stats.NodeCount, res.Stats.EdgeCount, res.CacheInfo.LayoutHit)
	printWarnings(res.Warnings)
	printNewline()
	printNextStep("Render", "flowview render "+input)
	return nil
}
