package cli

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowview/pkg/connectivity"
	"github.com/matzehuels/flowview/pkg/model"
	"github.com/matzehuels/flowview/pkg/pipeline"
)

// inspectCommand creates the inspect command.
func (c *CLI) inspectCommand() *cobra.Command {
	var asJSON bool
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "inspect [definitions.json|-]",
		Short: "List members, connections and disconnected slots",
		Long: `List the members and connections of the root component.

With --highlight, members and connections are marked the way the diagram
shows them: the selected member and its direct neighbours highlighted, every
other member and connection grayed. --json prints the highlight state.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runInspect(cmd, args[0], opts, asJSON)
		},
	}

	cmd.Flags().StringVar(&opts.RootSelection, "root", "", "root component artifact id (default: the document's)")
	cmd.Flags().StringVar(&opts.Highlight, "highlight", "", "member id to select")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the highlight state as JSON")

	return cmd
}

func (c *CLI) runInspect(cmd *cobra.Command, input string, opts pipeline.Options, asJSON bool) error {
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

	res, err := runner.Layout(ctx, opts)
	if cancelled(ctx, err) {
		return ctx.Err()
	}
	if err != nil {
		return fmt.Errorf("inspect: %w", err)
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res.Highlight)
	}

	root := res.Graph.Root
	fmt.Fprintln(stdout, StyleTitle.Render(res.Title))
	printKeyValue("Root", root.ArtifactID)
	printKeyValue("Members", strconv.Itoa(len(root.Children)))
	printKeyValue("Connections", strconv.Itoa(len(res.Graph.Edges)))
	if !res.Highlight.Empty() {
		printKeyValue("Selected", res.Highlight.Selected)
	}
	printNewline()

	fmt.Fprintln(stdout, memberTable(root.Children, res.Highlight).Render())
	fmt.Fprintln(stdout, connectionTable(res.Graph, res.Highlight).Render())

	if len(res.DisconnectedSlots) > 0 {
		printNewline()
		printInfo("Disconnected slots")
		for _, port := range res.DisconnectedSlots {
			printDetail("%s", port)
		}
	}
	printWarnings(res.Warnings)
	return nil
}

func memberTable(members []model.Node, st connectivity.State) *table.Table {
	rows := make([][]string, 0, len(members))
	for _, n := range members {
		artifact := n.ArtifactID
		if n.Placeholder {
			artifact += " (missing)"
		}
		rows = append(rows, []string{n.MemberID, artifact, strconv.Itoa(len(n.Ports)), memberState(n.MemberID, st)})
	}
	return newTable("Member", "Artifact", "Slots", "State").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return styleTableHeader
			}
			return stateStyle(rows[row][3])
		})
}

func connectionTable(g *model.Graph, st connectivity.State) *table.Table {
	rows := make([][]string, 0, len(g.Edges))
	for _, e := range g.Edges {
		state := ""
		if !st.Empty() {
			state = "highlighted"
			if slices.Contains(st.GrayedEdges, e.ID) {
				state = "grayed"
			}
		}
		rows = append(rows, []string{e.ID, endpoint(g, e.Source, e.SourcePort), endpoint(g, e.Target, e.TargetPort), state})
	}
	return newTable("Connection", "From", "To", "State").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return styleTableHeader
			}
			return stateStyle(rows[row][3])
		})
}

// headerRow is the row index lipgloss/table passes for the header.
const headerRow = -1

var styleTableHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true).Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...)
}

func memberState(memberID string, st connectivity.State) string {
	switch {
	case st.Empty():
		return ""
	case memberID == st.Selected:
		return "selected"
	case st.IsHighlighted(memberID):
		return "highlighted"
	default:
		return "grayed"
	}
}

func stateStyle(state string) lipgloss.Style {
	base := lipgloss.NewStyle().Padding(0, 1)
	switch state {
	case "selected":
		return base.Foreground(colorGreen).Bold(true)
	case "highlighted":
		return base.Foreground(colorGreen)
	case "grayed":
		return base.Foreground(colorDim)
	default:
		return base
	}
}

// endpoint formats a connection end as "member.slot"; the root component
// is shown by its artifact id.
func endpoint(g *model.Graph, nodeID, portID string) string {
	n, ok := g.Node(nodeID)
	if !ok {
		return nodeID
	}
	name := n.MemberID
	if name == "" {
		name = n.ArtifactID
	}
	for _, p := range n.Ports {
		if p.ID == portID {
			return name + "." + p.SlotID
		}
	}
	return name
}
