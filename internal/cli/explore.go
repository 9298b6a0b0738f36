package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/flowview/pkg/config"
	"github.com/matzehuels/flowview/pkg/layout"
	"github.com/matzehuels/flowview/pkg/model"
	"github.com/matzehuels/flowview/pkg/viewer"
)

const (
	panStep  = 40.0
	zoomStep = 1.25
)

// scaleKeys maps number keys to scale tokens.
var scaleKeys = map[string]string{
	"0": "auto",
	"1": "0.25",
	"2": "0.5",
	"3": "1",
	"4": "1.5",
	"5": "2",
}

// exploreCommand creates the explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var (
		root    string
		title   string
		logFile string
		outDir  string
	)

	cmd := &cobra.Command{
		Use:   "explore [definitions.json|-]",
		Short: "Explore a diagram interactively in the terminal",
		Long: `Explore a diagram interactively.

Select members to highlight their connections, toggle connection highlights,
hide disconnected slots, pan and zoom the view and export the current view
as SVG.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExplore(cmd, args[0], root, title, logFile, outDir)
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "root component artifact id (default: the document's)")
	cmd.Flags().StringVar(&title, "title", "", "diagram title")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while the UI runs")
	cmd.Flags().StringVar(&outDir, "out-dir", ".", "directory for exported SVG files")

	return cmd
}

func (c *CLI) runExplore(cmd *cobra.Command, input, root, title, logFile, outDir string) error {
	ctx := cmd.Context()

	logOut := io.Discard
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	c.Logger.SetOutput(logOut)
	defer c.Logger.SetOutput(os.Stderr)

	runner, err := c.newRunner(ctx)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	ix, err := loadDefinitions(cmd, runner, input)
	if err != nil {
		return err
	}

	cfg := c.Config
	if cfg == nil {
		cfg = config.Default()
	}
	opts := []viewer.Option{
		viewer.WithLogger(c.Logger),
		viewer.WithBuilder(runner.Builder),
		viewer.WithViewport(cfg.Viewer.Width, cfg.Viewer.Height),
		viewer.WithMinimapScale(cfg.Viewer.MinimapScale),
		viewer.WithSettleDelay(cfg.Viewer.SettleDelay.Duration),
		viewer.WithLayoutOptions(runner.LayoutOptions),
		viewer.WithRootSelection(root),
	}
	if title != "" {
		opts = append(opts, viewer.WithTitle(title))
	}
	engine := layout.NewCachedEngine(runner.Engine, runner.Cache, runner.Keyer, c.Logger)
	v := viewer.New(engine, opts...)
	defer v.Close()

	m := newExploreModel(ctx, v, outDir)
	defer m.unsubscribe()
	v.SetDefinitions(ctx, ix)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// =============================================================================
// exploreModel - the interactive view
// =============================================================================

type focus int

const (
	focusMembers focus = iota
	focusConnections
)

// viewerEventMsg carries a viewer event into the update loop.
type viewerEventMsg viewer.Event

type exploreModel struct {
	ctx    context.Context
	v      *viewer.Viewer
	events chan viewer.Event
	outDir string

	unsubscribe func()

	focus   focus
	cursor  int
	edgeCur int
	status  string
	err     error
}

func newExploreModel(ctx context.Context, v *viewer.Viewer, outDir string) *exploreModel {
	m := &exploreModel{
		ctx:    ctx,
		v:      v,
		events: make(chan viewer.Event, 16),
		outDir: outDir,
	}
	m.unsubscribe = v.Subscribe(func(e viewer.Event) {
		select {
		case m.events <- e:
		default:
		}
	})
	return m
}

func (m *exploreModel) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		select {
		case e := <-m.events:
			return viewerEventMsg(e)
		case <-m.ctx.Done():
			return tea.Quit()
		}
	}
}

func (m *exploreModel) Init() tea.Cmd {
	return m.waitForEvent()
}

func (m *exploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case viewerEventMsg:
		switch msg.Kind {
		case viewer.EventReady:
			m.status = "layout ready"
		case viewer.EventSettled:
			m.status = "minimap fitted"
		case viewer.EventFailed:
			m.err = msg.Err
		}
		return m, m.waitForEvent()
	case tea.KeyMsg:
		return m, m.handleKey(msg.String())
	}
	return m, nil
}

func (m *exploreModel) handleKey(key string) tea.Cmd {
	g := m.v.Graph()
	switch key {
	case "q", "ctrl+c":
		return tea.Quit
	case "tab":
		if m.focus == focusMembers {
			m.focus = focusConnections
		} else {
			m.focus = focusMembers
		}
	case "up", "k":
		m.move(g, -1)
	case "down", "j":
		m.move(g, 1)
	case "enter", " ":
		m.activate(g)
	case "esc":
		m.v.ClearHighlight()
		m.status = "selection cleared"
	case "d":
		if !m.v.HasDisconnectedSlots() {
			m.status = "no disconnected slots"
			break
		}
		if m.v.ToggleDisconnectedSlots() {
			m.status = "disconnected slots hidden"
		} else {
			m.status = "disconnected slots shown"
		}
	case "+", "=":
		m.v.ZoomBy(zoomStep)
	case "-":
		m.v.ZoomBy(1 / zoomStep)
	case "H", "shift+left":
		m.v.Pan(panStep, 0)
	case "L", "shift+right":
		m.v.Pan(-panStep, 0)
	case "K", "shift+up":
		m.v.Pan(0, panStep)
	case "J", "shift+down":
		m.v.Pan(0, -panStep)
	case "m":
		m.v.DragNavigator(0, 0)
	case "[":
		m.v.PanNavigator(-panStep/4, 0)
	case "]":
		m.v.PanNavigator(panStep/4, 0)
	case "x":
		m.export()
	default:
		if token, ok := scaleKeys[key]; ok {
			if err := m.v.SetScale(token); err != nil {
				m.status = err.Error()
			} else {
				m.status = "scale " + token
			}
		}
	}
	return nil
}

func (m *exploreModel) move(g *model.Graph, delta int) {
	if g == nil {
		return
	}
	if m.focus == focusMembers {
		m.cursor = clamp(m.cursor+delta, len(g.Root.Children))
	} else {
		m.edgeCur = clamp(m.edgeCur+delta, len(g.Edges))
	}
}

func (m *exploreModel) activate(g *model.Graph) {
	if g == nil {
		return
	}
	switch m.focus {
	case focusMembers:
		if len(g.Root.Children) == 0 {
			return
		}
		id := g.Root.Children[m.cursor].ID
		if m.v.HighlightedMember() == id {
			m.v.ClearHighlight()
			m.status = "selection cleared"
			return
		}
		m.v.HighlightMember(id)
		m.status = "selected " + id
	case focusConnections:
		if len(g.Edges) == 0 {
			return
		}
		id := g.Edges[m.edgeCur].ID
		m.v.ToggleEdge(id)
		m.status = "toggled " + id
	}
}

func (m *exploreModel) export() {
	name, doc, err := m.v.Export()
	if err != nil {
		m.status = "export failed: " + err.Error()
		return
	}
	path := filepath.Join(m.outDir, name)
	if err := writeFile(path, doc); err != nil {
		m.status = err.Error()
		return
	}
	m.status = "exported " + path
}

func clamp(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func (m *exploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.v.Title()))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(styleIconError.Render(iconError) + " " + m.err.Error() + "\n")
		b.WriteString(StyleDim.Render("q quit"))
		return b.String()
	}
	g := m.v.Graph()
	if g == nil || m.v.Status() != viewer.StatusReady {
		b.WriteString(StyleDim.Render("computing layout…"))
		return b.String()
	}

	view, nav, _ := m.v.Transforms()
	lo, hi := m.v.ScaleExtent()
	b.WriteString(StyleDim.Render(fmt.Sprintf("scale %.2f [%.2f–%.2f]  offset %.0f,%.0f  navigator %.0f,%.0f",
		view.Scale, lo, hi, view.X, view.Y, nav.X, nav.Y)))
	b.WriteString("\n\n")

	st := m.v.Highlight()
	members := memberTable(g.Root.Children, st)
	members.StyleFunc(m.cursorStyle(focusMembers, m.cursor, func(row int) string {
		return memberState(g.Root.Children[row].ID, st)
	}))
	b.WriteString(members.Render())
	b.WriteString("\n")

	connections := connectionTable(g, st)
	connections.StyleFunc(m.cursorStyle(focusConnections, m.edgeCur, func(row int) string {
		if m.v.EdgeHighlighted(g.Edges[row].ID) {
			return "highlighted"
		}
		if slices.Contains(st.GrayedEdges, g.Edges[row].ID) {
			return "grayed"
		}
		return ""
	}))
	b.WriteString(connections.Render())
	b.WriteString("\n")

	if m.v.HasDisconnectedSlots() {
		state := "shown"
		if m.v.DisconnectedSlotsHidden() {
			state = "hidden"
		}
		b.WriteString(StyleDim.Render(fmt.Sprintf("%d disconnected slots %s", len(m.v.DisconnectedSlots()), state)))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(styleIconInfo.Render(iconInfo) + " " + m.status + "\n")
	}
	b.WriteString(StyleDim.Render("↑/↓ move  ⏎ select  tab switch  esc clear  d slots  +/- zoom  HJKL pan  [/] m minimap  0-5 scale  x export  q quit"))
	return b.String()
}

// cursorStyle returns a table style function that marks the cursor row
// of the focused table and colours the rest by state.
func (m *exploreModel) cursorStyle(f focus, cursor int, state func(row int) string) func(row, col int) lipgloss.Style {
	return func(row, col int) lipgloss.Style {
		if row == headerRow {
			return styleTableHeader
		}
		s := stateStyle(state(row))
		if m.focus == f && row == cursor {
			s = s.Reverse(true)
		}
		return s
	}
}
