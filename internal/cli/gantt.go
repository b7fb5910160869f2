package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	tpio "github.com/matzehuels/taskplan/pkg/io"
	"github.com/matzehuels/taskplan/pkg/schedule"
)

const (
	laneLabelWidth = 5  // "P12 │"
	defaultWidth   = 80 // used until the terminal reports its size
	maxZoom        = 16 // columns per time unit
)

var (
	ganttIdleStyle     = lipgloss.NewStyle().Foreground(colorDim)
	ganttSelectedStyle = lipgloss.NewStyle().Reverse(true).Bold(true)
	ganttHelpStyle     = lipgloss.NewStyle().Foreground(colorDim)
)

// ganttCommand creates the gantt command.
func (c *CLI) ganttCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "gantt <solution.json>",
		Short: "Browse a solved schedule as an interactive Gantt chart",
		Long: `Browse a schedule written by "solve -f json" as a Gantt chart with one
lane per processor.

Keys: ←/→ scroll, +/- zoom, tab/shift+tab select task, q quit.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sol, err := readSolutionFile(args[0])
			if err != nil {
				return err
			}
			return runGantt(sol, shortSource(args[0]))
		},
	}
}

func readSolutionFile(path string) (*schedule.Solution, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return tpio.ReadSolution(f)
}

// runGantt shows sol in a full-screen viewer until the user quits.
func runGantt(sol *schedule.Solution, title string) error {
	_, err := tea.NewProgram(newGanttModel(sol, title), tea.WithAltScreen()).Run()
	return err
}

// =============================================================================
// ganttModel - Interactive schedule viewer
// =============================================================================

// ganttModel is the bubbletea model for the Gantt viewer. Time t is drawn at
// column (t-offset)*zoom of the chart area.
type ganttModel struct {
	sol    *schedule.Solution
	title  string
	lanes  [][]schedule.Assignment
	width  int
	zoom   int
	offset int
	cursor int // index into sol.Tasks
}

func newGanttModel(sol *schedule.Solution, title string) ganttModel {
	m := ganttModel{
		sol:   sol,
		title: title,
		lanes: sol.Lanes(),
		width: defaultWidth,
	}
	m.zoom = m.fitZoom()
	return m
}

func (m ganttModel) chartWidth() int {
	return max(m.width-laneLabelWidth-1, 10)
}

// fitZoom returns the largest zoom that shows the whole schedule.
func (m ganttModel) fitZoom() int {
	if m.sol.Makespan == 0 {
		return 1
	}
	return min(max(m.chartWidth()/m.sol.Makespan, 1), maxZoom)
}

// visibleSpan is the number of time units that fit on screen.
func (m ganttModel) visibleSpan() int {
	return max(m.chartWidth()/m.zoom, 1)
}

func (m ganttModel) maxOffset() int {
	return max(m.sol.Makespan-m.visibleSpan(), 0)
}

// scrollToCursor moves the view so the selected task's start is visible.
func (m *ganttModel) scrollToCursor() {
	if len(m.sol.Tasks) == 0 {
		return
	}
	a := m.sol.Tasks[m.cursor]
	if a.Start < m.offset {
		m.offset = a.Start
	} else if a.Start >= m.offset+m.visibleSpan() {
		m.offset = min(a.Start, m.maxOffset())
	}
}

func (m ganttModel) Init() tea.Cmd {
	return nil
}

func (m ganttModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		step := max(m.visibleSpan()/4, 1)
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.offset = max(m.offset-step, 0)
		case "right", "l":
			m.offset = min(m.offset+step, m.maxOffset())
		case "+", "=":
			m.zoom = min(m.zoom*2, maxZoom)
			m.offset = min(m.offset, m.maxOffset())
		case "-", "_":
			m.zoom = max(m.zoom/2, 1)
			m.offset = min(m.offset, m.maxOffset())
		case "0":
			m.zoom, m.offset = m.fitZoom(), 0
		case "tab", "down", "j":
			if n := len(m.sol.Tasks); n > 0 {
				m.cursor = (m.cursor + 1) % n
				m.scrollToCursor()
			}
		case "shift+tab", "up", "k":
			if n := len(m.sol.Tasks); n > 0 {
				m.cursor = (m.cursor - 1 + n) % n
				m.scrollToCursor()
			}
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.offset = min(m.offset, m.maxOffset())
	}
	return m, nil
}

func (m ganttModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.title))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  makespan %d · %d processors · %d tasks",
		m.sol.Makespan, m.sol.Processors, len(m.sol.Tasks))))
	b.WriteString("\n\n")

	var selected string
	if len(m.sol.Tasks) > 0 {
		selected = m.sol.Tasks[m.cursor].ID
	}
	for p, lane := range m.lanes {
		label := fmt.Sprintf("%-3s", "P"+strconv.Itoa(p))
		b.WriteString(lipgloss.NewStyle().Foreground(processorColor(p)).Render(label))
		b.WriteString(StyleDim.Render(" │"))
		b.WriteString(m.renderLane(p, lane, selected))
		b.WriteString("\n")
	}
	b.WriteString(strings.Repeat(" ", laneLabelWidth))
	b.WriteString(StyleDim.Render(m.axis()))
	b.WriteString("\n\n")

	if len(m.sol.Tasks) > 0 {
		a := m.sol.Tasks[m.cursor]
		printable := fmt.Sprintf("%s  P%d  [%d, %d)  duration %d", a.ID, a.Processor, a.Start, a.Finish, a.Finish-a.Start)
		b.WriteString(StyleValue.Render(printable))
		b.WriteString("\n")
	}
	b.WriteString(ganttHelpStyle.Render("←/→ scroll  +/- zoom  0 fit  tab select  q quit"))
	return b.String()
}

// renderLane draws one processor lane. Each task fills its columns with its
// ID, truncated and padded with block characters.
func (m ganttModel) renderLane(p int, lane []schedule.Assignment, selected string) string {
	w := m.chartWidth()
	var b strings.Builder
	col := 0
	for _, a := range lane {
		from := (a.Start - m.offset) * m.zoom
		to := (a.Finish - m.offset) * m.zoom
		if to <= col || from >= w {
			continue
		}
		from, to = max(from, col), min(to, w)
		if from > col {
			b.WriteString(ganttIdleStyle.Render(strings.Repeat("·", from-col)))
		}
		style := lipgloss.NewStyle().Foreground(processorColor(p))
		if a.ID == selected {
			style = ganttSelectedStyle.Foreground(processorColor(p))
		}
		b.WriteString(style.Render(barText(a.ID, to-from)))
		col = to
	}
	if col < w {
		b.WriteString(ganttIdleStyle.Render(strings.Repeat("·", w-col)))
	}
	return b.String()
}

// barText fits id into a bar of n columns.
func barText(id string, n int) string {
	r := []rune(id)
	switch {
	case n <= 0:
		return ""
	case n == 1:
		return "█"
	case len(r) >= n:
		return string(r[:n-1]) + "█"
	}
	return string(r) + strings.Repeat("█", n-len(r))
}

// axis draws time labels every ten columns.
func (m ganttModel) axis() string {
	w := m.chartWidth()
	line := []rune(strings.Repeat(" ", w))
	for col := 0; col < w; col += 10 {
		label := []rune("|" + strconv.Itoa(m.offset+col/m.zoom))
		for i, r := range label {
			if col+i < w {
				line[col+i] = r
			}
		}
	}
	return string(line)
}
