package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/taskplan/pkg/schedule"
	"github.com/matzehuels/taskplan/pkg/search"
	"github.com/matzehuels/taskplan/pkg/store"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleTableHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleTableBorder = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}

// =============================================================================
// Search Output
// =============================================================================

// searchLine formats search counters on a single dim line.
func searchLine(stats search.Stats, cached bool) string {
	parts := []string{
		fmt.Sprintf("%d expanded", stats.Expanded),
		fmt.Sprintf("%d generated", stats.Generated),
	}
	if stats.Pruned > 0 {
		parts = append(parts, fmt.Sprintf("%d pruned", stats.Pruned))
	}
	if stats.PeakResident > 0 {
		parts = append(parts, fmt.Sprintf("peak %d", stats.PeakResident))
	}
	parts = append(parts, stats.Duration.Round(time.Millisecond).String())

	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	return line + StyleDim.Render(" · ") + statusStyle.Render(status)
}

// printSearchStats prints search counters on a single line.
func printSearchStats(stats search.Stats, cached bool) {
	fmt.Println(searchLine(stats, cached))
}

// headerRow is the row index lipgloss tables pass to StyleFunc for headers.
const headerRow = -1

// scheduleTable renders a solution as one row per task.
func scheduleTable(sol *schedule.Solution) string {
	rows := make([][]string, 0, len(sol.Tasks))
	for _, a := range sol.Tasks {
		rows = append(rows, []string{
			a.ID,
			"P" + strconv.Itoa(a.Processor),
			strconv.Itoa(a.Start),
			strconv.Itoa(a.Finish),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers("Task", "Proc", "Start", "Finish").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return styleTableHeader
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if col == 1 && row >= 0 && row < len(sol.Tasks) {
				return base.Foreground(processorColor(sol.Tasks[row].Processor))
			}
			if col >= 2 {
				return base.Foreground(colorCyan)
			}
			return base
		})
	return t.Render()
}

// runsTable renders recorded runs, newest first.
func runsTable(runs []*store.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		makespan := "—"
		if r.Solution != nil {
			makespan = strconv.Itoa(r.Makespan)
		}
		rows = append(rows, []string{
			shortID(r.ID),
			formatRelativeTime(r.CreatedAt),
			shortSource(r.Source),
			strconv.Itoa(r.Tasks),
			strconv.Itoa(r.Processors),
			r.Algorithm,
			r.Status,
			makespan,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleTableBorder).
		Headers("ID", "When", "Graph", "Tasks", "P", "Algorithm", "Status", "Makespan").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return styleTableHeader
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if col == 0 || col == 1 {
				return base.Foreground(colorDim)
			}
			if col == 6 && row >= 0 && row < len(runs) && runs[row].Status != search.StatusOptimal.String() {
				return base.Foreground(colorYellow)
			}
			return base
		})
	return t.Render()
}

// processorColor picks a lane colour for processor p.
func processorColor(p int) lipgloss.Color {
	lanes := []lipgloss.Color{"36", "75", "35", "220", "170", "209", "111", "150"}
	return lanes[p%len(lanes)]
}

// =============================================================================
// Helpers
// =============================================================================

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shortSource(s string) string {
	if s == "" {
		return "<inline>"
	}
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		return s[i+1:]
	}
	return s
}

func formatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}
