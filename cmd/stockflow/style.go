package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-stockflow/pkg/ast"
	"github.com/dd0wney/cluso-stockflow/pkg/runner"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FF00"))

	summaryBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))
)

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// renderSummary prints the final value of every level in a box
func renderSummary(res *runner.Result) string {
	title := fmt.Sprintf("%s after %d rounds", res.ModelName, res.Rounds())
	if res.ModelName == "" {
		title = fmt.Sprintf("model after %d rounds", res.Rounds())
	}
	lines := []string{titleStyle.Render(title), ""}

	width := 0
	for _, c := range res.Columns {
		if c.Kind == ast.LevelKind {
			width = max(width, lipgloss.Width(c.Label))
		}
	}
	last := res.Rows[len(res.Rows)-1]
	for i, c := range res.Columns {
		if c.Kind != ast.LevelKind {
			continue
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Width(width+2).Render(c.Label),
			valueStyle.Render(formatValue(last[i])),
		))
	}

	lines = append(lines, "", helpStyle.Render(fmt.Sprintf("run %s in %s", res.RunID, res.Duration.Round(time.Microsecond))))
	return summaryBoxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderList prints a heading followed by one indented line per item
func renderList(heading string, items []string) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render(heading))
	sb.WriteByte('\n')
	if len(items) == 0 {
		sb.WriteString(helpStyle.Render("  (none)"))
		sb.WriteByte('\n')
	}
	for _, item := range items {
		sb.WriteString("  ")
		sb.WriteString(labelStyle.Render(item))
		sb.WriteByte('\n')
	}
	return sb.String()
}
