// Package views renders a materialized week as a terminal grid.
package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"weekplanner/internal/week"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	weekdayStyle = lipgloss.NewStyle().Bold(true)
	todayStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(26)
	bankStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Strikethrough(true)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// RenderWeek draws the seven day columns in two rows plus the bank panel.
// today, when non-empty, highlights the matching column header.
func RenderWeek(view week.View, today string) string {
	panels := make([]string, 0, len(view.Days))
	for _, col := range view.Days {
		panels = append(panels, renderDay(col, string(col.Day) == today))
	}

	top := lipgloss.JoinHorizontal(lipgloss.Top, panels[:4]...)
	bottom := lipgloss.JoinHorizontal(lipgloss.Top, panels[4:]...)

	header := headerStyle.Render(fmt.Sprintf("week of %s", view.Window.Start().Format("Mon Jan 2 2006")))

	lines := []string{header, top, bottom, renderBank(view.Bank)}
	lines = append(lines, footerStyle.Render(fmt.Sprintf("%d items", view.Count())))
	return strings.Join(lines, "\n")
}

func renderDay(col week.DayColumn, today bool) string {
	title := fmt.Sprintf("%s %s", strings.ToUpper(col.Weekday.String()[:3]), col.Day)
	style := weekdayStyle
	if today {
		style = todayStyle
	}

	var b strings.Builder
	b.WriteString(style.Render(title))
	b.WriteString("\n")
	if len(col.Instances) == 0 {
		b.WriteString(footerStyle.Render("(empty)"))
	}
	for _, inst := range col.Instances {
		b.WriteString(renderInstance(inst))
	}
	return panelStyle.Render(strings.TrimSuffix(b.String(), "\n"))
}

func renderBank(bank []week.Instance) string {
	var b strings.Builder
	b.WriteString(weekdayStyle.Render("TASK BANK"))
	b.WriteString("\n")
	if len(bank) == 0 {
		b.WriteString(footerStyle.Render("(empty)"))
	}
	for _, inst := range bank {
		b.WriteString(renderInstance(inst))
	}
	return bankStyle.Render(strings.TrimSuffix(b.String(), "\n"))
}

func renderInstance(inst week.Instance) string {
	var b strings.Builder
	b.WriteString(instanceLine(inst.Text, inst.Completed, inst.IsRecurringInstance()))
	for _, sub := range inst.SubItems {
		b.WriteString("  ")
		b.WriteString(instanceLine(sub.Text, sub.Completed, false))
	}
	return b.String()
}

func instanceLine(text string, completed, recurring bool) string {
	box := "[ ]"
	if completed {
		box = "[x]"
	}
	marker := ""
	if recurring {
		marker = " ~"
	}
	line := fmt.Sprintf("%s %s%s", box, text, marker)
	if completed {
		line = doneStyle.Render(line)
	}
	return line + "\n"
}
