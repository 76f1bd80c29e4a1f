package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vango-dev/loom/internal/profile"
)

const (
	colorPink     lipgloss.Color = "#f5c2e7"
	colorRed      lipgloss.Color = "#f38ba8"
	colorYellow   lipgloss.Color = "#f9e2af"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorTeal     lipgloss.Color = "#94e2d5"
	colorText     lipgloss.Color = "#cdd6f4"
	colorOverlay1 lipgloss.Color = "#7f849c"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorPink)
	labelStyle   = lipgloss.NewStyle().Foreground(colorOverlay1).Width(14)
	valueStyle   = lipgloss.NewStyle().Foreground(colorText)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorTeal)
	okStyle      = lipgloss.NewStyle().Foreground(colorGreen)
	failStyle    = lipgloss.NewStyle().Foreground(colorRed)
	warnStyle    = lipgloss.NewStyle().Foreground(colorYellow)
	sectionStyle = lipgloss.NewStyle().MarginTop(1)
)

// field renders one "label value" line.
func field(label string, value any) string {
	return "  " + labelStyle.Render(label) + valueStyle.Render(fmt.Sprint(value))
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", okStyle.Render("✓"), fmt.Sprintf(format, args...))
}

func failure(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", failStyle.Render("✗"), fmt.Sprintf(format, args...))
}

func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", warnStyle.Render("⚠"), fmt.Sprintf(format, args...))
}

// writeProfile prints the summary and per-component table of p.
func writeProfile(w io.Writer, p *profile.Profile) {
	mounts, patches, failed := 0, 0, 0
	for _, c := range p.Commits {
		switch {
		case c.Error != "":
			failed++
		case c.Mount:
			mounts++
		default:
			patches++
		}
	}
	drops := 0
	for _, n := range p.Drops {
		drops += n
	}

	lines := []string{
		field("Profile", p.ID),
		field("Scenario", p.Scenario),
		field("Duration", p.Ended.Sub(p.Started).Round(time.Microsecond)),
		field("Commits", fmt.Sprintf("%d mount, %d patch, %d failed", mounts, patches, failed)),
		field("Renders", p.Renders()),
		field("Dropped", drops),
		field("Errors", len(p.Errors)),
		field("Frames", p.Frames),
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))

	if len(p.Components) == 0 {
		return
	}
	fmt.Fprintln(w, sectionStyle.Render(headerStyle.Render(
		fmt.Sprintf("  %-16s %8s %8s %12s %12s", "component", "renders", "errors", "mean", "max"))))
	for _, name := range p.ComponentNames() {
		s := p.Components[name]
		fmt.Fprintf(w, "  %-16s %8d %8d %12s %12s\n",
			name, s.Renders, s.Errors,
			s.Mean().Round(time.Microsecond), s.Max.Round(time.Microsecond))
	}
}
