package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Output selects how Print renders an error.
type Output int

const (
	// OutputPretty is the multi-line terminal form of Format.
	OutputPretty Output = iota
	// OutputJSON is one FormatJSON object per line, for log collectors.
	OutputJSON
)

// OutputFor returns the output matching a log.format value.
func OutputFor(logFormat string) Output {
	if strings.EqualFold(strings.TrimSpace(logFormat), "json") {
		return OutputJSON
	}
	return OutputPretty
}

const detailWidth = 70

var (
	headStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F38BA8"))
	codeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#CDD6F4"))
	causeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF"))
	hintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#89DCEB"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086"))
	linkStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#89B4FA")).Underline(true)
	wrapStyle  = lipgloss.NewStyle().Width(detailWidth)
)

var colorEnabled = true

// DisableColors turns styling off for Format.
func DisableColors() {
	colorEnabled = false
}

// EnableColors turns styling back on.
func EnableColors() {
	colorEnabled = true
}

func paint(style lipgloss.Style, text string) string {
	if !colorEnabled {
		return text
	}
	return style.Render(text)
}

// Format renders the error for a terminal: a header line followed by the
// cause, detail, hint, example and documentation link when present.
func (e *Error) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	if e.Code != "" {
		b.WriteString(paint(headStyle, "ERROR "))
		b.WriteString(paint(codeStyle, e.Code+": "))
	} else {
		b.WriteString(paint(headStyle, "ERROR: "))
	}
	b.WriteString(e.Message)
	b.WriteString("\n\n")

	section := func(lines ...string) {
		for _, line := range lines {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if e.Wrapped != nil {
		section(paint(causeStyle, "Cause: ") + e.Wrapped.Error())
	}
	if e.Detail != "" {
		section(wrap(e.Detail)...)
	}
	if e.Suggestion != "" {
		section(paint(hintStyle, "Hint: ") + e.Suggestion)
	}
	if e.Example != "" {
		lines := []string{paint(hintStyle, "Example:")}
		for _, line := range strings.Split(e.Example, "\n") {
			lines = append(lines, "  "+line)
		}
		section(lines...)
	}
	if e.DocURL != "" {
		b.WriteString("  ")
		b.WriteString(paint(mutedStyle, "Learn more: "))
		b.WriteString(paint(linkStyle, e.DocURL))
		b.WriteString("\n")
	}

	return b.String()
}

func wrap(text string) []string {
	if len(text) <= detailWidth {
		return []string{text}
	}
	lines := strings.Split(wrapStyle.Render(text), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return lines
}

type jsonError struct {
	Code       string   `json:"code,omitempty"`
	Category   Category `json:"category"`
	Message    string   `json:"message"`
	Detail     string   `json:"detail,omitempty"`
	Cause      string   `json:"cause,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
	DocURL     string   `json:"docUrl,omitempty"`
}

// FormatJSON returns the error as a single-line JSON object.
func (e *Error) FormatJSON() string {
	v := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
		DocURL:     e.DocURL,
	}
	if e.Wrapped != nil {
		v.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Error())
	}
	return string(data)
}

// Print writes err to w. Errors that are not an *Error are shown with
// their message only.
func Print(w io.Writer, err error, out Output) {
	var le *Error
	if !stderrors.As(err, &le) {
		le = &Error{Category: CategoryCLI, Message: err.Error()}
	}
	switch out {
	case OutputJSON:
		fmt.Fprintln(w, le.FormatJSON())
	default:
		fmt.Fprint(w, le.Format())
	}
}
