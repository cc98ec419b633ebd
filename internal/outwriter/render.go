package outwriter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#EEEEEE"}).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#888888", Dark: "#666666"}).
			Padding(0, 1)
	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"})
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// renderHeader draws the boxed repository banner.
func renderHeader(title, subtitle string, colors bool) string {
	if !colors {
		if subtitle == "" {
			return title + "\n"
		}
		return title + "\n" + subtitle + "\n"
	}
	body := title
	if subtitle != "" {
		body += "\n" + subtitleStyle.Render(subtitle)
	}
	return headerStyle.Render(body) + "\n"
}

// renderSection formats a section title.
func renderSection(title string, colors bool) string {
	if !colors {
		return "\n" + title + "\n"
	}
	return "\n" + sectionStyle.Render(title) + "\n"
}

// renderMarkdown renders md for the terminal. Plain style is used without colors.
// When Glamour cannot render the input, it is returned unchanged.
func renderMarkdown(md string, width int, colors bool) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	style := "notty"
	if colors {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// renderBar draws a horizontal bar of value relative to highest, at most width cells wide.
// Any positive value gets at least one cell.
func renderBar(value, highest, width int) string {
	if value <= 0 || highest <= 0 || width <= 0 {
		return ""
	}
	n := value * width / highest
	if n == 0 {
		n = 1
	}
	return strings.Repeat("█", n)
}

// formatShare formats count as a percentage of total.
func formatShare(count, total int) string {
	if total <= 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(count)*100/float64(total))
}
