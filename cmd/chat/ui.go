package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")).Width(60).Align(lipgloss.Center)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	botStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	bodyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	userStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	errBodyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// printer writes timestamped chat messages.
type printer struct {
	w   io.Writer
	now func() time.Time
}

func (p printer) stamp() string { return p.now().Format("15:04:05") }

func (p printer) header(path string) {
	fmt.Fprintln(p.w, titleStyle.Render("CSV AGENT CHAT INTERFACE"))
	fmt.Fprintln(p.w, infoStyle.Render("Currently working with: ")+pathStyle.Render(path))
	fmt.Fprintln(p.w, infoStyle.Render("Type your instructions or 'exit' to quit"))
	fmt.Fprintln(p.w, infoStyle.Render(strings.Repeat("- ", 30)))
}

func (p printer) prompt() {
	fmt.Fprint(p.w, "\n"+userStyle.Render("You: "))
}

func (p printer) bot(msg string) {
	fmt.Fprintf(p.w, "\n%s\n", botStyle.Render(fmt.Sprintf("[%s] Bot:", p.stamp())))
	for _, line := range strings.Split(msg, "\n") {
		fmt.Fprintln(p.w, bodyStyle.Render("  "+line))
	}
}

func (p printer) error(msg string) {
	fmt.Fprintf(p.w, "\n%s\n", errorStyle.Render(fmt.Sprintf("[%s] Error:", p.stamp())))
	fmt.Fprintln(p.w, errBodyStyle.Render("  "+msg))
}

func (p printer) goodbye() {
	fmt.Fprintln(p.w, "\n"+botStyle.Render("Goodbye!"))
}

// isExit reports whether line ends the session.
func isExit(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "exit", "quit":
		return true
	}
	return false
}
