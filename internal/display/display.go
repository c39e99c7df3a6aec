// Package display provides terminal formatting for fiscal-fetch output.
package display

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
)

var (
	Muted    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6b7280"))
	Bold     = lipgloss.NewStyle().Bold(true)
	Success  = lipgloss.NewStyle().Foreground(lipgloss.Color("#16a34a"))
	WarnTint = lipgloss.NewStyle().Foreground(lipgloss.Color("#d97706"))
	ErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#dc2626"))
)

// SuccessMsg prints a green checkmark + message.
func SuccessMsg(format string, args ...any) {
	fmt.Println(Success.Render("✓") + " " + fmt.Sprintf(format, args...))
}

// WarnMsg prints an amber warning + message to stderr.
func WarnMsg(format string, args ...any) {
	fmt.Fprintln(os.Stderr, WarnTint.Render("!")+" "+fmt.Sprintf(format, args...))
}

// ErrorMsg prints a red X + message to stderr.
func ErrorMsg(format string, args ...any) {
	fmt.Fprintln(os.Stderr, ErrStyle.Render("✗")+" "+fmt.Sprintf(format, args...))
}

// Header prints a bold section header.
func Header(title string) {
	fmt.Println(Bold.Render(title))
}

// Detail prints a muted key/value line indented under a header.
func Detail(key string, value any) {
	fmt.Printf("  %s %v\n", Muted.Render(key+":"), value)
}
