// Package style holds the brand colours and glyphs shared by CLI output.
package style

import "github.com/charmbracelet/lipgloss"

// Brand colours.
var (
	Amber = lipgloss.Color("#F7B500")
	Slate = lipgloss.Color("#667085")
	Green = lipgloss.Color("#22A06B")
	Red   = lipgloss.Color("#D93025")
	// Yellow marks warnings.
	Yellow = lipgloss.Color("#F59E0B")
)

// Glyphs.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Tilde   = "~"
	Arrow   = "→"
)
