package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/crawl/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen    = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow   = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed      = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue     = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple   = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim      = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg       = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader   = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold     = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
	StyleSelected = lipgloss.NewStyle().Foreground(ColorFg).Background(lipgloss.Color("#504945")).Bold(true)
)

// State is how a node shows up in the tree.
type State int

const (
	StateLive State = iota
	StateOff        // switched off, or under a switched-off ancestor
	StateIdle       // on, but outside its schedule right now
)

// StateMark returns the colored marker for s.
func StateMark(s State) string {
	switch s {
	case StateOff:
		return StyleDim.Render("○")
	case StateIdle:
		return StyleYellow.Render("◌")
	default:
		return StyleGreen.Render("●")
	}
}

// TypeLabel returns a short colored label for a node type.
func TypeLabel(t domain.NodeType) string {
	switch t {
	case domain.TypeFolder, domain.TypeTemplateFolder:
		return StylePurple.Render(string(t))
	case domain.TypeBucket:
		return StyleBlue.Render(string(t))
	default:
		return StyleDim.Render(string(t))
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", lipgloss.Width(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted/dim color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}

// Warn renders an authoring warning line.
func Warn(text string) string {
	return StyleYellow.Render("▲ " + text)
}
