package render

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"github.com/TimelordUK/novelreader/internal/settings"
)

// Ellipsis marks a line cut to fit
const Ellipsis = "…"

var (
	black = settings.Color{Color: colorful.Color{R: 0, G: 0, B: 0}, A: 1}
	white = settings.Color{Color: colorful.Color{R: 1, G: 1, B: 1}, A: 1}
)

// Renderer styles the single overlay line from the settings record.
// Terminals have no opacity, so colours are blended against the terminal
// background instead.
type Renderer struct {
	settings settings.Record
	dark     bool
	width    int
}

// NewRenderer creates a renderer for a dark terminal of unknown width
func NewRenderer(rec settings.Record) *Renderer {
	return &Renderer{settings: rec, dark: true}
}

// SetSettings replaces the settings record
func (r *Renderer) SetSettings(rec settings.Record) {
	r.settings = rec
}

// SetDarkBackground tells the renderer what it is blending against
func (r *Renderer) SetDarkBackground(dark bool) {
	r.dark = dark
}

// SetWidth updates the terminal width
func (r *Renderer) SetWidth(width int) {
	r.width = width
}

// MaxColumns is how many cells of text fit in maxWidth percent of the
// terminal, or 0 when the width is unknown
func (r *Renderer) MaxColumns() int {
	if r.width <= 0 {
		return 0
	}
	cols := r.width*r.settings.MaxWidth/100 - 2 // horizontal padding
	if cols < 1 {
		cols = 1
	}
	return cols
}

// Colors returns the blended foreground and background as hex
func (r *Renderer) Colors(hovered bool) (fg, bg string) {
	term := black
	if !r.dark {
		term = white
	}

	defaults := settings.Defaults()
	opacity := r.settings.Opacity
	bgSpec, bgDefault := r.settings.BackgroundColor, defaults.BackgroundColor
	if hovered {
		opacity = r.settings.HoverOpacity
		bgSpec, bgDefault = r.settings.HoverBackgroundColor, defaults.HoverBackgroundColor
	}

	text := parseOr(r.settings.TextColor, defaults.TextColor)
	back := parseOr(bgSpec, bgDefault)

	fg = text.WithAlpha(opacity).Over(term).Hex()
	bg = back.WithAlpha(opacity).Over(term).Hex()
	return fg, bg
}

// Style builds the lipgloss style for the overlay
func (r *Renderer) Style(hovered bool) lipgloss.Style {
	fg, bg := r.Colors(hovered)
	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(fg)).
		Background(lipgloss.Color(bg)).
		Padding(r.verticalPadding(), 1)
	if r.settings.TextShadow {
		style = style.Bold(true)
	}
	return style
}

// Render styles text, cut to fit
func (r *Renderer) Render(text string, hovered bool) string {
	return r.Style(hovered).Render(Truncate(text, r.MaxColumns()))
}

// verticalPadding approximates line height with blank rows
func (r *Renderer) verticalPadding() int {
	extra := int(float64(r.settings.LineHeight) - 1)
	return max(0, min(extra, 2))
}

// Truncate cuts text to cols display cells, ending with an ellipsis. Zero
// or negative cols leaves text alone.
func Truncate(text string, cols int) string {
	if cols <= 0 {
		return text
	}
	return runewidth.Truncate(text, cols, Ellipsis)
}

func parseOr(value, fallback string) settings.Color {
	if c, err := settings.ParseColor(value); err == nil {
		return c
	}
	c, _ := settings.ParseColor(fallback)
	return c
}
