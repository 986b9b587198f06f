package formatter

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles is the default terminal palette.
var Styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Palette is a simple stylesheet built with named [lipgloss.Style] fields.
// The zero value renders text unchanged.
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	set   bool
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		set:   true,
	}
}

func (p *Palette) Title(s string) string { return p.render(p.title, s) }
func (p *Palette) OK(s string) string    { return p.render(p.ok, s) }
func (p *Palette) Err(s string) string   { return p.render(p.err, s) }
func (p *Palette) Warn(s string) string  { return p.render(p.warn, s) }
func (p *Palette) Help(s string) string  { return p.render(p.help, s) }

func (p *Palette) render(style lipgloss.Style, s string) string {
	if p == nil || !p.set {
		return s
	}
	return style.Render(s)
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
