package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ha1tch/relgraph/pkg/forcegraph"
)

// Styles
var (
	styleDefault    = tcell.StyleDefault
	styleSidebar    = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleSidebarH   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleStatus     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	styleMsgInfo    = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorNavy)
	styleMsgError   = tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorNavy).Bold(true)
	styleMsgSuccess = tcell.StyleDefault.Foreground(tcell.ColorSilver).Background(tcell.ColorNavy)
	styleMsgWarning = tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorNavy)
	styleHelp       = tcell.StyleDefault.Foreground(tcell.ColorGray) // Help bar on default background
	styleBorder     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleWarn       = tcell.StyleDefault.Foreground(tcell.ColorYellow)
)

// MessageType for status messages
type MessageType int

const (
	MsgInfo    MessageType = iota // Informative, no flash
	MsgError                      // Errors, flash
	MsgSuccess                    // State changes, flash
	MsgWarning                    // Warnings, flash
)

// Flash pattern: normal(0-125) -> inverted(125-250) -> normal(250-375) -> inverted(375-500) -> normal(500+)
const (
	flashPhase    = 125
	flashDuration = 4 * flashPhase
)

func flashInverted(elapsed int64) bool {
	if elapsed < 0 || elapsed >= flashDuration {
		return false
	}
	phase := elapsed / flashPhase
	return phase == 1 || phase == 3
}

func shouldFlash(t MessageType) bool {
	return t != MsgInfo
}

// terminalTheme suits a dark terminal.
func terminalTheme() forcegraph.Theme {
	t := forcegraph.DefaultTheme()
	t.Background = colorful.Color{R: 0.07, G: 0.08, B: 0.10}
	t.Edge = colorful.Color{R: 0.45, G: 0.50, B: 0.58}
	t.Outline = colorful.Color{R: 0.85, G: 0.87, B: 0.90}
	t.Label = colorful.Color{R: 0.90, G: 0.92, B: 0.95}
	return t
}

func (v *Viewer) draw() {
	v.screen.Clear()
	w, h := v.screen.Size()

	v.surface.flush(v.screen, 0, 0)
	if v.sidebarOpen {
		v.drawSidebar(w, h)
	}
	v.drawStatusBar(w, h)
}

func (v *Viewer) drawSidebar(w, h int) {
	x := v.surface.cols
	for y := 0; y < h-2; y++ {
		v.screen.SetContent(x, y, '│', nil, styleBorder)
	}
	x += 2
	width := w - x - 1
	if width <= 0 {
		return
	}

	y := 0
	v.drawString(x, y, "Graph", styleSidebarH)
	y++
	v.drawString(x, y, fmt.Sprintf("Papers:        %d", len(v.eng.Nodes())), styleSidebar)
	y++
	v.drawString(x, y, fmt.Sprintf("Relationships: %d", len(v.eng.Edges())), styleSidebar)
	y++
	v.drawString(x, y, "Animation:     "+v.eng.State().String(), styleSidebar)
	y++
	if n := v.report.Dropped(); n > 0 {
		v.drawString(x, y, fmt.Sprintf("Dropped:       %d", n), styleWarn)
		y++
	}
	if v.location != "" {
		v.drawString(x, y, truncate(v.location, width), styleHelp)
		y++
	}

	y++
	v.drawString(x, y, "Paper", styleSidebarH)
	y++
	if v.panel.text == "" {
		v.drawString(x, y, "Hover a paper for details", styleHelp)
		return
	}
	for _, para := range strings.Split(v.panel.text, "\n") {
		for _, line := range wrap(para, width) {
			if y >= h-2 {
				return
			}
			v.drawString(x, y, line, styleSidebar)
			y++
		}
	}
}

func (v *Viewer) drawStatusBar(w, h int) {
	y := h - 1

	// Background
	for x := 0; x < w; x++ {
		v.screen.SetContent(x, y, ' ', nil, styleStatus)
	}

	// Source
	info := "[no source]"
	if v.location != "" {
		info = v.location
		if len(info) > 30 {
			info = filepath.Base(info)
		}
	}
	v.drawString(1, y, info, styleStatus)

	// Mode
	mode := v.modeString()
	v.drawString(w/2-len(mode)/2, y, mode, styleStatus)

	// Message
	if v.message != "" {
		style := styleMsgInfo
		switch v.messageType {
		case MsgError:
			style = styleMsgError
		case MsgSuccess:
			style = styleMsgSuccess
		case MsgWarning:
			style = styleMsgWarning
		}
		if shouldFlash(v.messageType) && flashInverted(time.Now().UnixMilli()-v.messageFlashStart.Load()) {
			style = style.Reverse(true)
		}
		msg := truncate(v.message, w/2-2)
		v.drawString(w-utf8.RuneCountInString(msg)-2, y, msg, style)
	}

	// Help bar
	y = h - 2
	for x := 0; x < w; x++ {
		v.screen.SetContent(x, y, ' ', nil, styleDefault)
	}
	v.drawString(1, y, v.helpString(), styleHelp)
}

func (v *Viewer) modeString() string {
	switch {
	case v.eng.Dragging() >= 0:
		return "DRAG"
	case v.eng.State() == forcegraph.Running:
		return "SETTLING"
	default:
		return ""
	}
}

func (v *Viewer) helpString() string {
	help := "drag:move  click:open  r:relayout  s:save  l:load  p:render  tab:sidebar  q:quit"
	if v.isBackend() {
		help = "drag:move  click:open  r:relayout  s:save  l:load  p:render  b:rebuild  tab:sidebar  q:quit"
	}
	return help
}

func (v *Viewer) drawString(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:max(maxLen, 0)])
	}
	return string(r[:maxLen-3]) + "..."
}

// wrap breaks s into lines of at most width runes at spaces.
func wrap(s string, width int) []string {
	if s == "" || width <= 0 {
		return []string{""}
	}
	var lines []string
	line := ""
	for _, word := range strings.Fields(s) {
		for utf8.RuneCountInString(word) > width {
			if line != "" {
				lines = append(lines, line)
				line = ""
			}
			r := []rune(word)
			lines = append(lines, string(r[:width]))
			word = string(r[width:])
		}
		switch {
		case line == "":
			line = word
		case utf8.RuneCountInString(line)+1+utf8.RuneCountInString(word) <= width:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// sidePanel is the tooltip of the terminal view: node details go to the
// sidebar instead of floating next to the pointer.
type sidePanel struct {
	text string
}

func (p *sidePanel) Measure(text string) (w, h float64) {
	lines := strings.Split(text, "\n")
	widest := 0
	for _, l := range lines {
		widest = max(widest, utf8.RuneCountInString(l))
	}
	return float64(widest) * cellW, float64(len(lines)) * cellH
}

func (p *sidePanel) Show(text string, at forcegraph.Point) { p.text = text }

func (p *sidePanel) Hide() { p.text = "" }
