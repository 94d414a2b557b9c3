package console

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"go.k6.io/smdecode/sourcemap"
)

// Theme is a collection of colors used to render positions.
type Theme struct {
	label  *color.Color
	source *color.Color
	number *color.Color
	name   *color.Color
	caret  *color.Color
}

// NewTheme returns a theme that colors its output only when colorize is set,
// regardless of what fatih/color detected on its own.
func NewTheme(colorize bool) *Theme {
	th := &Theme{
		label:  color.New(color.Bold),
		source: color.New(color.FgCyan),
		number: color.New(color.FgYellow),
		name:   color.New(color.FgGreen),
		caret:  color.New(color.FgRed, color.Bold),
	}
	for _, c := range []*color.Color{th.label, th.source, th.number, th.name, th.caret} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return th
}

// FormatPosition renders pos the way the text output prints it:
//
//	Original position: src/app.ts:12:4 (main)
func (th *Theme) FormatPosition(pos sourcemap.Position) string {
	if !pos.Found() {
		return th.label.Sprint("Original position:") + " " + pos.String()
	}
	var sb strings.Builder
	sb.WriteString(th.label.Sprint("Original position:"))
	sb.WriteByte(' ')
	sb.WriteString(th.source.Sprint(pos.Source.String))
	sb.WriteByte(':')
	sb.WriteString(th.number.Sprint(strconv.FormatInt(pos.Line.Int64, 10)))
	sb.WriteByte(':')
	sb.WriteString(th.number.Sprint(strconv.FormatInt(pos.Column.Int64, 10)))
	if pos.Name.Valid {
		sb.WriteString(" (")
		sb.WriteString(th.name.Sprint(pos.Name.String))
		sb.WriteByte(')')
	}
	return sb.String()
}

// FormatExcerpt renders the 1-based line of content with a caret under the
// 0-based column. Lines that don't fit in width are cut around the column,
// a width of 0 never cuts. It returns false when content has no such line.
func (th *Theme) FormatExcerpt(content string, line, column, width int) (string, bool) {
	text, ok := SourceLine(content, line)
	if !ok {
		return "", false
	}
	gutter := fmt.Sprintf("%d | ", line)
	if column > len(text) {
		column = len(text)
	}

	shown, before := text, text[:column]
	if avail := width - len(gutter) - 2; width > 0 && avail > 0 && len(gutter)+len(text) > width {
		start, end := window(text, column, avail)
		shown, before = text[start:end], text[start:column]
		if start > 0 {
			shown, before = ellipsis+shown, ellipsis+before
		}
		if end < len(text) {
			shown += ellipsis
		}
	}

	// keep tabs so the caret lines up with the text above it
	pad := strings.Map(func(r rune) rune {
		if r == '\t' {
			return r
		}
		return ' '
	}, before)
	return gutter + shown + "\n" +
		strings.Repeat(" ", len(gutter)) + pad + th.caret.Sprint("^"), true
}

const ellipsis = "\u2026"

// window returns the bounds of at most size bytes of text around column,
// moved to rune boundaries.
func window(text string, column, size int) (int, int) {
	start := column - size/2
	if start < 0 {
		start = 0
	}
	end := start + size
	if end > len(text) {
		end = len(text)
		start = end - size
		if start < 0 {
			start = 0
		}
	}
	for start > 0 && !utf8.RuneStart(text[start]) {
		start--
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end--
	}
	return start, end
}

// SourceLine returns the 1-based line of content without its line terminator.
func SourceLine(content string, line int) (string, bool) {
	if line < 1 {
		return "", false
	}
	lines := strings.SplitAfter(content, "\n")
	if line > len(lines) {
		return "", false
	}
	text := strings.TrimRight(lines[line-1], "\r\n")
	if line == len(lines) && text == "" && strings.HasSuffix(content, "\n") {
		return "", false
	}
	return text, true
}
