package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"tfemit/internal/diag"
	"tfemit/internal/source"
)

type palette struct {
	enabled bool
	error   *color.Color
	warning *color.Color
	info    *color.Color
	code    *color.Color
	gutter  *color.Color
	caret   *color.Color
	note    *color.Color
}

func newPalette(enabled bool) *palette {
	p := &palette{
		enabled: enabled,
		error:   color.New(color.FgRed, color.Bold),
		warning: color.New(color.FgYellow, color.Bold),
		info:    color.New(color.FgCyan, color.Bold),
		code:    color.New(color.Faint),
		gutter:  color.New(color.FgBlue),
		caret:   color.New(color.FgRed, color.Bold),
		note:    color.New(color.FgBlue, color.Bold),
	}
	if enabled {
		for _, c := range []*color.Color{p.error, p.warning, p.info, p.code, p.gutter, p.caret, p.note} {
			c.EnableColor()
		}
	}
	return p
}

func (p *palette) paint(c *color.Color, s string) string {
	if !p.enabled || s == "" {
		return s
	}
	return c.Sprint(s)
}

func (p *palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.error
	case diag.SevWarning:
		return p.warning
	default:
		return p.info
	}
}

// Pretty prints the diagnostics of bag in order (sort the bag first). Each
// diagnostic becomes
//
//	<path>:<line>:<col>: <SEV> <CODE>: <Message>
//
// followed by the source line with the primary position underlined and,
// with ShowNotes, its notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) error {
	p := newPalette(opts.Color)
	var sb strings.Builder
	items := bag.Items()
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}
	for i := range items {
		d := &items[i]
		sb.WriteString(location(fs, d.Primary, opts.PathMode))
		sb.WriteString(p.paint(p.severity(d.Severity), d.Severity.String()))
		sb.WriteByte(' ')
		sb.WriteString(p.paint(p.code, d.Code.ID()))
		sb.WriteString(": ")
		sb.WriteString(d.Message)
		if d.Func != "" {
			sb.WriteString(p.paint(p.code, " (in "+d.Func+")"))
		}
		sb.WriteByte('\n')
		writeSnippet(&sb, p, fs, d.Primary)

		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			sb.WriteString("  ")
			sb.WriteString(p.paint(p.note, "note"))
			sb.WriteString(": ")
			sb.WriteString(location(fs, n.Pos, opts.PathMode))
			sb.WriteString(n.Msg)
			sb.WriteByte('\n')
			writeSnippet(&sb, p, fs, n.Pos)
		}
	}
	if len(items) < bag.Len() {
		fmt.Fprintf(&sb, "... and %d more\n", bag.Len()-len(items))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func location(fs *source.FileSet, pos source.Pos, mode PathMode) string {
	if pos.IsNone() || fs == nil {
		return ""
	}
	f := fs.Get(pos.File)
	if f == nil {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d: ", formatPath(f.Path, mode), pos.Line, pos.Col)
}

// writeSnippet prints the line of pos with a caret under its columns.
// Columns count runes; the caret is placed by display width.
func writeSnippet(sb *strings.Builder, p *palette, fs *source.FileSet, pos source.Pos) {
	if pos.IsNone() || fs == nil {
		return
	}
	line := fs.Get(pos.File).GetLine(pos.Line)
	if line == "" {
		return
	}
	runes := []rune(line)

	col := min(int(pos.Col), len(runes)+1)
	if col < 1 {
		col = 1
	}
	end := col + 1
	if pos.EndLine == pos.Line && int(pos.EndCol) > col {
		end = min(int(pos.EndCol), len(runes)+1)
	}
	pad := displayWidth(runes[:col-1])
	width := 1
	if end-1 <= len(runes) && end > col {
		width = max(1, displayWidth(runes[col-1:end-1]))
	}
	line = strings.ReplaceAll(line, "\t", tabSpaces)

	gutter := fmt.Sprintf("%5d | ", pos.Line)
	sb.WriteString(p.paint(p.gutter, gutter))
	sb.WriteString(line)
	sb.WriteByte('\n')
	sb.WriteString(p.paint(p.gutter, strings.Repeat(" ", len(gutter)-2)+"| "))
	sb.WriteString(strings.Repeat(" ", pad))
	sb.WriteString(p.paint(p.caret, "^"+strings.Repeat("~", width-1)))
	sb.WriteByte('\n')
}

const tabSpaces = "    "

// displayWidth measures rs as printed, with tabs expanded to tabSpaces.
func displayWidth(rs []rune) int {
	w := 0
	for _, r := range rs {
		if r == '\t' {
			w += len(tabSpaces)
			continue
		}
		w += runewidth.RuneWidth(r)
	}
	return w
}
