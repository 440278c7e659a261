package diag

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Printer renders diagnostics with the offending source line and a
// caret under the token, colorized when the sink is a terminal.
type Printer struct {
	out      io.Writer
	filename string
	source   []rune
	color    bool
}

func NewPrinter(out io.Writer, filename, source string) *Printer {
	color := false
	if f, ok := out.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}
	return &Printer{out: out, filename: filename, source: []rune(source), color: color}
}

func (p *Printer) paint(code, s string) string {
	if !p.color {
		return s
	}
	return "\033[" + code + "m" + s + "\033[0m"
}

func (p *Printer) Print(d Diagnostic) {
	label := p.paint("31", "error:")
	if d.Kind.IsWarning() {
		label = p.paint("33", "warning:")
	}
	fmt.Fprintf(p.out, "%s:%d:%d: %s %s [%s]\n", p.filename, d.Line, d.Column, label, d.Message, d.Kind)
	p.printSourceLine(d)
}

func (p *Printer) PrintAll(b *Bag) {
	for _, d := range b.All() {
		p.Print(d)
	}
}

func (p *Printer) printSourceLine(d Diagnostic) {
	if d.Line <= 0 || len(p.source) == 0 {
		return
	}

	lineStart := 0
	lineNum := d.Line
	for i, r := range p.source {
		if lineNum <= 1 {
			break
		}
		if r == '\n' {
			lineNum--
			lineStart = i + 1
		}
	}
	lineEnd := len(p.source)
	for i := lineStart; i < len(p.source); i++ {
		if p.source[i] == '\n' {
			lineEnd = i
			break
		}
	}

	fmt.Fprintf(p.out, "  %s\n", string(p.source[lineStart:lineEnd]))

	if d.Column > 0 {
		caret := "^"
		if d.Len > 1 {
			caret += strings.Repeat("~", d.Len-1)
		}
		fmt.Fprintf(p.out, "  %s%s\n", strings.Repeat(" ", d.Column-1), p.paint("32", caret))
	}
}
