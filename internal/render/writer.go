package render

import (
	"strings"
	"unicode/utf8"
)

const tooLong = "(too long)"

// Writer accumulates indented text up to an optional byte limit.
// Once the limit is hit the text ends with "(too long)" and further writes are ignored.
type Writer struct {
	sb        strings.Builder
	limited   bool
	remaining int
	full      bool

	indent      int
	atLineStart bool
}

// NewWriter creates a writer. A limit of zero or less means unlimited.
func NewWriter(limit int) *Writer {
	w := &Writer{atLineStart: true}
	if limit > 0 {
		w.limited = true
		w.remaining = max(limit, len(tooLong)+1)
	}
	return w
}

func (w *Writer) Full() bool {
	return w.full
}

func (w *Writer) Indent() {
	w.indent++
}

func (w *Writer) Unindent() {
	if w.indent > 0 {
		w.indent--
	}
}

// Cat writes s, indenting each line that starts inside it.
func (w *Writer) Cat(s string) {
	for s != "" && !w.full {
		if w.atLineStart && w.indent > 0 {
			w.raw(strings.Repeat("\t", w.indent))
		}

		line, rest, found := strings.Cut(s, "\n")
		if found {
			w.raw(line + "\n")
			w.atLineStart = true
		} else {
			w.raw(line)
			w.atLineStart = false
		}
		s = rest
	}
}

func (w *Writer) Catln(s string) {
	w.Cat(s)
	w.Line()
}

func (w *Writer) Line() {
	w.raw("\n")
	w.atLineStart = true
}

func (w *Writer) raw(s string) {
	if w.full {
		return
	}
	if !w.limited {
		w.sb.WriteString(s)
		return
	}

	if len(s)+len(tooLong) < w.remaining {
		w.sb.WriteString(s)
		w.remaining -= len(s)
		return
	}

	cut := w.remaining - len(tooLong)
	for cut > 0 && cut < len(s) && !utf8.RuneStart(s[cut]) {
		cut--
	}
	w.sb.WriteString(s[:cut])
	w.sb.WriteString(tooLong)
	w.remaining = 0
	w.full = true
}

func (w *Writer) String() string {
	return w.sb.String()
}
