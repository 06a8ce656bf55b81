package logging

import (
	"fmt"
	"strings"
	"time"
)

// DefaultWidth is the renderer's default fixed column width.
const DefaultWidth = 80

// Render produces a fixed-width boxed representation of e, word-wrapped
// per field at width columns. It does not read or mutate the logger and
// does not write anywhere. The output is not fixed for a given entry: the
// header line carries the current UTC time at the call (Entry has no
// timestamp of its own), and fields appear in map iteration order.
func Render(e *Entry, width int) string {
	if width <= 4 {
		width = DefaultWidth
	}
	inner := width - 4 // "| " + text + " |"

	var b strings.Builder
	border := "+" + strings.Repeat("-", width-2) + "+"

	b.WriteString(border)
	b.WriteByte('\n')

	writeLine(&b, fmt.Sprintf("%s  %s", time.Now().UTC().Format(time.RFC3339), strings.ToUpper(e.Level)), inner)
	if e.Message != "" {
		writeWrapped(&b, e.Message, inner)
	}
	for _, line := range e.chain() {
		writeWrapped(&b, "caused by: "+line, inner)
	}
	for k, v := range e.Fields {
		writeWrapped(&b, fmt.Sprintf("%s=%v", k, v), inner)
	}

	b.WriteString(border)
	return b.String()
}

func writeLine(b *strings.Builder, s string, inner int) {
	if len(s) > inner {
		s = s[:inner]
	}
	fmt.Fprintf(b, "| %-*s |\n", inner, s)
}

// writeWrapped breaks s into inner-width chunks on word boundaries,
// emitting one boxed line per chunk.
func writeWrapped(b *strings.Builder, s string, inner int) {
	words := strings.Fields(s)
	if len(words) == 0 {
		writeLine(b, "", inner)
		return
	}

	var line strings.Builder
	for _, w := range words {
		candidate := w
		if line.Len() > 0 {
			candidate = line.String() + " " + w
		}
		if len(candidate) > inner && line.Len() > 0 {
			writeLine(b, line.String(), inner)
			line.Reset()
			line.WriteString(w)
			continue
		}
		line.Reset()
		line.WriteString(candidate)
	}
	if line.Len() > 0 {
		writeLine(b, line.String(), inner)
	}
}
