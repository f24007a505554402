// Package csvutil renders the waitlist export format. The output is
// byte-stable: LF separators, no trailing newline, and quoting only when a
// field actually needs it, so downstream diffing of exports stays quiet.
package csvutil

import "strings"

// EscapeField wraps a value in double quotes only when it contains a comma
// or a quote, doubling any embedded quotes.
func EscapeField(value string) string {
	if !strings.ContainsAny(value, `,"`) {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}

// Render joins a header and rows into a single CSV document. Every cell is
// passed through EscapeField; rows are separated by a bare LF and the final
// row is not terminated.
func Render(header []string, rows [][]string) string {
	var b strings.Builder

	writeRow(&b, header)
	for _, row := range rows {
		b.WriteByte('\n')
		writeRow(&b, row)
	}

	return b.String()
}

func writeRow(b *strings.Builder, row []string) {
	for i, cell := range row {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(EscapeField(cell))
	}
}
