package forms

import (
	"fmt"
	"strings"
)

// optional maps blank strings to NULL.
func optional(s string) any {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return s
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

// lines renders "Label: value" rows, replacing blanks with "Not provided".
type lines struct{ b strings.Builder }

func (l *lines) title(s string) *lines {
	l.b.WriteString(s)
	l.b.WriteString("\n\n")
	return l
}

func (l *lines) field(label, value string) *lines {
	fmt.Fprintf(&l.b, "%s: %s\n", label, orDefault(value, "Not provided"))
	return l
}

func (l *lines) block(label, value string) *lines {
	fmt.Fprintf(&l.b, "\n%s:\n%s\n", label, orDefault(value, "Not provided"))
	return l
}

func (l *lines) String() string { return strings.TrimSpace(l.b.String()) }
