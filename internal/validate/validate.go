// Package validate holds the field checks shared by every public form.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneStrip   = regexp.MustCompile(`[\s\-()]`)
	phonePattern = regexp.MustCompile(`^[+]?[1-9]\d{0,15}$`)
)

// Result is the outcome of checking one submission. Error is empty when Valid.
type Result struct {
	Valid bool
	Error string
}

// OK is the passing result.
func OK() Result { return Result{Valid: true} }

// Fail returns a failing result carrying a user-facing reason.
func Fail(reason string) Result { return Result{Valid: false, Error: reason} }

// IsValidEmail reports whether s looks like local@domain.tld with no whitespace.
func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsValidPhone accepts an optional leading '+' followed by up to 16 digits, the
// first non-zero. Spaces, hyphens and parentheses are ignored.
func IsValidPhone(s string) bool {
	return phonePattern.MatchString(phoneStrip.ReplaceAllString(s, ""))
}

// Missing returns which of the named fields are blank in values, in the order
// they were named. Whitespace-only counts as blank.
func Missing(values map[string]string, names ...string) []string {
	var out []string
	for _, n := range names {
		if strings.TrimSpace(values[n]) == "" {
			out = append(out, n)
		}
	}
	return out
}

// RequireFields fails when any of names is blank. The reason always lists
// every required field, e.g.
// "Missing required fields: name, email, and projectType are required".
func RequireFields(values map[string]string, names ...string) Result {
	if len(Missing(values, names...)) == 0 {
		return OK()
	}
	return Fail(fmt.Sprintf("Missing required fields: %s %s required", joinList(names), verb(len(names))))
}

// Email fails with "Invalid email address" unless s is a valid email.
func Email(s string) Result {
	if !IsValidEmail(strings.TrimSpace(s)) {
		return Fail("Invalid email address")
	}
	return OK()
}

// OptionalPhone passes blank input and otherwise applies IsValidPhone.
func OptionalPhone(s string) Result {
	if strings.TrimSpace(s) == "" || IsValidPhone(s) {
		return OK()
	}
	return Fail("Invalid phone number")
}

// OneOf passes blank input or any of allowed.
func OneOf(field, s string, allowed ...string) Result {
	if s == "" {
		return OK()
	}
	for _, a := range allowed {
		if s == a {
			return OK()
		}
	}
	return Fail(fmt.Sprintf("Invalid %s: must be one of %s", field, strings.Join(allowed, ", ")))
}

// First returns the first failing result, or OK.
func First(results ...Result) Result {
	for _, r := range results {
		if !r.Valid {
			return r
		}
	}
	return OK()
}

func joinList(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	}
	return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
}

func verb(n int) string {
	if n == 1 {
		return "is"
	}
	return "are"
}
