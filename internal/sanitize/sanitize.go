// Package sanitize normalizes raw signup input before validation and storage.
// Callers must treat a false return as a rejection; the cleaned value is only
// meaningful when ok is true.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// emailPattern accepts addr-spec lookalikes: no whitespace, exactly the
// shape local@domain.tld. It is deliberately loose about what the parts
// contain; deliverability is the mailer's problem, not ours.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// MinNameLength is the shortest accepted name after trimming.
const MinNameLength = 2

// Name trims surrounding whitespace and requires at least MinNameLength
// characters. Length is measured in runes so multi-byte names are not
// penalized.
func Name(raw string) (string, bool) {
	name := strings.TrimSpace(raw)
	if utf8.RuneCountInString(name) < MinNameLength {
		return "", false
	}
	return name, true
}

// Email trims, lowercases, and pattern-checks the address. The lowered
// form is the canonical one; uniqueness in storage is enforced against it.
func Email(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if !emailPattern.MatchString(email) {
		return "", false
	}
	return email, true
}
