// Package normalize trims and canonicalizes user-supplied strings before
// they are stored or compared.
package normalize

import "strings"

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a person's name and collapses inner runs of whitespace.
// Case is preserved.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// College trims an institution name and collapses inner whitespace.
// Grouping uses the folded form; this is the display form.
func College(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Role lowercases and trims a role name.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ID trims a caller-supplied identifier (user ref, event ref, subject id).
func ID(s string) string {
	return strings.TrimSpace(s)
}

// Tag lowercases and trims an event category tag.
func Tag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
