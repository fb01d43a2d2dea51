// Package validation holds input checks shared by handlers and the seeder.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// reservedSlugs are path segments the router owns; a group with one of these
// slugs would shadow a route.
var reservedSlugs = map[string]struct{}{
	"auth":    {},
	"create":  {},
	"follow":  {},
	"group":   {},
	"health":  {},
	"media":   {},
	"metrics": {},
	"posts":   {},
	"profile": {},
}

// ValidateSlug checks a group slug for length, character set and reserved
// names.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("slug must not be empty")
	}
	if len(slug) > 50 {
		return fmt.Errorf("slug must be at most 50 characters")
	}
	if !slugPattern.MatchString(slug) {
		return fmt.Errorf("slug may only contain lowercase letters, digits and hyphens")
	}
	if _, reserved := reservedSlugs[slug]; reserved {
		return fmt.Errorf("slug %q is reserved", slug)
	}
	return nil
}

// ValidateUsername applies the same shape rules as slugs, case-insensitively.
func ValidateUsername(username string) error {
	if username == "" {
		return fmt.Errorf("username must not be empty")
	}
	if len(username) > 150 {
		return fmt.Errorf("username must be at most 150 characters")
	}
	lowered := strings.ToLower(username)
	if !regexp.MustCompile(`^[a-z0-9_.-]+$`).MatchString(lowered) {
		return fmt.Errorf("username may only contain letters, digits, dots, hyphens and underscores")
	}
	return nil
}
