// Package validate holds the pure field validators used by handlers
// and the auth service.
package validate

import (
	"net/mail"
	"net/url"
	"regexp"
	"time"
)

var subdomainPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// Email reports whether value parses as a single RFC 5322 address.
func Email(value string) bool {
	if value == "" {
		return false
	}
	addr, err := mail.ParseAddress(value)
	return err == nil && addr.Address == value
}

// Password enforces the minimum length rule.
func Password(value string) bool {
	return len(value) >= 8
}

// Subdomain accepts 3-40 lowercase alphanumeric characters with
// interior hyphens.
func Subdomain(value string) bool {
	if len(value) < 3 || len(value) > 40 {
		return false
	}
	return subdomainPattern.MatchString(value)
}

// URL accepts absolute http or https URLs.
func URL(value string) bool {
	parsed, err := url.Parse(value)
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}

// Date accepts calendar dates in YYYY-MM-DD form.
func Date(value string) bool {
	_, err := time.Parse("2006-01-02", value)
	return err == nil
}
