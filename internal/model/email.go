package model

import "strings"

// EmailInDomain reports whether email belongs to domain. The domain part is
// compared case-insensitively; the local part must be non-empty.
func EmailInDomain(email, domain string) bool {
	email = strings.TrimSpace(email)
	at := strings.IndexByte(email, '@')
	if at <= 0 || at != strings.LastIndexByte(email, '@') {
		return false
	}
	domain = strings.TrimPrefix(strings.TrimSpace(domain), "@")
	if domain == "" {
		return false
	}
	return strings.EqualFold(email[at+1:], domain)
}
