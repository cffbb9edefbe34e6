package entities

import "strings"

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

// Account is a user login as read from the users source. Password holds the
// plain value from the file; it is hashed by the repository and never stored.
type Account struct {
	Name     string
	Email    string
	Password string
	Verified bool
}

// AccountFacts is the stored view of a user the access bootstrap evaluates.
type AccountFacts struct {
	ID       int64
	Email    string
	Verified bool
}

// HasDomain reports whether the account's email belongs to domain.
func (a AccountFacts) HasDomain(domain string) bool {
	domain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(domain), "@"))
	if domain == "" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(a.Email), "@"+domain)
}
