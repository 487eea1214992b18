package entity

import "strings"

// Identity is the claim set returned by a federated provider after a successful login.
// It holds facts only; deciding what they mean for the user store is the reconciliation's job.
type Identity struct {
	Subject       string // provider-scoped unique subject ("sub")
	Email         string // may be empty when the provider did not release it
	Name          string // may be empty
	EmailVerified bool
}

// HasEmail reports whether the claim set carries a usable email.
func (i Identity) HasEmail() bool {
	return strings.TrimSpace(i.Email) != ""
}

// HasName reports whether the claim set carries a non-blank name.
func (i Identity) HasName() bool {
	return strings.TrimSpace(i.Name) != ""
}
