package authclient

import "slices"

// TokenPair is the opaque credential pair. The client forwards tokens and never parses
// them.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// Identity is the user record the UI needs. It is persisted as JSON under the "user" key.
type Identity struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// HasRole reports whether the identity carries role.
func (i *Identity) HasRole(role string) bool {
	return i != nil && slices.Contains(i.Roles, role)
}
