package flows

import "context"

// Exchange performs one unauthenticated JSON POST against the auth backend and returns
// the response status and body. A transport failure returns a non-nil error.
type Exchange func(ctx context.Context, path string, payload any) (int, []byte, error)

// Deps groups flow dependency sets. The root client builds this once and delegates
// credential operations to the matching flow implementation.
type Deps struct {
	Refresh RefreshDeps
	Login   LoginDeps
	Logout  LogoutDeps
}
