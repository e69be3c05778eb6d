package authclient

import "context"

// Navigator is the application router boundary. The client only ever asks it to show
// the login view.
type Navigator interface {
	RedirectToLogin(ctx context.Context, reason error)
}

// NavigatorFunc adapts a function to [Navigator].
type NavigatorFunc func(ctx context.Context, reason error)

func (f NavigatorFunc) RedirectToLogin(ctx context.Context, reason error) {
	f(ctx, reason)
}

type NoOpNavigator struct{}

func (NoOpNavigator) RedirectToLogin(context.Context, error) {}
