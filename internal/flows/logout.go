package flows

import "context"

// LogoutResult reports the remote revoke outcome and the local clear outcome separately.
type LogoutResult struct {
	RemoteErr error
	ClearErr  error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Path             string
	ReadRefreshToken func(context.Context) (string, bool)
	Exchange         Exchange
	ClearSession     func(context.Context) error
}

// RunLogout revokes the refresh token remotely when one is stored, then always clears
// local credentials. A failed remote call never keeps credentials around.
func RunLogout(ctx context.Context, deps LogoutDeps) LogoutResult {
	var out LogoutResult

	if deps.Exchange != nil && deps.Path != "" {
		if refreshToken, ok := deps.ReadRefreshToken(ctx); ok && refreshToken != "" {
			_, _, out.RemoteErr = deps.Exchange(ctx, deps.Path, refreshPayload{RefreshToken: refreshToken})
		}
	}

	out.ClearErr = deps.ClearSession(ctx)
	return out
}
