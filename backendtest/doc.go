// Package backendtest runs an in-process REST backend that speaks the authclient wire
// protocol: login, refresh and logout endpoints plus bearer-protected /api routes.
//
// Access tokens are HS256 JWTs bound to a server generation, so
// [Server.ExpireAccessTokens] invalidates every issued token at once. Tests steer the
// refresh endpoint with [Server.FailRefresh], [Server.HoldRefresh],
// [Server.QueueRefreshPair] and [Server.WrapData], and inspect traffic with
// [Server.RefreshCalls] and [Server.Authorizations].
package backendtest
