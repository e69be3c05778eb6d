package flows

import (
	"github.com/tidwall/gjson"
)

var (
	accessTokenPaths = []string{
		"accessToken",
		"access_token",
		"data.accessToken",
		"data.access_token",
	}
	refreshTokenPaths = []string{
		"refreshToken",
		"refresh_token",
		"data.refreshToken",
		"data.refresh_token",
	}
	userPaths = []string{
		"user",
		"data.user",
	}
)

// TokenBody is the credential material found in an auth endpoint response.
type TokenBody struct {
	AccessToken  string
	RefreshToken string
	// User is the raw JSON object of the identity record, if the body carried one.
	User string
}

// ParseTokenBody extracts tokens from either a flat body or one nested under "data".
// The second return value is false when body is not valid JSON.
func ParseTokenBody(body []byte) (TokenBody, bool) {
	if !gjson.ValidBytes(body) {
		return TokenBody{}, false
	}

	var out TokenBody
	out.AccessToken = firstString(body, accessTokenPaths)
	out.RefreshToken = firstString(body, refreshTokenPaths)
	for _, p := range userPaths {
		if r := gjson.GetBytes(body, p); r.IsObject() {
			out.User = r.Raw
			break
		}
	}
	return out, true
}

func firstString(body []byte, paths []string) string {
	for _, p := range paths {
		r := gjson.GetBytes(body, p)
		if r.Type == gjson.String && r.Str != "" {
			return r.Str
		}
	}
	return ""
}

// ErrorMessage returns a backend-provided error message, if any.
func ErrorMessage(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	return firstString(body, []string{"message", "error", "error.message", "data.message"})
}
