package flows

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// LoginFailureKind classifies login flow failures.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureTransport
	LoginFailureRejected
	LoginFailureStatus
	LoginFailureDecode
	LoginFailureMissingTokens
	LoginFailurePersist
)

// LoginResult carries the stored session material or failure metadata.
type LoginResult struct {
	Failure      LoginFailureKind
	Err          error
	StatusCode   int
	AccessToken  string
	RefreshToken string
	User         string
}

// LoginDeps captures login flow dependencies.
type LoginDeps struct {
	Path        string
	Exchange    Exchange
	SaveSession func(ctx context.Context, accessToken, refreshToken, user string) error
}

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RunLogin exchanges username and password for a credential pair and persists it
// together with the identity record.
func RunLogin(ctx context.Context, username, password string, deps LoginDeps) LoginResult {
	status, body, err := deps.Exchange(ctx, deps.Path, loginPayload{Username: username, Password: password})
	if err != nil {
		return LoginResult{Failure: LoginFailureTransport, Err: err}
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return LoginResult{
			Failure:    LoginFailureRejected,
			Err:        errors.New("credentials rejected"),
			StatusCode: status,
		}
	case status < http.StatusOK || status >= http.StatusMultipleChoices:
		msg := ErrorMessage(body)
		if msg == "" {
			msg = http.StatusText(status)
		}
		return LoginResult{
			Failure:    LoginFailureStatus,
			Err:        fmt.Errorf("login endpoint returned %d: %s", status, msg),
			StatusCode: status,
		}
	}

	tokens, ok := ParseTokenBody(body)
	if !ok {
		return LoginResult{
			Failure:    LoginFailureDecode,
			Err:        errors.New("login response is not valid JSON"),
			StatusCode: status,
		}
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		return LoginResult{
			Failure:    LoginFailureMissingTokens,
			Err:        errors.New("login response is missing tokens"),
			StatusCode: status,
		}
	}

	if err := deps.SaveSession(ctx, tokens.AccessToken, tokens.RefreshToken, tokens.User); err != nil {
		return LoginResult{
			Failure:    LoginFailurePersist,
			Err:        err,
			StatusCode: status,
		}
	}

	return LoginResult{
		Failure:      LoginFailureNone,
		StatusCode:   status,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		User:         tokens.User,
	}
}
