package flows

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureMissingToken
	RefreshFailureTransport
	RefreshFailureStatus
	RefreshFailureDecode
	RefreshFailureMissingAccess
	RefreshFailurePersist
)

func (k RefreshFailureKind) String() string {
	switch k {
	case RefreshFailureNone:
		return "none"
	case RefreshFailureMissingToken:
		return "missing_refresh_token"
	case RefreshFailureTransport:
		return "transport"
	case RefreshFailureStatus:
		return "status"
	case RefreshFailureDecode:
		return "decode"
	case RefreshFailureMissingAccess:
		return "missing_access_token"
	case RefreshFailurePersist:
		return "persist"
	default:
		return "unknown"
	}
}

// RefreshResult carries either the new token pair or failure metadata.
type RefreshResult struct {
	Failure      RefreshFailureKind
	Err          error
	StatusCode   int
	AccessToken  string
	RefreshToken string
	// Rotated is true when the backend returned a new refresh token.
	Rotated bool
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	Path             string
	ReadRefreshToken func(context.Context) (string, bool)
	Exchange         Exchange
	SaveTokens       func(ctx context.Context, accessToken, refreshToken string) error
}

type refreshPayload struct {
	RefreshToken string `json:"refreshToken"`
}

// RunRefresh reads the stored refresh token, exchanges it for a new access token and
// persists the result. It never retries.
func RunRefresh(ctx context.Context, deps RefreshDeps) RefreshResult {
	refreshToken, ok := deps.ReadRefreshToken(ctx)
	if !ok || refreshToken == "" {
		return RefreshResult{
			Failure: RefreshFailureMissingToken,
			Err:     errors.New("no refresh token stored"),
		}
	}

	status, body, err := deps.Exchange(ctx, deps.Path, refreshPayload{RefreshToken: refreshToken})
	if err != nil {
		return RefreshResult{
			Failure: RefreshFailureTransport,
			Err:     err,
		}
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		msg := ErrorMessage(body)
		if msg == "" {
			msg = http.StatusText(status)
		}
		return RefreshResult{
			Failure:    RefreshFailureStatus,
			Err:        fmt.Errorf("refresh endpoint returned %d: %s", status, msg),
			StatusCode: status,
		}
	}

	tokens, ok := ParseTokenBody(body)
	if !ok {
		return RefreshResult{
			Failure:    RefreshFailureDecode,
			Err:        errors.New("refresh response is not valid JSON"),
			StatusCode: status,
		}
	}
	if tokens.AccessToken == "" {
		return RefreshResult{
			Failure:    RefreshFailureMissingAccess,
			Err:        errors.New("refresh response has no access token"),
			StatusCode: status,
		}
	}

	nextRefresh := refreshToken
	rotated := tokens.RefreshToken != "" && tokens.RefreshToken != refreshToken
	if tokens.RefreshToken != "" {
		nextRefresh = tokens.RefreshToken
	}

	if err := deps.SaveTokens(ctx, tokens.AccessToken, nextRefresh); err != nil {
		return RefreshResult{
			Failure:    RefreshFailurePersist,
			Err:        err,
			StatusCode: status,
		}
	}

	return RefreshResult{
		Failure:      RefreshFailureNone,
		StatusCode:   status,
		AccessToken:  tokens.AccessToken,
		RefreshToken: nextRefresh,
		Rotated:      rotated,
	}
}
