package handler

import (
	"time"

	id "redressal/pkg/domain"
	dErrors "redressal/pkg/domain-errors"
)

const (
	defaultTokenTTL = time.Hour
	maxTokenTTL     = 24 * time.Hour
)

// MintTokenRequest is the payload for POST /auth/token.
type MintTokenRequest struct {
	PrincipalID      string `json:"principal_id"`
	ExpiresInSeconds int    `json:"expires_in,omitempty"`

	parsedPrincipalID id.PrincipalID
}

// Validate parses and bounds the request fields.
func (r *MintTokenRequest) Validate() error {
	parsed, err := id.ParsePrincipalID(r.PrincipalID)
	if err != nil {
		return dErrors.New(dErrors.CodeInvalidInput, "invalid principal_id")
	}
	r.parsedPrincipalID = parsed
	if r.ExpiresInSeconds < 0 || time.Duration(r.ExpiresInSeconds)*time.Second > maxTokenTTL {
		return dErrors.Newf(dErrors.CodeInvalidInput, "expires_in must be between 0 and %d seconds", int(maxTokenTTL.Seconds()))
	}
	return nil
}

func (r *MintTokenRequest) ParsedPrincipalID() id.PrincipalID { return r.parsedPrincipalID }

// TTL returns the requested token lifetime, defaulted when absent.
func (r *MintTokenRequest) TTL() time.Duration {
	if r.ExpiresInSeconds == 0 {
		return defaultTokenTTL
	}
	return time.Duration(r.ExpiresInSeconds) * time.Second
}

// MintTokenResponse is the wire shape for a minted token.
type MintTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
