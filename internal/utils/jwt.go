package utils // package utils provides token signing and secret comparison helpers

import (
	"errors" // sentinel errors for token failures
	"time"   // expiry handling

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// ErrInvalidToken is returned for any token that fails signature, method or
// expiry checks.  Callers are not told which check failed.
var ErrInvalidToken = errors.New("invalid token")

// ClientClaims is the payload of a client portal token.  The registered
// expiry claim mirrors the session row's expires_at.
type ClientClaims struct {
	ProjectID   string `json:"projectId"`
	ClientEmail string `json:"clientEmail"`
	SessionID   string `json:"sessionId"`
	jwt.RegisteredClaims
}

// NewClientToken signs an HS256 JWT carrying the project, client email and
// session ID.  issuedAt and expiresAt are taken as given so the token and
// the persisted session agree exactly.
func NewClientToken(secret []byte, projectID, clientEmail, sessionID string, issuedAt, expiresAt time.Time) (string, error) {
	claims := ClientClaims{
		ProjectID:   projectID,
		ClientEmail: clientEmail,
		SessionID:   sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseClientToken verifies raw against secret and returns its claims.  Only
// HS256 is accepted and the exp claim is mandatory.  now is the clock used
// for the expiry check.
func ParseClientToken(secret []byte, raw string, now time.Time) (ClientClaims, error) {
	var claims ClientClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		// Reject anything that is not HMAC before handing out the key.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || !tok.Valid {
		return ClientClaims{}, ErrInvalidToken
	}
	if claims.SessionID == "" || claims.ProjectID == "" {
		return ClientClaims{}, ErrInvalidToken
	}
	return claims, nil
}
