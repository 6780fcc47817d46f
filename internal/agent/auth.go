package agent

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier checks the bearer token an agent presents in its
// identify message against an opaque-token scheme: it is not
// responsible for end-user authentication beyond checking the token
// against an agent registry lookup. The token's subject claim must
// equal the agent_id the agent declared in its identify message;
// nothing more is asserted here, the actual profile lookup goes
// through Registry.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

var (
	ErrTokenInvalid    = errors.New("agent: bearer token invalid")
	ErrSubjectMismatch = errors.New("agent: token subject does not match declared agent id")
)

// Verify parses and validates apiKey as an HMAC-signed JWT and checks
// its subject claim against agentID.
func (v *TokenVerifier) Verify(apiKey, agentID string) error {
	token, err := jwt.Parse(apiKey, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return ErrTokenInvalid
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return ErrTokenInvalid
	}
	if subject != agentID {
		return ErrSubjectMismatch
	}
	return nil
}
