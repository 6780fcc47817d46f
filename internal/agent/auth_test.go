package agent

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "arena-test-secret"

func signToken(t *testing.T, subject, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": subject})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestVerify_AcceptsMatchingSubject(t *testing.T) {
	v := NewTokenVerifier(testSecret)
	assert.NoError(t, v.Verify(signToken(t, "a1", testSecret), "a1"))
}

func TestVerify_RejectsSubjectMismatch(t *testing.T) {
	v := NewTokenVerifier(testSecret)
	err := v.Verify(signToken(t, "a1", testSecret), "a2")
	assert.ErrorIs(t, err, ErrSubjectMismatch)
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	v := NewTokenVerifier(testSecret)
	err := v.Verify(signToken(t, "a1", "some-other-secret"), "a1")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestVerify_RejectsGarbage(t *testing.T) {
	v := NewTokenVerifier(testSecret)
	assert.ErrorIs(t, v.Verify("not-a-jwt", "a1"), ErrTokenInvalid)
}
