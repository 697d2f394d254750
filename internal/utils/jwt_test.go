package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/expense-tracker/internal/model"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testUser() *model.User {
	return &model.User{ID: 42, Name: "Steh", Email: "steh@email.com"}
}

func TestTokenService_IssueValidateSubject(t *testing.T) {
	svc := NewTokenService(testSecret)

	token, err := svc.Issue(testUser())
	require.NoError(t, err)

	assert.True(t, svc.Validate(token))
	id, err := svc.SubjectOf(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)
}

func TestTokenService_Claims(t *testing.T) {
	fixed := time.Date(2024, 12, 21, 10, 0, 0, 0, time.UTC)
	svc := NewTokenService(testSecret)
	svc.now = func() time.Time { return fixed }

	token, err := svc.Issue(testUser())
	require.NoError(t, err)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "steh@email.com", claims.Email)
	assert.Equal(t, "Steh", claims.Name)
	assert.Equal(t, fixed, claims.IssuedAt.Time.UTC())
	assert.Equal(t, fixed.Add(TokenLifetime), claims.ExpiresAt.Time.UTC())
}

func TestTokenService_Expired(t *testing.T) {
	issuedAt := time.Now().Add(-25 * time.Hour)
	svc := NewTokenService(testSecret)
	svc.now = func() time.Time { return issuedAt }
	token, err := svc.Issue(testUser())
	require.NoError(t, err)

	svc.now = time.Now
	assert.False(t, svc.Validate(token))
	_, err = svc.SubjectOf(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_WrongKey(t *testing.T) {
	token, err := NewTokenService(testSecret).Issue(testUser())
	require.NoError(t, err)

	other := NewTokenService(strings.Repeat("x", 32))
	assert.False(t, other.Validate(token))
}

func TestTokenService_RejectsMalformed(t *testing.T) {
	svc := NewTokenService(testSecret)
	token, err := svc.Issue(testUser())
	require.NoError(t, err)

	for name, input := range map[string]string{
		"empty":     "",
		"garbage":   "not-a-token",
		"two parts": "abc.def",
		"tampered":  token[:len(token)-2] + "xx",
	} {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() { assert.False(t, svc.Validate(input)) })
		})
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	svc := NewTokenService(testSecret)
	claims := jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.False(t, svc.Validate(none))

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	assert.False(t, svc.Validate(hs512))
}

func TestTokenService_RequiresExpiry(t *testing.T) {
	svc := NewTokenService(testSecret)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "42"}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	assert.False(t, svc.Validate(token))
}

func TestTokenService_SubjectMustBeNumeric(t *testing.T) {
	svc := NewTokenService(testSecret)
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "steh",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = svc.SubjectOf(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
