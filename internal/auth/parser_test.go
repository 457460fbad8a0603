package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestParse(t *testing.T) {
	parser := NewParser(testSecret)
	userID := uuid.New()
	schoolID := uuid.New()

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":       userID.String(),
		"school_id": schoolID.String(),
		"role":      "STAFF",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})

	principal, err := parser.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, userID, principal.UserID)
	require.NotNil(t, principal.SchoolID)
	assert.Equal(t, schoolID, *principal.SchoolID)
	assert.False(t, principal.IsAdmin())
}

func TestParseAdminWithoutSchool(t *testing.T) {
	parser := NewParser(testSecret)
	userID := uuid.New()

	token := signToken(t, testSecret, jwt.MapClaims{
		"sub":  userID.String(),
		"role": "ADMIN",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	principal, err := parser.Parse(token)
	require.NoError(t, err)
	assert.Nil(t, principal.SchoolID)
	assert.True(t, principal.IsAdmin())
}

func TestParseRejectsBadTokens(t *testing.T) {
	parser := NewParser(testSecret)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{
			name: "wrong secret",
			token: signToken(t, "other-secret", jwt.MapClaims{
				"sub":  uuid.NewString(),
				"role": "ADMIN",
				"exp":  time.Now().Add(time.Hour).Unix(),
			}),
		},
		{
			name: "expired",
			token: signToken(t, testSecret, jwt.MapClaims{
				"sub":  uuid.NewString(),
				"role": "ADMIN",
				"exp":  time.Now().Add(-time.Hour).Unix(),
			}),
		},
		{
			name: "bad subject",
			token: signToken(t, testSecret, jwt.MapClaims{
				"sub":  "42",
				"role": "ADMIN",
				"exp":  time.Now().Add(time.Hour).Unix(),
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.token)
			require.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
