package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/engagements/internal/model"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, tokenClaims jwt.Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestParseValidToken(t *testing.T) {
	parser := NewParser(testSecret)
	userID := uuid.New()
	orgID := uuid.New()

	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": userID.String(),
		"org_id":  orgID.String(),
		"role":    "provider",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})

	principal, err := parser.Parse(token)
	require.NoError(t, err)
	require.Equal(t, userID, principal.UserID)
	require.Equal(t, orgID, principal.OrgID)
	require.Equal(t, model.RoleProvider, principal.Role)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	parser := NewParser(testSecret)

	token := signToken(t, "other-secret", jwt.MapClaims{
		"user_id": uuid.NewString(),
		"org_id":  uuid.NewString(),
		"role":    "seeker",
	})

	_, err := parser.Parse(token)
	require.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	parser := NewParser(testSecret)

	token := signToken(t, testSecret, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"org_id":  uuid.NewString(),
		"role":    "seeker",
		"exp":     time.Now().Add(-time.Minute).Unix(),
	})

	_, err := parser.Parse(token)
	require.Error(t, err)
}

func TestParseRejectsBadClaims(t *testing.T) {
	parser := NewParser(testSecret)

	for name, tokenClaims := range map[string]jwt.MapClaims{
		"missing user id": {"org_id": uuid.NewString(), "role": "seeker"},
		"malformed org":   {"user_id": uuid.NewString(), "org_id": "not-a-uuid", "role": "seeker"},
		"unknown role":    {"user_id": uuid.NewString(), "org_id": uuid.NewString(), "role": "auditor"},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parser.Parse(signToken(t, testSecret, tokenClaims))
			require.Error(t, err)
		})
	}
}
