package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/horario-api/internal/models"
	appErrors "github.com/noah-isme/horario-api/pkg/errors"
)

func signToken(t *testing.T, method jwt.SigningMethod, secret interface{}, claims models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func validClaims(role models.UserRole) models.JWTClaims {
	return models.JWTClaims{
		UserID: "user-1",
		Role:   role,
		Email:  "coord@colegio.test",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "horario",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestAuthServiceValidateToken(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "horario"})

	claims, err := svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, []byte("secret"), validClaims(models.RoleCoordinator)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleCoordinator, claims.Role)
}

func TestAuthServiceRejectsInvalidTokens(t *testing.T) {
	svc := NewAuthService(nil, AuthConfig{AccessTokenSecret: "secret", Issuer: "horario"})

	expired := validClaims(models.RoleAdmin)
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))

	otherIssuer := validClaims(models.RoleAdmin)
	otherIssuer.Issuer = "someone-else"

	cases := map[string]string{
		"wrong secret": signToken(t, jwt.SigningMethodHS256, []byte("other"), validClaims(models.RoleAdmin)),
		"wrong method": signToken(t, jwt.SigningMethodHS384, []byte("secret"), validClaims(models.RoleAdmin)),
		"expired":      signToken(t, jwt.SigningMethodHS256, []byte("secret"), expired),
		"issuer":       signToken(t, jwt.SigningMethodHS256, []byte("secret"), otherIssuer),
		"no role":      signToken(t, jwt.SigningMethodHS256, []byte("secret"), validClaims("")),
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
		})
	}
}
