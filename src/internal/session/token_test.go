package session

import (
	"encoding/base64"
	"testing"

	"sigea-portal-svc/src/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-the-backend-key"))
	require.NoError(t, err)
	return token
}

func TestDecodeTokenMapsClaims(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":       "ana@uni.edu",
		"roles":     []string{"ORGANIZADOR", "PARTICIPANTE"},
		"usuarioId": 17,
	})

	user, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, &User{Email: "ana@uni.edu", Role: "ORGANIZADOR", UserID: "17"}, user)
}

func TestDecodeTokenStringUserID(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":       "luis@uni.edu",
		"roles":     []string{"ADMIN"},
		"usuarioId": "b6f1",
	})

	user, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "b6f1", user.UserID)
	assert.Equal(t, "ADMIN", user.Role)
}

func TestDecodeTokenWithoutRoles(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "sin-rol@uni.edu"})

	user, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "sin-rol@uni.edu", user.Email)
	assert.Empty(t, user.Role)
	assert.Empty(t, user.UserID)
}

func TestDecodeTokenIgnoresExpiry(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "old@uni.edu", "exp": 1})

	user, err := DecodeToken(token)
	require.NoError(t, err)
	assert.Equal(t, "old@uni.edu", user.Email)
}

func TestDecodeTokenIgnoresHeader(t *testing.T) {
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"eva@uni.edu","roles":["ADMIN"],"usuarioId":9}`))

	for _, header := range []string{`{"typ":"JWT"}`, `{"alg":"RS512X","typ":"JWT"}`, `{}`} {
		token := base64.RawURLEncoding.EncodeToString([]byte(header)) + "." + payload + ".sig"

		user, err := DecodeToken(token)
		require.NoError(t, err, header)
		assert.Equal(t, &User{Email: "eva@uni.edu", Role: "ADMIN", UserID: "9"}, user, header)
	}
}

func TestDecodeTokenMalformed(t *testing.T) {
	for _, token := range []string{
		"not-a-token",
		"eyJhbGciOiJIUzI1NiJ9.%%%.sig",
		"eyJhbGciOiJIUzI1NiJ9.bm90IGpzb24.sig",
		"eyJhbGciOiJIUzI1NiJ9.e30",
	} {
		user, err := DecodeToken(token)
		assert.Nil(t, user, token)
		assert.ErrorIs(t, err, models.ErrTokenMalformed, token)
	}
}
