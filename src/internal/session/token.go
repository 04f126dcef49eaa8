package session

import (
	"encoding/json"
	"fmt"
	"strings"

	"sigea-portal-svc/src/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of a SIGEA session token.
type Claims struct {
	Roles     []string  `json:"roles"`
	UsuarioID models.ID `json:"usuarioId"`
	jwt.RegisteredClaims
}

// DecodeToken reads the claims segment of token without verifying the
// signature; the backend verifies tokens on every call. The header is not
// inspected. It maps sub to Email, roles[0] to Role and usuarioId to UserID.
func DecodeToken(token string) (*User, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: token contains %d segments", models.ErrTokenMalformed, len(parts))
	}

	payload, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrTokenMalformed, err)
	}

	claims := &Claims{}
	if err := json.Unmarshal(payload, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrTokenMalformed, err)
	}

	user := &User{
		Email:  claims.Subject,
		UserID: claims.UsuarioID.String(),
	}
	if len(claims.Roles) > 0 {
		user.Role = claims.Roles[0]
	}

	return user, nil
}

func encodeUser(user *User) (string, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeUser(raw string) (*User, error) {
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, err
	}
	return &user, nil
}
