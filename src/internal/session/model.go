package session

import "context"

// Keys under which a browser session persists its state.
const (
	TokenKey = "token"
	UserKey  = "user"
)

// User is the identity derived from a session token.
type User struct {
	Email  string `json:"email"`
	Role   string `json:"rol"`
	UserID string `json:"usuarioId"`
}

// Store persists string values per browser session. Get reports found=false
// with a nil error when the key is absent.
type Store interface {
	Get(ctx context.Context, sessionID, key string) (value string, found bool, err error)
	Set(ctx context.Context, sessionID, key, value string) error
	Delete(ctx context.Context, sessionID string, keys ...string) error
}
