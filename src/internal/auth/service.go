package auth

import (
	"context"
	"fmt"

	"sigea-portal-svc/src/internal/session"
)

// Backend is the login call of the SIGEA client.
type Backend interface {
	Login(ctx context.Context, email, password string) (string, error)
}

type Service interface {
	Login(ctx context.Context, manager *session.Manager, email, password string) (*session.User, error)
	Logout(ctx context.Context, manager *session.Manager) error
}

type authService struct {
	backend Backend
}

func NewService(backend Backend) Service {
	return &authService{backend: backend}
}

// Login exchanges credentials for a token and persists it in the browser
// session.
func (s *authService) Login(ctx context.Context, manager *session.Manager, email, password string) (*session.User, error) {
	token, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user, err := manager.Login(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to establish session: %w", err)
	}
	return user, nil
}

func (s *authService) Logout(ctx context.Context, manager *session.Manager) error {
	return manager.Logout(ctx)
}
