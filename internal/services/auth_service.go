package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

type AuthService struct {
	Users *repos.UserRepo
	Cost  int

	dummyOnce sync.Once
	dummy     []byte
}

func NewAuthService(users *repos.UserRepo, cost int) *AuthService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{Users: users, Cost: cost}
}

// Register creates an account. The password is stored only as a bcrypt hash.
func (s *AuthService) Register(ctx context.Context, username, password string, isAdmin bool) (*domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrInvalidInput
	}
	if _, err := s.Users.ByUsername(ctx, username); err == nil {
		return nil, domain.ErrDuplicateUsername
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.Cost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{ID: uuid.NewString(), Username: username, Hash: string(hash), IsAdmin: isAdmin}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Authenticate checks credentials. Unknown users still pay for one bcrypt
// comparison so response time does not reveal which usernames exist.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.Users.ByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash(), []byte(password))
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return u, nil
}

func (s *AuthService) dummyHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummy, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.Cost)
	})
	return s.dummy
}

func (s *AuthService) Login(ctx context.Context, sid, username, password string) (*domain.User, error) {
	u, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	return s.Users.SessionUser(ctx, sid)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.Users.List(ctx)
}
