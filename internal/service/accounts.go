package service

import (
	"context"
	"errors"
	"strings"

	"github.com/nightcity/redsheet/internal/apperr"
	"github.com/nightcity/redsheet/internal/auth"
	"github.com/nightcity/redsheet/internal/redsheet"
	"github.com/nightcity/redsheet/internal/store"
)

type UserStore interface {
	CreateUser(ctx context.Context, u redsheet.User, passwordHash string) error
	GetUser(ctx context.Context, id string) (redsheet.User, error)
	UserCredentials(ctx context.Context, email string) (redsheet.User, string, error)
	SetRefreshHash(ctx context.Context, userID, hash string) error
	UserByRefreshHash(ctx context.Context, hash string) (redsheet.User, error)
}

// Session is what a client receives after register, login or refresh.
type Session struct {
	auth.Pair
	User redsheet.User `json:"user"`
}

var errBadCredentials = apperr.New(apperr.CodeInvalidCredentials, "invalid email or password")

// Accounts registers users and manages their token sessions.
type Accounts struct {
	store     UserStore
	tokens    *auth.Tokens
	passwords auth.Passwords
	env
}

func NewAccounts(s UserStore, tokens *auth.Tokens, passwords auth.Passwords) *Accounts {
	return &Accounts{store: s, tokens: tokens, passwords: passwords, env: defaultEnv()}
}

func (s *Accounts) Register(ctx context.Context, r redsheet.Registration) (Session, error) {
	r.Email = redsheet.NormalizeEmail(r.Email)
	if err := r.Validate(); err != nil {
		return Session{}, err
	}
	hash, err := s.passwords.Hash(r.Password)
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	u := redsheet.User{
		ID:        s.newID(),
		Email:     r.Email,
		Username:  strings.TrimSpace(r.Username),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateUser(ctx, u, hash); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return Session{}, apperr.New(apperr.CodeEmailTaken, "email is already registered")
		}
		return Session{}, translate(err, "user")
	}
	return s.open(ctx, u)
}

func (s *Accounts) Login(ctx context.Context, email, password string) (Session, error) {
	u, hash, err := s.store.UserCredentials(ctx, redsheet.NormalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, errBadCredentials
	}
	if err != nil {
		return Session{}, translate(err, "user")
	}
	if !s.passwords.Verify(hash, password) {
		return Session{}, errBadCredentials
	}
	return s.open(ctx, u)
}

// Refresh exchanges the user's current refresh token for a new pair. The old
// token stops working.
func (s *Accounts) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	userID, err := s.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return Session{}, unauthenticated("invalid refresh token")
	}
	u, err := s.store.UserByRefreshHash(ctx, auth.HashToken(refreshToken))
	if errors.Is(err, store.ErrNotFound) || (err == nil && u.ID != userID) {
		return Session{}, unauthenticated("refresh token was revoked")
	}
	if err != nil {
		return Session{}, translate(err, "user")
	}
	return s.open(ctx, u)
}

// Logout revokes the user's refresh token.
func (s *Accounts) Logout(ctx context.Context, userID string) error {
	return translate(s.store.SetRefreshHash(ctx, userID, ""), "user")
}

func (s *Accounts) Me(ctx context.Context, userID string) (redsheet.User, error) {
	u, err := s.store.GetUser(ctx, userID)
	return u, translate(err, "user")
}

// Authenticate resolves an access token to its user id.
func (s *Accounts) Authenticate(token string) (string, error) {
	userID, err := s.tokens.ParseAccess(token)
	if err != nil {
		return "", unauthenticated("invalid or expired access token")
	}
	return userID, nil
}

func (s *Accounts) open(ctx context.Context, u redsheet.User) (Session, error) {
	pair, err := s.tokens.Issue(u.ID)
	if err != nil {
		return Session{}, err
	}
	if err := s.store.SetRefreshHash(ctx, u.ID, auth.HashToken(pair.RefreshToken)); err != nil {
		return Session{}, translate(err, "user")
	}
	return Session{Pair: pair, User: u}, nil
}

func unauthenticated(msg string) error {
	return apperr.New(apperr.CodeUnauthenticated, msg)
}
