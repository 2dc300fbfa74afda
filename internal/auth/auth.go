// Package auth issues and verifies the bearer tokens and password hashes
// used by the API.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Pair is the token pair handed to a client after login or refresh.
type Pair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Tokens signs access and refresh tokens with separate HS256 secrets so one
// can never be presented as the other.
type Tokens struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokens(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *Tokens {
	return &Tokens{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

// Issue signs a fresh pair for userID.
func (t *Tokens) Issue(userID string) (Pair, error) {
	now := t.now()
	access, err := sign(userID, t.accessSecret, now, t.accessTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("signing access token: %w", err)
	}
	refresh, err := sign(userID, t.refreshSecret, now, t.refreshTTL)
	if err != nil {
		return Pair{}, fmt.Errorf("signing refresh token: %w", err)
	}
	return Pair{AccessToken: access, RefreshToken: refresh, ExpiresAt: now.Add(t.accessTTL)}, nil
}

// ParseAccess returns the user id of a valid access token.
func (t *Tokens) ParseAccess(token string) (string, error) {
	return t.parse(token, t.accessSecret)
}

// ParseRefresh returns the user id of a valid refresh token.
func (t *Tokens) ParseRefresh(token string) (string, error) {
	return t.parse(token, t.refreshSecret)
}

func sign(userID string, secret []byte, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (t *Tokens) parse(token string, secret []byte) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}

// HashToken returns the hex SHA-256 digest under which a refresh token is
// stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Passwords hashes with bcrypt at a configurable cost.
type Passwords struct {
	cost int
}

func NewPasswords(cost int) Passwords {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	return Passwords{cost: cost}
}

func (p Passwords) Hash(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), p.cost)
	return string(b), err
}

func (p Passwords) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
