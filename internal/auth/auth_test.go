package auth

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func testTokens(now time.Time) *Tokens {
	t := NewTokens("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
	t.now = func() time.Time { return now }
	return t
}

func TestIssueAndParse(t *testing.T) {
	now := time.Now()
	tokens := testTokens(now)

	pair, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if !pair.ExpiresAt.Equal(now.Add(15 * time.Minute)) {
		t.Errorf("ExpiresAt = %v, want %v", pair.ExpiresAt, now.Add(15*time.Minute))
	}

	uid, err := tokens.ParseAccess(pair.AccessToken)
	if err != nil || uid != "user-1" {
		t.Errorf("ParseAccess() = (%q, %v), want user-1", uid, err)
	}
	uid, err = tokens.ParseRefresh(pair.RefreshToken)
	if err != nil || uid != "user-1" {
		t.Errorf("ParseRefresh() = (%q, %v), want user-1", uid, err)
	}
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	tokens := testTokens(time.Now())
	pair, err := tokens.Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	if _, err := tokens.ParseAccess(pair.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("refresh as access err = %v, want ErrInvalidToken", err)
	}
	if _, err := tokens.ParseRefresh(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("access as refresh err = %v, want ErrInvalidToken", err)
	}
}

func TestExpiredToken(t *testing.T) {
	issued := time.Now()
	pair, err := testTokens(issued).Issue("user-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	later := testTokens(issued.Add(16 * time.Minute))
	if _, err := later.ParseAccess(pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired access err = %v, want ErrInvalidToken", err)
	}
	if _, err := later.ParseRefresh(pair.RefreshToken); err != nil {
		t.Errorf("refresh still valid, got %v", err)
	}
}

func TestIssueIsUnique(t *testing.T) {
	tokens := testTokens(time.Now())
	a, _ := tokens.Issue("user-1")
	b, _ := tokens.Issue("user-1")
	if a.RefreshToken == b.RefreshToken {
		t.Error("two refresh tokens issued in the same instant are equal")
	}
	if HashToken(a.RefreshToken) == HashToken(b.RefreshToken) {
		t.Error("distinct tokens hash equal")
	}
}

func TestParseGarbage(t *testing.T) {
	tokens := testTokens(time.Now())
	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := tokens.ParseAccess(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("ParseAccess(%q) err = %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestPasswords(t *testing.T) {
	p := NewPasswords(bcrypt.MinCost)
	hash, err := p.Hash("choombatta")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	tests := []struct {
		name     string
		hash     string
		password string
		want     bool
	}{
		{"correct password", hash, "choombatta", true},
		{"wrong password", hash, "wrongpassword", false},
		{"empty password", hash, "", false},
		{"invalid hash", "invalidhash", "choombatta", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Verify(tt.hash, tt.password); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewPasswordsLowCostFallsBack(t *testing.T) {
	if p := NewPasswords(0); p.cost != bcrypt.DefaultCost {
		t.Errorf("cost = %d, want %d", p.cost, bcrypt.DefaultCost)
	}
}
