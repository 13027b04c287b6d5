package utils

import (
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("pw123", 4)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyPassword(hash, "pw123") {
		t.Error("correct password rejected")
	}
	if VerifyPassword(hash, "pw124") {
		t.Error("wrong password accepted")
	}
}

func TestHashPasswordClampsCost(t *testing.T) {
	hash, err := HashPassword("pw123", 99)
	if err != nil {
		t.Fatalf("out-of-range cost should fall back to the default: %v", err)
	}
	if !strings.HasPrefix(hash, "$2a$10$") {
		t.Errorf("hash %q not produced with the default cost", hash)
	}
}

func TestResetToken(t *testing.T) {
	a, err := NewResetToken()
	if err != nil {
		t.Fatal(err)
	}
	b, _ := NewResetToken()
	if len(a) != 2*ResetTokenBytes {
		t.Errorf("token length = %d, want %d", len(a), 2*ResetTokenBytes)
	}
	if a == b {
		t.Error("two tokens are identical")
	}
	if HashToken(a) == a || len(HashToken(a)) != 64 {
		t.Errorf("HashToken(%q) = %q", a, HashToken(a))
	}
	if HashToken(a) != HashToken(a) {
		t.Error("HashToken is not deterministic")
	}
}

func TestAccessToken(t *testing.T) {
	now := time.Now()
	tok, err := NewAccessToken("secret", "alice", "alice@x.com", "citizen", 5, now)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseAccessToken("secret", tok.Token, now)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "alice" || claims.Email != "alice@x.com" || claims.Role != "citizen" {
		t.Errorf("claims = %+v", claims)
	}
	if _, err := ParseAccessToken("other", tok.Token, now); err == nil {
		t.Error("token accepted with the wrong secret")
	}

	expired, _ := NewAccessToken("secret", "alice", "alice@x.com", "citizen", 5, now.Add(-time.Hour))
	if _, err := ParseAccessToken("secret", expired.Token, now); err == nil {
		t.Error("expired token accepted")
	}
}

func TestAccessTokenExpiryUsesGivenClock(t *testing.T) {
	issued := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	tok, err := NewAccessToken("secret", "alice", "alice@x.com", "citizen", 60, issued)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseAccessToken("secret", tok.Token, issued.Add(59*time.Minute)); err != nil {
		t.Errorf("token rejected within its lifetime: %v", err)
	}
	if _, err := ParseAccessToken("secret", tok.Token, issued.Add(61*time.Minute)); err == nil {
		t.Error("token accepted after its lifetime")
	}
}

func TestVerifyDummyPassword(t *testing.T) {
	if VerifyDummyPassword("dummy-password-never-matches", 4) {
		t.Error("dummy comparison reported a match")
	}
	cost, err := bcrypt.Cost(dummyHash(4))
	if err != nil || cost != 4 {
		t.Errorf("dummy hash cost = %d, %v; want the login cost", cost, err)
	}
	if &dummyHash(4)[0] != &dummyHash(4)[0] {
		t.Error("dummy hash is regenerated on every call")
	}
}
