package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func testManager() *Manager {
	return NewManager(strings.Repeat("s", 32), time.Hour)
}

func TestTokenRoundTrip(t *testing.T) {
	m := testManager()

	token, err := m.IssueToken(7, "mk")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	userID, err := m.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken() error = %v", err)
	}
	if userID != 7 {
		t.Errorf("userID = %d, want 7", userID)
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	m := testManager()

	for _, token := range []string{"", "not.a.token", "aaaa.bbbb.cccc"} {
		if _, err := m.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("VerifyToken(%q) error = %v, want ErrInvalidToken", token, err)
		}
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	token, err := testManager().IssueToken(7, "mk")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}

	other := NewManager(strings.Repeat("x", 32), time.Hour)
	if _, err := other.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyToken() with wrong secret error = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	m := NewManager(strings.Repeat("s", 32), -time.Minute)
	token, err := m.IssueToken(7, "mk")
	if err != nil {
		t.Fatalf("IssueToken() error = %v", err)
	}
	if _, err := m.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyToken() expired error = %v, want ErrInvalidToken", err)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if hash == "hunter22" {
		t.Fatal("hash equals plaintext")
	}
	if !CheckPassword(hash, "hunter22") {
		t.Error("CheckPassword() = false for correct password")
	}
	if CheckPassword(hash, "wrong") {
		t.Error("CheckPassword() = true for wrong password")
	}
}

func TestUserIDContext(t *testing.T) {
	ctx := WithUserID(context.Background(), 7)
	id, ok := UserID(ctx)
	if !ok || id != 7 {
		t.Errorf("UserID() = %d, %v; want 7, true", id, ok)
	}

	if _, ok := UserID(context.Background()); ok {
		t.Error("UserID() on bare context = true, want false")
	}
}
