package auth

import (
	"testing"
	"time"
)

func TestAdminTokenRoundTrip(t *testing.T) {
	now := time.Now()

	token, err := IssueAdminToken("secret", time.Hour, now)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if err := VerifyAdminToken("secret", token); err != nil {
		t.Fatalf("verify token: %v", err)
	}

	t.Run("wrong secret rejected", func(t *testing.T) {
		if err := VerifyAdminToken("other-secret", token); err == nil {
			t.Fatal("expected verification failure with wrong secret")
		}
	})

	t.Run("garbage rejected", func(t *testing.T) {
		if err := VerifyAdminToken("secret", "not.a.jwt"); err == nil {
			t.Fatal("expected verification failure for garbage token")
		}
	})
}

func TestAdminTokenExpiry(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	token, err := IssueAdminToken("secret", time.Hour, issued)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if err := VerifyAdminToken("secret", token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestIssueAdminTokenRequiresSecret(t *testing.T) {
	if _, err := IssueAdminToken("", time.Hour, time.Now()); err == nil {
		t.Fatal("expected error without a secret")
	}
}
