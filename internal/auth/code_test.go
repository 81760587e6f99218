package auth

import "testing"

func TestAccessCodeRoundTrip(t *testing.T) {
	hash, err := HashAccessCode("K7X2PQ")
	if err != nil {
		t.Fatalf("hash access code: %v", err)
	}

	t.Run("exact match verifies", func(t *testing.T) {
		if !VerifyAccessCode(hash, "K7X2PQ") {
			t.Fatal("expected exact code to verify")
		}
	})

	t.Run("lowercase candidate verifies", func(t *testing.T) {
		if !VerifyAccessCode(hash, "k7x2pq") {
			t.Fatal("code comparison must be case-insensitive")
		}
	})

	t.Run("mixed case with whitespace verifies", func(t *testing.T) {
		if !VerifyAccessCode(hash, "  k7X2Pq ") {
			t.Fatal("candidate should be trimmed and uppercased")
		}
	})

	t.Run("wrong code fails", func(t *testing.T) {
		if VerifyAccessCode(hash, "K7X2PX") {
			t.Fatal("wrong code must not verify")
		}
	})

	t.Run("empty candidate fails when code required", func(t *testing.T) {
		if VerifyAccessCode(hash, "") {
			t.Fatal("blank code must not verify against a configured hash")
		}
	})
}

func TestVerifyAccessCodeWithoutHash(t *testing.T) {
	// No configured code means any candidate, including blank, passes.
	if !VerifyAccessCode("", "") {
		t.Fatal("blank candidate must pass without a configured code")
	}
	if !VerifyAccessCode("", "ANYTHING") {
		t.Fatal("any candidate must pass without a configured code")
	}
}

func TestHashAccessCodeRejectsInvalid(t *testing.T) {
	for _, code := range []string{"", "low3r", "HAS SPACE", "BAD-CHARS!"} {
		if _, err := HashAccessCode(code); err == nil {
			t.Fatalf("expected error for code %q", code)
		}
	}
}

func TestAdminPassword(t *testing.T) {
	if _, err := HashAdminPassword("short"); err == nil {
		t.Fatal("expected error for short password")
	}

	hash, err := HashAdminPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hash admin password: %v", err)
	}
	if !VerifyAdminPassword(hash, "correct horse battery") {
		t.Fatal("expected password to verify")
	}
	if VerifyAdminPassword(hash, "Correct Horse Battery") {
		t.Fatal("admin password must be case-sensitive")
	}
	if VerifyAdminPassword("", "anything") {
		t.Fatal("missing hash must deny")
	}
}
