package security_test

import (
	"strings"
	"testing"

	"github.com/Umar7799/task4safety/internal/security"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := security.HashPassword("pw123")

	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if hash == "pw123" {
		t.Fatalf("hash must not equal the plaintext")
	}

	// bcrypt hashes are salted, so the prefix is stable but the rest is not
	if !strings.HasPrefix(hash, "$2") {
		t.Fatalf("expected a bcrypt hash, got %q", hash)
	}

	if err := security.CheckPassword(hash, "pw123"); err != nil {
		t.Fatalf("check with correct password: %v", err)
	}

	if err := security.CheckPassword(hash, "wrong"); err == nil {
		t.Fatalf("expected wrong password to fail")
	}
}

func TestHashesAreSalted(t *testing.T) {
	h1, err := security.HashPassword("pw123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	h2, err := security.HashPassword("pw123")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	if h1 == h2 {
		t.Fatalf("two hashes of the same password should differ")
	}
}
