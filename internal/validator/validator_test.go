package validator

import (
	"strings"
	"testing"
)

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("user@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, email := range []string{"", "user", "user@", "@example.com", "user example@x.y"} {
		if err := ValidateEmail(email); err != ErrInvalidEmail {
			t.Fatalf("ValidateEmail(%q): expected ErrInvalidEmail, got %v", email, err)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	if err := ValidateUsername("alice_99"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, username := range []string{"ab", "with space", "has-dash", strings.Repeat("a", 31)} {
		if err := ValidateUsername(username); err != ErrInvalidUsername {
			t.Fatalf("ValidateUsername(%q): expected ErrInvalidUsername, got %v", username, err)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("longenough"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidatePassword("short"); err != ErrInvalidPassword {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
}

func TestValidateRoyalty(t *testing.T) {
	for _, pct := range []float64{0, 2.5, 50} {
		if err := ValidateRoyalty(pct); err != nil {
			t.Fatalf("ValidateRoyalty(%v): unexpected error: %v", pct, err)
		}
	}
	for _, pct := range []float64{-1, 50.1, 100} {
		if err := ValidateRoyalty(pct); err != ErrInvalidRoyalty {
			t.Fatalf("ValidateRoyalty(%v): expected ErrInvalidRoyalty, got %v", pct, err)
		}
	}
}
