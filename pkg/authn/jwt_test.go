package authn

import (
	"testing"
	"time"
)

func TestGenerateAndParseRoundTrip(t *testing.T) {
	token, err := Generate(7, "admin", true, time.Hour)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	claims, err := Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != 7 || claims.Username != "admin" || !claims.IsAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, err := Generate(1, "admin", false, -time.Minute)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := Parse(token); err != ErrInvalid {
		t.Fatalf("expected ErrInvalid for expired token, got %v", err)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse("not-a-jwt"); err != ErrInvalid {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}
