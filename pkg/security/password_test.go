package security_test

import (
	"regexp"
	"testing"

	"github.com/leanai/mumul-backend/pkg/config"
	"github.com/leanai/mumul-backend/pkg/security"
)

func TestHashAndVerifyPassword(t *testing.T) {
	cfg := config.PasswordConfig{
		ArgonMemoryKB:    32768,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}

	hash, err := security.HashPassword("very-secure-password", cfg)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword returned empty string")
	}

	ok, err := security.VerifyPassword("very-secure-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for valid hash: %v", err)
	}
	if !ok {
		t.Fatal("VerifyPassword failed for the correct password")
	}

	ok, err = security.VerifyPassword("bogus-password", hash)
	if err != nil {
		t.Fatalf("VerifyPassword returned error for invalid password: %v", err)
	}
	if ok {
		t.Fatal("VerifyPassword returned true for incorrect password")
	}
}

func TestVerifyPasswordBadHash(t *testing.T) {
	if _, err := security.VerifyPassword("irrelevant", "not-a-hash"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}

func TestGenerateNumericCode(t *testing.T) {
	re := regexp.MustCompile(`^\d{6}$`)
	for i := 0; i < 50; i++ {
		code, err := security.GenerateNumericCode(6)
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !re.MatchString(code) {
			t.Fatalf("unexpected code %q", code)
		}
	}
	if _, err := security.GenerateNumericCode(0); err == nil {
		t.Fatal("expected zero digits to fail")
	}
}

func TestCheckUsername(t *testing.T) {
	cases := map[string]bool{
		"abcd":          true,
		"store01":       true,
		"abcdefghijkl":  true,
		"abc":           false,
		"1abcd":         false,
		"Abcd":          false,
		"abcdefghijklm": false,
		"ab_cd":         false,
	}
	for input, ok := range cases {
		if err := security.CheckUsername(input); (err == nil) != ok {
			t.Fatalf("username %q: expected ok=%v, got err=%v", input, ok, err)
		}
	}
}

func TestCheckPassword(t *testing.T) {
	cases := map[string]bool{
		"abcdefgh":              false,
		"abcdefg1":              true,
		"ABCDEFG!":              true,
		"Ab1!":                  false,
		"abcdefghijklmnopqrs1X": false,
		"abcd efg1":             false,
		"12345678":              false,
		"Password1":             true,
	}
	for input, ok := range cases {
		if err := security.CheckPassword(input); (err == nil) != ok {
			t.Fatalf("password %q: expected ok=%v, got err=%v", input, ok, err)
		}
	}
}
