package utils

import (
	"regexp"
	"testing"
)

func TestGenerateInviteCode(t *testing.T) {
	pattern := regexp.MustCompile(`^SPLIT-[A-Z]{3}[0-9]{3}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := GenerateInviteCode()
		if !pattern.MatchString(code) {
			t.Fatalf("invite code %q does not match SPLIT-AAA999 format", code)
		}
		seen[code] = true
	}

	// 17.5M possible codes; 100 draws colliding entirely would mean a broken
	// generator.
	if len(seen) < 2 {
		t.Error("invite code generator returned the same code repeatedly")
	}
}
