package auth

import "testing"

func TestServiceBasic(t *testing.T) {
	s := New([]int64{10, 20})
	if !s.IsAllowed(10) || !s.IsAllowed(20) {
		t.Fatal("configured users must be allowed")
	}
	if s.IsAllowed(30) {
		t.Fatal("unknown user must be rejected")
	}
}

func TestServiceEmptyAllowsEveryone(t *testing.T) {
	s := New(nil)
	if !s.IsAllowed(12345) {
		t.Fatal("empty allowlist must admit everyone")
	}
}
