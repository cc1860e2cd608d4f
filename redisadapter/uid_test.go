package redisadapter

import "testing"

func TestNewUIDLengthAndAlphabet(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		uid := newUID()
		if len(uid) != uidLength {
			t.Fatalf("len(newUID()) = %d, want %d", len(uid), uidLength)
		}
		for _, r := range uid {
			if !contains(uidAlphabet, r) {
				t.Fatalf("newUID() contains char %q outside uidAlphabet", r)
			}
		}
		seen[uid] = true
	}
	// Collisions across 200 draws from a 62^6 space would indicate a broken
	// generator, not bad luck.
	if len(seen) < 195 {
		t.Fatalf("too many collisions among 200 UIDs: only %d unique", len(seen))
	}
}

func contains(s string, r rune) bool {
	for _, c := range s {
		if c == r {
			return true
		}
	}
	return false
}
