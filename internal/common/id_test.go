package common

import "testing"

func TestValidUUID(t *testing.T) {
	if !ValidUUID(NewUUID()) {
		t.Fatalf("freshly generated uuid rejected")
	}

	bad := []string{
		"",
		"not-a-uuid",
		"123e4567-e89b-12d3-a456-426614174000", // v1
		"'; DROP TABLE chat_sessions;--",
		"123e4567e89b42d3a456426614174000zzzz",
	}
	for _, s := range bad {
		if ValidUUID(s) {
			t.Fatalf("accepted %q", s)
		}
	}
}

func TestNewULID_SortableLength(t *testing.T) {
	id, err := NewULID()
	if err != nil {
		t.Fatalf("new ulid: %v", err)
	}
	if len(id) != 26 {
		t.Fatalf("ulid length: %d", len(id))
	}
}
