package core

import (
	"testing"

	"github.com/google/uuid"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id == "" {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestNewRunID tests that run IDs are time-ordered UUIDs
func TestNewRunID(t *testing.T) {
	first, second := NewRunID(), NewRunID()
	for _, id := range []RunID{first, second} {
		parsed, err := uuid.Parse(id.String())
		if err != nil {
			t.Fatalf("Run ID %q is not a UUID: %v", id, err)
		}
		if parsed.Version() != 7 {
			t.Errorf("Expected UUID v7, got v%d", parsed.Version())
		}
	}
	if first.String() >= second.String() {
		t.Errorf("Expected %s to sort before %s", first, second)
	}
}
