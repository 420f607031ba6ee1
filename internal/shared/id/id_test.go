package id

import (
	"strings"
	"testing"
)

func TestPrefixes(t *testing.T) {
	if !strings.HasPrefix(NewSessionID().String(), SessionPrefix+"_") {
		t.Error("session ID missing prefix")
	}
	if !strings.HasPrefix(NewLeafID().String(), LeafPrefix+"_") {
		t.Error("leaf ID missing prefix")
	}
	if !strings.HasPrefix(NewCardID().String(), CardPrefix+"_") {
		t.Error("card ID missing prefix")
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid(NewSessionID().String()) {
		t.Error("generated session ID should be valid")
	}
	if IsValid("sess_not-a-ulid") {
		t.Error("garbage payload should be invalid")
	}
}

func TestUniqueness(t *testing.T) {
	seen := make(map[SessionID]bool)
	for i := 0; i < 1000; i++ {
		id := NewSessionID()
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true
	}
}
