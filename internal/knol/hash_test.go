package knol

import (
	"crypto/sha256"
	"fmt"
	"testing"
)

func TestNormalize(t *testing.T) {
	normalized := Normalize("  Calculus ", "  What is a \r\n LIMIT? ")
	want := "calculus\nwhat is a limit?"
	if normalized != want {
		t.Errorf("Expected normalized string to be '%s', but got '%s'", want, normalized)
	}
}

func TestHash(t *testing.T) {
	t.Run("generates correct hash", func(t *testing.T) {
		expectedHash := fmt.Sprintf("%x", sha256.Sum256([]byte("s\nq")))
		hash := Hash("S", "Q")

		if hash != expectedHash {
			t.Errorf("Expected hash '%s', but got '%s'", expectedHash, hash)
		}
	})

	t.Run("hash is deterministic", func(t *testing.T) {
		if Hash("Math", "Test") != Hash("Math", "Test") {
			t.Error("Expected hashes for identical cards to be the same")
		}
	})

	t.Run("normalization produces same hash", func(t *testing.T) {
		if Hash("math", "  what is go? ") != Hash("Math", "What Is  Go?") {
			t.Error("Expected hashes to be the same after normalization, but they were different.")
		}
	})

	t.Run("subject is part of the identity", func(t *testing.T) {
		if Hash("Math", "Card") == Hash("Physics", "Card") {
			t.Error("Expected the same question in different subjects to hash differently")
		}
	})

	t.Run("parts cannot bleed into each other", func(t *testing.T) {
		if Hash("a b", "c") == Hash("a", "b c") {
			t.Error("Expected subject and question boundaries to be preserved")
		}
	})
}
