package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by id-keyed operations when no card has the id.
	ErrNotFound = errors.New("flashcard not found")
	// ErrValidation is returned when an operation's input is rejected.
	ErrValidation = errors.New("invalid flashcard")
	// ErrGraduated is returned when grading a card that has left the schedule.
	ErrGraduated = fmt.Errorf("%w: flashcard has graduated", ErrValidation)
)

func notFound(id int) error {
	return fmt.Errorf("flashcard %d: %w", id, ErrNotFound)
}
