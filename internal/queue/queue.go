// Package queue presents the cards that are due for review in a random order.
//
// A Queue never owns cards. It holds pointers into a collection supplied by its
// source function and rebuilds its view from that source on every Reset.
package queue

import (
	"math/rand/v2"
	"time"

	"github.com/pomlet/pomlet/internal/domain"
)

// ShuffleFunc permutes n elements by calling swap, with the same contract as
// rand.Shuffle.
type ShuffleFunc func(n int, swap func(i, j int))

// Option configures a Queue.
type Option func(*Queue)

// WithClock sets the time source used to decide which cards are due.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// WithShuffle sets the permutation source used on every Reset.
func WithShuffle(shuffle ShuffleFunc) Option {
	return func(q *Queue) { q.shuffle = shuffle }
}

// Queue is a single pass over the due cards. It is not safe for concurrent use.
type Queue struct {
	source  func() []*domain.Flashcard
	now     func() time.Time
	shuffle ShuffleFunc

	due     []*domain.Flashcard
	pos     int
	builtAt time.Time
}

// New builds a queue over the cards returned by source.
func New(source func() []*domain.Flashcard, opts ...Option) *Queue {
	q := &Queue{
		source:  source,
		now:     time.Now,
		shuffle: rand.Shuffle,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.Reset()
	return q
}

// Reset recomputes the due set, shuffles it and rewinds the cursor.
func (q *Queue) Reset() {
	q.builtAt = q.now()
	q.due = dueAt(q.source(), q.builtAt)
	q.shuffle(len(q.due), func(i, j int) {
		q.due[i], q.due[j] = q.due[j], q.due[i]
	})
	q.pos = 0
}

// Next returns the next due card, or nil once the pass is exhausted. Cards that
// stopped being due after the last Reset are skipped.
func (q *Queue) Next() *domain.Flashcard {
	for q.pos < len(q.due) {
		card := q.due[q.pos]
		q.pos++
		if card.DueAt(q.builtAt) {
			return card
		}
	}
	return nil
}

// Count returns how many cards are due right now. It does not move the cursor.
func (q *Queue) Count() int {
	return len(dueAt(q.source(), q.now()))
}

// Remaining returns how many cards are left in the current pass, including any
// that will be skipped.
func (q *Queue) Remaining() int {
	return len(q.due) - q.pos
}

func dueAt(cards []*domain.Flashcard, t time.Time) []*domain.Flashcard {
	var due []*domain.Flashcard
	for _, c := range cards {
		if c.DueAt(t) {
			due = append(due, c)
		}
	}
	return due
}
