package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pomlet/pomlet/internal/domain"
)

var t0 = time.Date(2025, 5, 10, 8, 0, 0, 0, time.UTC)

func at(t time.Time) *time.Time { return &t }

func noShuffle(int, func(i, j int)) {}

func reverse(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}

func fixture() []*domain.Flashcard {
	return []*domain.Flashcard{
		{ID: 0, Question: "past", NextRepeat: at(t0.Add(-time.Hour))},
		{ID: 1, Question: "now", NextRepeat: at(t0)},
		{ID: 2, Question: "future", NextRepeat: at(t0.Add(time.Minute))},
		{ID: 3, Question: "graduated", NextRepeat: nil},
		{ID: 4, Question: "long ago", NextRepeat: at(t0.Add(-72 * time.Hour))},
	}
}

func drain(q *Queue) []int {
	var ids []int
	for c := q.Next(); c != nil; c = q.Next() {
		ids = append(ids, c.ID)
	}
	return ids
}

func TestNextYieldsOnlyDueCards(t *testing.T) {
	cards := fixture()
	q := New(func() []*domain.Flashcard { return cards },
		WithClock(func() time.Time { return t0 }),
		WithShuffle(noShuffle),
	)

	assert.Equal(t, []int{0, 1, 4}, drain(q))
}

func TestNextAfterExhaustionKeepsReturningNil(t *testing.T) {
	cards := fixture()
	q := New(func() []*domain.Flashcard { return cards },
		WithClock(func() time.Time { return t0 }),
		WithShuffle(noShuffle),
	)
	drain(q)

	assert.Nil(t, q.Next())
	assert.Nil(t, q.Next())
	assert.Equal(t, 0, q.Remaining())

	q.Reset()
	assert.Len(t, drain(q), 3)
}

func TestShuffleIsApplied(t *testing.T) {
	cards := fixture()
	q := New(func() []*domain.Flashcard { return cards },
		WithClock(func() time.Time { return t0 }),
		WithShuffle(reverse),
	)

	assert.Equal(t, []int{4, 1, 0}, drain(q))
}

func TestCountDoesNotMoveCursor(t *testing.T) {
	cards := fixture()
	q := New(func() []*domain.Flashcard { return cards },
		WithClock(func() time.Time { return t0 }),
		WithShuffle(noShuffle),
	)

	first := q.Next()
	require.NotNil(t, first)
	assert.Equal(t, 3, q.Count())
	assert.Equal(t, 3, q.Count())
	assert.Equal(t, 2, q.Remaining())

	second := q.Next()
	require.NotNil(t, second)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestCountUsesCurrentTime(t *testing.T) {
	cards := fixture()
	now := t0
	q := New(func() []*domain.Flashcard { return cards },
		WithClock(func() time.Time { return now }),
		WithShuffle(noShuffle),
	)
	require.Equal(t, 3, q.Count())

	now = t0.Add(time.Minute)
	assert.Equal(t, 4, q.Count())
	// the pass built at t0 is unchanged until Reset
	assert.Equal(t, []int{0, 1, 4}, drain(q))
}

func TestNextSkipsCardsThatStoppedBeingDue(t *testing.T) {
	cards := fixture()
	q := New(func() []*domain.Flashcard { return cards },
		WithClock(func() time.Time { return t0 }),
		WithShuffle(noShuffle),
	)

	cards[1].NextRepeat = at(t0.Add(12 * time.Hour))
	cards[4].NextRepeat = nil

	assert.Equal(t, []int{0}, drain(q))
}

func TestResetPicksUpNewCards(t *testing.T) {
	cards := fixture()
	q := New(func() []*domain.Flashcard { return cards },
		WithClock(func() time.Time { return t0 }),
		WithShuffle(noShuffle),
	)

	cards = append(cards, &domain.Flashcard{ID: 5, NextRepeat: at(t0)})
	assert.Len(t, drain(q), 3)

	q.Reset()
	assert.Equal(t, []int{0, 1, 4, 5}, drain(q))
}

func TestEmptySource(t *testing.T) {
	q := New(func() []*domain.Flashcard { return nil })

	assert.Nil(t, q.Next())
	assert.Equal(t, 0, q.Count())
}
