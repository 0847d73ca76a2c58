package domain

import "time"

// Flashcard is a single study prompt tracked by the review schedule.
type Flashcard struct {
	ID           int
	Question     string
	Subject      string
	Created      time.Time
	LastRepeated time.Time
	Repeated     int
	NextRepeat   *time.Time // nil once the card has graduated
}

// Graduated reports whether the card has left the schedule for good.
func (c *Flashcard) Graduated() bool {
	return c.NextRepeat == nil
}

// DueAt reports whether the card should be reviewed at t.
func (c *Flashcard) DueAt(t time.Time) bool {
	return c.NextRepeat != nil && !c.NextRepeat.After(t)
}

// Clone returns a copy that shares no memory with c.
func (c *Flashcard) Clone() Flashcard {
	out := *c
	if c.NextRepeat != nil {
		next := *c.NextRepeat
		out.NextRepeat = &next
	}
	return out
}

// Grade is the outcome of a single review.
type Grade int

const (
	Wrong   Grade = 0
	Correct Grade = 1
)

func (g Grade) String() string {
	if g == Correct {
		return "correct"
	}
	return "wrong"
}

// ReviewLog records a single grading event for a card.
type ReviewLog struct {
	CardID     int
	Subject    string
	Grade      Grade
	Repeated   int // repetition count after the grading
	ReviewedAt time.Time
	NextRepeat *time.Time
}
