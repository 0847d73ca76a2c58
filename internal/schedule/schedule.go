package schedule

import "time"

// WrongDelay is how long a card rests after an incorrect answer.
const WrongDelay = time.Hour

// steps maps a card's repetition count to the delay before its next review.
// A count with no entry means the card has graduated.
var steps = [...]time.Duration{
	0,
	12 * time.Hour,
	24 * time.Hour,
	3 * 24 * time.Hour,
	7 * 24 * time.Hour,
	14 * 24 * time.Hour,
	31 * 24 * time.Hour,
}

// NextDue returns when a card that has been answered correctly repeated times
// in a row, most recently at lastRepeated, is due again. It returns nil once
// repeated runs past the step table.
func NextDue(repeated int, lastRepeated time.Time) *time.Time {
	if repeated < 0 || repeated >= len(steps) {
		return nil
	}
	next := lastRepeated.Add(steps[repeated])
	return &next
}

// AfterWrong returns the next review time for a card answered incorrectly at now.
func AfterWrong(now time.Time) time.Time {
	return now.Add(WrongDelay)
}

// Steps returns a copy of the step table, indexed by repetition count.
func Steps() []time.Duration {
	out := make([]time.Duration, len(steps))
	copy(out, steps[:])
	return out
}
