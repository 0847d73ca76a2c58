package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pomlet/pomlet/internal/domain"
	"github.com/pomlet/pomlet/internal/schedule"
)

// naiveLayout matches timestamps written without a zone offset. Fractional
// seconds are accepted when parsing.
const naiveLayout = "2006-01-02T15:04:05"

var validate = validator.New()

// record is the on-disk shape of a flashcard.
type record struct {
	ID           *int    `json:"id" validate:"required"`
	Question     string  `json:"question"`
	Subject      string  `json:"subject"`
	Created      string  `json:"created"`
	LastRepeated string  `json:"last_repeated" validate:"required"`
	Repeated     int     `json:"repeated" validate:"gte=0"`
	NextRepeat   *string `json:"next_repeat"`
}

func toRecord(c domain.Flashcard) record {
	id := c.ID
	r := record{
		ID:           &id,
		Question:     c.Question,
		Subject:      c.Subject,
		Created:      formatTime(c.Created),
		LastRepeated: formatTime(c.LastRepeated),
		Repeated:     c.Repeated,
	}
	if c.NextRepeat != nil {
		next := formatTime(*c.NextRepeat)
		r.NextRepeat = &next
	}
	return r
}

// decodeRecords turns a stored document into flashcards. A record without a
// next_repeat key gets the value the scheduler derives from its repetition
// state, and a record without created falls back to last_repeated. Any other
// defect fails the whole document.
func decodeRecords(data []byte) ([]domain.Flashcard, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}

	cards := make([]domain.Flashcard, 0, len(raw))
	seen := make(map[int]bool, len(raw))
	for i, msg := range raw {
		card, err := decodeRecord(msg)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if seen[card.ID] {
			return nil, fmt.Errorf("record %d: duplicate id %d", i, card.ID)
		}
		seen[card.ID] = true
		cards = append(cards, card)
	}
	return cards, nil
}

func decodeRecord(msg json.RawMessage) (domain.Flashcard, error) {
	var r record
	if err := json.Unmarshal(msg, &r); err != nil {
		return domain.Flashcard{}, err
	}
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(msg, &keys); err != nil {
		return domain.Flashcard{}, err
	}
	if err := validate.Struct(r); err != nil {
		return domain.Flashcard{}, err
	}

	last, err := parseTime(r.LastRepeated)
	if err != nil {
		return domain.Flashcard{}, fmt.Errorf("last_repeated: %w", err)
	}
	created := last
	if r.Created != "" {
		if created, err = parseTime(r.Created); err != nil {
			return domain.Flashcard{}, fmt.Errorf("created: %w", err)
		}
	}

	card := domain.Flashcard{
		ID:           *r.ID,
		Question:     r.Question,
		Subject:      r.Subject,
		Created:      created,
		LastRepeated: last,
		Repeated:     r.Repeated,
	}
	switch _, present := keys["next_repeat"]; {
	case !present:
		card.NextRepeat = schedule.NextDue(card.Repeated, card.LastRepeated)
	case r.NextRepeat != nil:
		next, err := parseTime(*r.NextRepeat)
		if err != nil {
			return domain.Flashcard{}, fmt.Errorf("next_repeat: %w", err)
		}
		card.NextRepeat = &next
	}
	return card, nil
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// parseTime accepts RFC 3339 timestamps and zone-less ISO-8601 timestamps,
// which are read in local time.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(naiveLayout, s, time.Local)
}
