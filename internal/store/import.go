package store

import (
	"strings"

	"github.com/pomlet/pomlet/internal/domain"
	"github.com/pomlet/pomlet/internal/knol"
	"github.com/pomlet/pomlet/internal/schedule"
)

// Draft is a card waiting to be imported.
type Draft struct {
	Question string
	Subject  string
}

// Import adds every draft that is not blank and not already present (same
// subject and question after normalisation) as a new card, due immediately.
// All new cards are written with a single save. It returns how many were added.
func (s *Store) Import(drafts []Draft) (int, error) {
	known := make(map[string]bool, len(s.cards))
	for _, c := range s.cards {
		known[knol.Hash(c.Subject, c.Question)] = true
	}

	now := s.now()
	var added []*domain.Flashcard
	for _, d := range drafts {
		if strings.TrimSpace(d.Question) == "" {
			continue
		}
		h := knol.Hash(d.Subject, d.Question)
		if known[h] {
			continue
		}
		known[h] = true

		next := schedule.NextDue(0, now)
		if next == nil {
			continue
		}
		added = append(added, &domain.Flashcard{
			ID:           s.nextID + len(added),
			Question:     d.Question,
			Subject:      d.Subject,
			Created:      now,
			LastRepeated: now,
			NextRepeat:   next,
		})
	}
	if len(added) == 0 {
		return 0, nil
	}

	prev, prevID := s.cards, s.nextID
	s.cards = append(s.cards[:len(s.cards):len(s.cards)], added...)
	s.nextID += len(added)
	if err := s.save(); err != nil {
		s.cards, s.nextID = prev, prevID
		return 0, err
	}

	s.queue.Reset()
	s.logger.Info("Imported flashcards", "added", len(added), "skipped", len(drafts)-len(added))
	return len(added), nil
}
