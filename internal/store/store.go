// Package store owns the flashcard collection. It schedules reviews, serves due
// cards and persists every change before returning.
package store

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/pomlet/pomlet/internal/domain"
	"github.com/pomlet/pomlet/internal/queue"
	"github.com/pomlet/pomlet/internal/schedule"
	"github.com/pomlet/pomlet/internal/storage"
)

// Backup retention used when WithPruning is not given: every DefaultPruneEvery
// saves, all but the DefaultKeepBackups newest backups are deleted.
const (
	DefaultPruneEvery  = 50
	DefaultKeepBackups = 10
)

// Recorder receives a log entry for every successful grading.
type Recorder interface {
	Record(domain.ReviewLog) error
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source for timestamps and due checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithShuffle sets the permutation source of the review queue.
func WithShuffle(shuffle queue.ShuffleFunc) Option {
	return func(s *Store) { s.shuffle = shuffle }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// WithHistory sends grading events to r.
func WithHistory(r Recorder) Option {
	return func(s *Store) { s.history = r }
}

// WithPruning prunes the backups down to keep after every saves.
func WithPruning(every, keep int) Option {
	return func(s *Store) {
		s.pruneEvery = every
		s.keepBackups = keep
	}
}

// Store is the single owner of the flashcard collection.
//
// A Store is not safe for concurrent use. Every method runs to completion,
// including the write to disk, before it returns; callers sharing a Store
// between goroutines must serialise access themselves.
type Store struct {
	backend storage.Backend
	history Recorder
	logger  *slog.Logger
	now     func() time.Time
	shuffle queue.ShuffleFunc

	cards  []*domain.Flashcard
	nextID int
	queue  *queue.Queue

	saves       int
	pruneEvery  int
	keepBackups int
}

// Open loads the collection from backend and prepares the review queue.
func Open(backend storage.Backend, opts ...Option) (*Store, error) {
	s := &Store{
		backend:     backend,
		logger:      slog.Default(),
		now:         time.Now,
		pruneEvery:  DefaultPruneEvery,
		keepBackups: DefaultKeepBackups,
	}
	for _, opt := range opts {
		opt(s)
	}

	c, err := backend.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load flashcards: %w", err)
	}
	s.cards = make([]*domain.Flashcard, 0, len(c.Cards))
	for i := range c.Cards {
		card := c.Cards[i]
		s.cards = append(s.cards, &card)
		s.nextID = max(s.nextID, card.ID+1)
	}
	s.nextID = max(s.nextID, c.NextID)

	qopts := []queue.Option{queue.WithClock(s.now)}
	if s.shuffle != nil {
		qopts = append(qopts, queue.WithShuffle(s.shuffle))
	}
	s.queue = queue.New(func() []*domain.Flashcard { return s.cards }, qopts...)

	s.logger.Debug("Question store opened", "cards", len(s.cards), "next_id", s.nextID)
	return s, nil
}

// Add creates a card that is due immediately and returns a copy of it.
func (s *Store) Add(question, subject string) (domain.Flashcard, error) {
	if strings.TrimSpace(question) == "" {
		return domain.Flashcard{}, fmt.Errorf("%w: question text is empty", ErrValidation)
	}

	now := s.now()
	next := schedule.NextDue(0, now)
	if next == nil {
		return domain.Flashcard{}, fmt.Errorf("%w: no first review interval", ErrValidation)
	}
	card := &domain.Flashcard{
		ID:           s.nextID,
		Question:     question,
		Subject:      subject,
		Created:      now,
		LastRepeated: now,
		Repeated:     0,
		NextRepeat:   next,
	}

	s.cards = append(s.cards, card)
	s.nextID++
	if err := s.save(); err != nil {
		s.cards = s.cards[:len(s.cards)-1]
		s.nextID--
		return domain.Flashcard{}, err
	}

	s.queue.Reset()
	s.logger.Debug("Flashcard added", "id", card.ID, "subject", subject)
	return card.Clone(), nil
}

// GradeCorrect records a correct answer for the card with the given id and
// schedules it further out, or graduates it once it runs past the step table.
// The running queue pass is left alone.
func (s *Store) GradeCorrect(id int) error {
	card, err := s.gradable(id)
	if err != nil {
		return err
	}

	prev := card.Clone()
	now := s.now()
	card.LastRepeated = now
	card.Repeated++
	card.NextRepeat = schedule.NextDue(card.Repeated, now)

	return s.commitGrade(card, prev, domain.Correct)
}

// GradeWrong records an incorrect answer: the repetition count drops to zero
// and the card comes back after schedule.WrongDelay.
func (s *Store) GradeWrong(id int) error {
	card, err := s.gradable(id)
	if err != nil {
		return err
	}

	prev := card.Clone()
	now := s.now()
	next := schedule.AfterWrong(now)
	card.LastRepeated = now
	card.Repeated = 0
	card.NextRepeat = &next

	return s.commitGrade(card, prev, domain.Wrong)
}

func (s *Store) gradable(id int) (*domain.Flashcard, error) {
	card := s.live(id)
	if card == nil {
		return nil, notFound(id)
	}
	if card.Graduated() {
		return nil, fmt.Errorf("flashcard %d: %w", id, ErrGraduated)
	}
	return card, nil
}

func (s *Store) commitGrade(card *domain.Flashcard, prev domain.Flashcard, grade domain.Grade) error {
	if err := s.save(); err != nil {
		*card = prev
		return err
	}

	if card.Graduated() {
		s.logger.Info("Flashcard graduated", "id", card.ID, "repeated", card.Repeated)
	}
	if s.history != nil {
		var next *time.Time
		if card.NextRepeat != nil {
			t := *card.NextRepeat
			next = &t
		}
		err := s.history.Record(domain.ReviewLog{
			CardID:     card.ID,
			Subject:    card.Subject,
			Grade:      grade,
			Repeated:   card.Repeated,
			ReviewedAt: card.LastRepeated,
			NextRepeat: next,
		})
		if err != nil {
			s.logger.Warn("Failed to record review", "id", card.ID, "error", err)
		}
	}
	return nil
}

// Modify replaces the question text of a card. Its schedule is unchanged.
func (s *Store) Modify(id int, question string) error {
	if strings.TrimSpace(question) == "" {
		return fmt.Errorf("%w: question text is empty", ErrValidation)
	}
	card := s.live(id)
	if card == nil {
		return notFound(id)
	}

	prev := card.Question
	card.Question = question
	if err := s.save(); err != nil {
		card.Question = prev
		return err
	}
	return nil
}

// Remove deletes a card for good. Its id is never handed out again.
func (s *Store) Remove(id int) error {
	i := s.index(id)
	if i < 0 {
		return notFound(id)
	}

	prev := s.cards
	s.cards = slices.Delete(slices.Clone(s.cards), i, i+1)
	if err := s.save(); err != nil {
		s.cards = prev
		return err
	}

	s.queue.Reset()
	s.logger.Debug("Flashcard removed", "id", id)
	return nil
}

// RemoveAllBySubject deletes every card of a subject with a single save and
// returns how many were removed.
func (s *Store) RemoveAllBySubject(subject string) (int, error) {
	kept := make([]*domain.Flashcard, 0, len(s.cards))
	for _, c := range s.cards {
		if c.Subject != subject {
			kept = append(kept, c)
		}
	}
	removed := len(s.cards) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	prev := s.cards
	s.cards = kept
	if err := s.save(); err != nil {
		s.cards = prev
		return 0, err
	}

	s.queue.Reset()
	s.logger.Info("Removed subject", "subject", subject, "removed", removed)
	return removed, nil
}

// FindByID returns a copy of the card with the given id.
func (s *Store) FindByID(id int) (domain.Flashcard, bool) {
	card := s.live(id)
	if card == nil {
		return domain.Flashcard{}, false
	}
	return card.Clone(), true
}

// CountDue returns how many cards are due now without disturbing the queue.
func (s *Store) CountDue() int {
	return s.queue.Count()
}

// NextDue returns the next card of the current queue pass, or nil when the
// pass is exhausted. The returned card is the Store's own record: callers read
// it and report the outcome through GradeCorrect or GradeWrong using its ID.
func (s *Store) NextDue() *domain.Flashcard {
	return s.queue.Next()
}

// Reset starts a new queue pass over the cards that are due now.
func (s *Store) Reset() {
	s.queue.Reset()
}

// GroupBySubject returns copies of all cards keyed by subject, in insertion
// order within each subject.
func (s *Store) GroupBySubject() map[string][]domain.Flashcard {
	groups := make(map[string][]domain.Flashcard)
	for _, c := range s.cards {
		groups[c.Subject] = append(groups[c.Subject], c.Clone())
	}
	return groups
}

// Subjects returns every subject in order of first appearance.
func (s *Store) Subjects() []string {
	var subjects []string
	seen := make(map[string]bool)
	for _, c := range s.cards {
		if !seen[c.Subject] {
			seen[c.Subject] = true
			subjects = append(subjects, c.Subject)
		}
	}
	return subjects
}

// All returns copies of every card in insertion order.
func (s *Store) All() []domain.Flashcard {
	out := make([]domain.Flashcard, 0, len(s.cards))
	for _, c := range s.cards {
		out = append(out, c.Clone())
	}
	return out
}

// Len returns the number of cards.
func (s *Store) Len() int { return len(s.cards) }

// PruneBackups applies the backup retention policy now.
func (s *Store) PruneBackups() (int, error) {
	removed, err := s.backend.PruneBackups(s.keepBackups)
	if err != nil {
		return removed, err
	}
	s.saves = 0
	return removed, nil
}

func (s *Store) live(id int) *domain.Flashcard {
	if i := s.index(id); i >= 0 {
		return s.cards[i]
	}
	return nil
}

func (s *Store) index(id int) int {
	return slices.IndexFunc(s.cards, func(c *domain.Flashcard) bool { return c.ID == id })
}

func (s *Store) save() error {
	c := storage.Collection{
		Cards:  make([]domain.Flashcard, 0, len(s.cards)),
		NextID: s.nextID,
	}
	for _, card := range s.cards {
		c.Cards = append(c.Cards, card.Clone())
	}
	if err := s.backend.Save(c); err != nil {
		return fmt.Errorf("failed to save flashcards: %w", err)
	}

	s.saves++
	if s.pruneEvery > 0 && s.saves >= s.pruneEvery {
		if _, err := s.PruneBackups(); err != nil {
			s.logger.Warn("Failed to prune backups", "error", err)
		}
	}
	return nil
}
