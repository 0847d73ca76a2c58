package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pomlet/pomlet/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB records grading events in a sqlite database.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Record stores a single grading event. Times are stored in UTC without a
// monotonic reading so that they sort as text.
func (db *DB) Record(log domain.ReviewLog) error {
	var next sql.NullTime
	if log.NextRepeat != nil {
		next = sql.NullTime{Time: log.NextRepeat.Round(0).UTC(), Valid: true}
	}
	_, err := db.conn.Exec(`
		INSERT INTO reviews (card_id, subject, grade, repeated, reviewed_at, next_repeat)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		log.CardID,
		log.Subject,
		int(log.Grade),
		log.Repeated,
		log.ReviewedAt.Round(0).UTC(),
		next,
	)
	if err != nil {
		return fmt.Errorf("failed to record review for card %d: %w", log.CardID, err)
	}
	return nil
}

// ReviewsForCard returns the grading events for a card, oldest first.
func (db *DB) ReviewsForCard(cardID int) ([]domain.ReviewLog, error) {
	rows, err := db.conn.Query(`
		SELECT card_id, subject, grade, repeated, reviewed_at, next_repeat
		FROM reviews WHERE card_id = ?
		ORDER BY reviewed_at, id
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("failed to get reviews for card %d: %w", cardID, err)
	}
	defer rows.Close()

	var logs []domain.ReviewLog
	for rows.Next() {
		var (
			l     domain.ReviewLog
			grade int
			next  sql.NullTime
		)
		if err := rows.Scan(&l.CardID, &l.Subject, &grade, &l.Repeated, &l.ReviewedAt, &next); err != nil {
			return nil, fmt.Errorf("failed to scan review row for card %d: %w", cardID, err)
		}
		l.Grade = domain.Grade(grade)
		if next.Valid {
			t := next.Time
			l.NextRepeat = &t
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

// SubjectStats summarises the grading history of one subject.
type SubjectStats struct {
	Subject    string
	Reviews    int
	Correct    int
	Wrong      int
	LastReview time.Time
}

// Stats returns per-subject totals ordered by subject name.
func (db *DB) Stats() ([]SubjectStats, error) {
	rows, err := db.conn.Query(`
		SELECT subject,
		       COUNT(*),
		       COALESCE(SUM(CASE WHEN grade = 1 THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN grade = 0 THEN 1 ELSE 0 END), 0)
		FROM reviews
		GROUP BY subject
		ORDER BY subject
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get review stats: %w", err)
	}
	defer rows.Close()

	var stats []SubjectStats
	for rows.Next() {
		var s SubjectStats
		if err := rows.Scan(&s.Subject, &s.Reviews, &s.Correct, &s.Wrong); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range stats {
		last, err := db.lastReview(stats[i].Subject)
		if err != nil {
			return nil, err
		}
		stats[i].LastReview = last
	}
	return stats, nil
}

func (db *DB) lastReview(subject string) (time.Time, error) {
	var last time.Time
	err := db.conn.QueryRow(`
		SELECT reviewed_at FROM reviews
		WHERE subject = ?
		ORDER BY reviewed_at DESC, id DESC
		LIMIT 1
	`, subject).Scan(&last)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get last review for subject %s: %w", subject, err)
	}
	return last, nil
}
