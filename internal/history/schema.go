package history

const schema = `
-- The 'reviews' table stores one row per grading event.
CREATE TABLE IF NOT EXISTS reviews (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_id INTEGER NOT NULL,
    subject TEXT NOT NULL,
    grade INTEGER NOT NULL, -- 0: Wrong, 1: Correct
    repeated INTEGER NOT NULL,
    reviewed_at DATETIME NOT NULL,
    next_repeat DATETIME
);

CREATE INDEX IF NOT EXISTS idx_reviews_card ON reviews(card_id);
CREATE INDEX IF NOT EXISTS idx_reviews_subject ON reviews(subject);
`
