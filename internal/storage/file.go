// Package storage persists the flashcard collection as a JSON document and
// keeps a timestamped copy of the previous document on every save.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pomlet/pomlet/internal/domain"
)

const (
	questionsFile = "questions.json"
	metaFile      = "questions.meta.json"
	backupsDir    = "backups"
)

// Collection is everything the backend persists.
type Collection struct {
	Cards []domain.Flashcard
	// NextID is the lowest id that has never been handed out.
	NextID int
}

// Backend loads and saves a whole collection at once.
type Backend interface {
	Load() (Collection, error)
	Save(Collection) error
	PruneBackups(keep int) (int, error)
}

type meta struct {
	NextID int `json:"next_id"`
}

// FileBackend stores the collection under a single directory:
//
//	questions.json       the primary store
//	questions.meta.json  the id high-water mark
//	backups/             one copy of questions.json per save
//
// A failed backup is logged and does not stop the save.
type FileBackend struct {
	dir    string
	now    func() time.Time
	logger *slog.Logger
}

// FileOption configures a FileBackend.
type FileOption func(*FileBackend)

// WithClock sets the time source used to name backups.
func WithClock(now func() time.Time) FileOption {
	return func(b *FileBackend) { b.now = now }
}

// WithLogger sets the logger used to report backup failures.
func WithLogger(logger *slog.Logger) FileOption {
	return func(b *FileBackend) { b.logger = logger }
}

// NewFileBackend returns a backend rooted at dir. Nothing is touched on disk
// until Load or Save is called.
func NewFileBackend(dir string, opts ...FileOption) *FileBackend {
	b := &FileBackend{
		dir:    dir,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Path returns the location of the primary store.
func (b *FileBackend) Path() string { return filepath.Join(b.dir, questionsFile) }

// BackupDir returns the directory holding backups.
func (b *FileBackend) BackupDir() string { return filepath.Join(b.dir, backupsDir) }

func (b *FileBackend) metaPath() string { return filepath.Join(b.dir, metaFile) }

// Load reads the collection. When no primary store exists yet an empty one is
// written and returned.
func (b *FileBackend) Load() (Collection, error) {
	data, err := os.ReadFile(b.Path())
	if errors.Is(err, fs.ErrNotExist) {
		if err := b.initialize(); err != nil {
			return Collection{}, err
		}
		return Collection{Cards: []domain.Flashcard{}}, nil
	}
	if err != nil {
		return Collection{}, &Error{Op: "read", Path: b.Path(), Err: err}
	}

	cards, err := decodeRecords(data)
	if err != nil {
		return Collection{}, &Error{Op: "decode", Path: b.Path(), Err: err}
	}

	m, err := b.readMeta()
	if err != nil {
		return Collection{}, err
	}
	return Collection{Cards: cards, NextID: m.NextID}, nil
}

func (b *FileBackend) initialize() error {
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return &Error{Op: "mkdir", Path: b.dir, Err: err}
	}
	if err := writeFileAtomic(b.Path(), []byte("[]")); err != nil {
		return &Error{Op: "write", Path: b.Path(), Err: err}
	}
	b.logger.Info("Initialized empty question store", "path", b.Path())
	return nil
}

func (b *FileBackend) readMeta() (meta, error) {
	var m meta
	data, err := os.ReadFile(b.metaPath())
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return m, &Error{Op: "read", Path: b.metaPath(), Err: err}
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, &Error{Op: "decode", Path: b.metaPath(), Err: err}
	}
	if m.NextID < 0 {
		return m, &Error{Op: "decode", Path: b.metaPath(), Err: fmt.Errorf("negative next_id %d", m.NextID)}
	}
	return m, nil
}

// Save backs up the current primary store and replaces it with c. When Save
// returns an error the primary store still holds its previous contents.
func (b *FileBackend) Save(c Collection) error {
	records := make([]record, 0, len(c.Cards))
	for _, card := range c.Cards {
		records = append(records, toRecord(card))
	}
	data, err := json.Marshal(records)
	if err != nil {
		return &Error{Op: "encode", Path: b.Path(), Err: err}
	}
	metaData, err := json.Marshal(meta{NextID: c.NextID})
	if err != nil {
		return &Error{Op: "encode", Path: b.metaPath(), Err: err}
	}

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return &Error{Op: "mkdir", Path: b.dir, Err: err}
	}
	if name, err := b.backup(); err != nil {
		b.logger.Warn("Backup failed, saving anyway", "path", b.Path(), "error", err)
	} else if name != "" {
		b.logger.Debug("Backup written", "backup", name)
	}

	// The primary rename is the commit point. A meta file that runs ahead of
	// it only skips ids.
	if err := writeFileAtomic(b.metaPath(), metaData); err != nil {
		return &Error{Op: "write", Path: b.metaPath(), Err: err}
	}
	if err := writeFileAtomic(b.Path(), data); err != nil {
		return &Error{Op: "write", Path: b.Path(), Err: err}
	}
	return nil
}

// backup copies the primary store into the backup directory and returns the
// backup's file name. It returns "" when there is nothing to back up.
func (b *FileBackend) backup() (string, error) {
	src, err := os.Open(b.Path())
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer src.Close()

	if err := os.MkdirAll(b.BackupDir(), 0o755); err != nil {
		return "", err
	}
	dst, name, err := b.createBackup(backupName(b.now()))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", err
	}
	return name, dst.Close()
}

// createBackup opens a new file for the backup named base. A name that is
// already taken gets a "-N" suffix so that earlier snapshots are never
// overwritten.
func (b *FileBackend) createBackup(base string) (*os.File, string, error) {
	for seq := 0; seq <= maxBackupSeq; seq++ {
		name := base
		if seq > 0 {
			name = fmt.Sprintf("%s-%d", base, seq)
		}
		f, err := os.OpenFile(filepath.Join(b.BackupDir(), name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		return f, name, nil
	}
	return nil, "", fmt.Errorf("too many backups named %s", base)
}

// writeFileAtomic replaces path with data so that readers see either the old
// or the new content.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
