package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// backupLayout is ISO-8601 with microseconds. Colons are swapped for
// underscores because some filesystems reject them.
const backupLayout = "2006-01-02T15:04:05.000000"

// maxBackupSeq bounds the suffixes tried for backups sharing a timestamp.
const maxBackupSeq = 999

// Backup is one snapshot in the backup directory.
type Backup struct {
	Name string
	Path string
	Time time.Time
	// Seq orders backups taken at the same instant.
	Seq int
}

func backupName(t time.Time) string {
	return strings.ReplaceAll(t.Format(backupLayout), ":", "_")
}

func parseBackupName(name string) (time.Time, int, error) {
	stamp, seq := name, 0
	// dashes past the date can only be a sequence suffix
	if i := strings.LastIndexByte(name, '-'); i > len("2006-01-02") {
		n, err := strconv.Atoi(name[i+1:])
		if err != nil || n < 1 {
			return time.Time{}, 0, fmt.Errorf("invalid backup suffix in %q", name)
		}
		stamp, seq = name[:i], n
	}
	t, err := time.ParseInLocation(naiveLayout, strings.ReplaceAll(stamp, "_", ":"), time.Local)
	if err != nil {
		return time.Time{}, 0, err
	}
	return t, seq, nil
}

// Backups lists the snapshots oldest first. Files whose names are not backup
// timestamps are ignored.
func (b *FileBackend) Backups() ([]Backup, error) {
	entries, err := os.ReadDir(b.BackupDir())
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "list", Path: b.BackupDir(), Err: err}
	}

	var backups []Backup
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		t, seq, err := parseBackupName(e.Name())
		if err != nil {
			continue
		}
		backups = append(backups, Backup{
			Name: e.Name(),
			Path: filepath.Join(b.BackupDir(), e.Name()),
			Time: t,
			Seq:  seq,
		})
	}
	sort.SliceStable(backups, func(i, j int) bool {
		if !backups[i].Time.Equal(backups[j].Time) {
			return backups[i].Time.Before(backups[j].Time)
		}
		return backups[i].Seq < backups[j].Seq
	})
	return backups, nil
}

// PruneBackups deletes all but the keep newest snapshots and returns how many
// were removed.
func (b *FileBackend) PruneBackups(keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	backups, err := b.Backups()
	if err != nil {
		return 0, err
	}
	if len(backups) <= keep {
		return 0, nil
	}

	removed := 0
	for _, bk := range backups[:len(backups)-keep] {
		if err := os.Remove(bk.Path); err != nil {
			return removed, &Error{Op: "prune", Path: bk.Path, Err: err}
		}
		removed++
	}
	b.logger.Info("Pruned backups", "removed", removed, "kept", keep)
	return removed, nil
}
