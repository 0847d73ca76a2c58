package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupNameRoundTrip(t *testing.T) {
	ts := time.Date(2025, 12, 31, 23, 59, 58, 1000, time.Local)
	name := backupName(ts)
	assert.Equal(t, "2025-12-31T23_59_58.000001", name)
	assert.NotContains(t, name, ":")

	parsed, seq, err := parseBackupName(name)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(ts))
	assert.Equal(t, 0, seq)
}

func TestParseBackupNameAcceptsWholeSeconds(t *testing.T) {
	parsed, _, err := parseBackupName("2025-01-02T03_04_05")
	require.NoError(t, err)
	assert.True(t, parsed.Equal(time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local)))
}

func TestParseBackupNameSuffix(t *testing.T) {
	parsed, seq, err := parseBackupName("2025-01-02T03_04_05.000001-12")
	require.NoError(t, err)
	assert.Equal(t, 12, seq)
	assert.True(t, parsed.Equal(time.Date(2025, 1, 2, 3, 4, 5, 1000, time.Local)))

	for _, bad := range []string{"2025-01-02T03_04_05-x", "2025-01-02T03_04_05-0", "2025-01-02T03_04_05--1"} {
		_, _, err := parseBackupName(bad)
		assert.Error(t, err, bad)
	}
}

func TestBackupsWithSameTimestampAreKept(t *testing.T) {
	b, _ := newBackend(t, t.TempDir())
	_, err := b.Load()
	require.NoError(t, err)

	// the clock never moves, so every backup gets the same timestamp
	cards := sampleCards()
	for i := 1; i <= 3; i++ {
		require.NoError(t, b.Save(Collection{Cards: cards[:i%2+1], NextID: i}))
	}

	backups, err := b.Backups()
	require.NoError(t, err)
	require.Len(t, backups, 3)
	assert.Equal(t, "2025-04-02T14_15_16.123456", backups[0].Name)
	assert.Equal(t, "2025-04-02T14_15_16.123456-1", backups[1].Name)
	assert.Equal(t, "2025-04-02T14_15_16.123456-2", backups[2].Name)

	first, err := os.ReadFile(backups[0].Path)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(first), "the first snapshot must not be overwritten")

	second, err := os.ReadFile(backups[1].Path)
	require.NoError(t, err)
	got, err := decodeRecords(second)
	require.NoError(t, err)
	assertSameCards(t, cards[:2], got)

	removed, err := b.PruneBackups(1)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	left, err := b.Backups()
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "2025-04-02T14_15_16.123456-2", left[0].Name)
}

func TestPruneBackupsKeepsNewest(t *testing.T) {
	b, c := newBackend(t, t.TempDir())
	_, err := b.Load()
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		require.NoError(t, b.Save(Collection{Cards: sampleCards()}))
		c.advance(time.Minute)
	}
	before, err := b.Backups()
	require.NoError(t, err)
	require.Len(t, before, 6)

	// stray files are left alone
	stray := filepath.Join(b.BackupDir(), "notes.txt")
	require.NoError(t, os.WriteFile(stray, []byte("keep me"), 0o644))

	removed, err := b.PruneBackups(2)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)

	after, err := b.Backups()
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, before[4].Name, after[0].Name)
	assert.Equal(t, before[5].Name, after[1].Name)
	assert.FileExists(t, stray)
}

func TestPruneBackupsSortsByTimestampNotDirectoryOrder(t *testing.T) {
	b, _ := newBackend(t, t.TempDir())
	require.NoError(t, os.MkdirAll(b.BackupDir(), 0o755))
	names := []string{
		"2025-03-01T09_00_00.000000",
		"2024-12-31T23_00_00.000000",
		"2025-01-15T12_30_00.000000",
	}
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(b.BackupDir(), n), []byte("[]"), 0o644))
	}

	removed, err := b.PruneBackups(1)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	left, err := b.Backups()
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "2025-03-01T09_00_00.000000", left[0].Name)
}

func TestPruneBackupsNothingToDo(t *testing.T) {
	b, _ := newBackend(t, t.TempDir())

	removed, err := b.PruneBackups(10)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}
