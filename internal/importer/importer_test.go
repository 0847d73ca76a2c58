package importer

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pomlet/pomlet/internal/storage"
	"github.com/pomlet/pomlet/internal/store"
)

type sink struct {
	drafts []store.Draft
	err    error
}

func (s *sink) Import(d []store.Draft) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.drafts = append(s.drafts, d...)
	return len(d), nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func TestRunReadsAllFileKinds(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"Math.md":            "Q: What is a prime?\nA: ...\nQ: What is a ring?\n",
		"nested/History.csv": "When did Rome fall?,476\n\"Who was Charlemagne?\",\n",
		"Chemistry.txt":      "Q: What is a mole?",
		"README":             "not a card file",
		".git/config.md":     "Q: never read",
		"broken/Broken.csv":  "\"unterminated,quote\n",
	})

	s := &sink{}
	res, err := New(s, t.TempDir(), nil, quietLogger()).Run(dir)
	require.NoError(t, err)

	assert.Equal(t, 4, res.Files)
	assert.Equal(t, 5, res.Drafts)
	assert.Equal(t, 5, res.Added)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0].Error(), "Broken.csv")

	assert.ElementsMatch(t, []store.Draft{
		{Question: "What is a prime?", Subject: "Math"},
		{Question: "What is a ring?", Subject: "Math"},
		{Question: "When did Rome fall?", Subject: "History"},
		{Question: "Who was Charlemagne?", Subject: "History"},
		{Question: "What is a mole?", Subject: "Chemistry"},
	}, s.drafts)
}

func TestRunSingleFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"Biology.md": "Q: What is ATP?"})

	s := &sink{}
	res, err := New(s, t.TempDir(), nil, quietLogger()).Run(filepath.Join(dir, "Biology.md"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, []store.Draft{{Question: "What is ATP?", Subject: "Biology"}}, s.drafts)
}

func TestRunMissingSource(t *testing.T) {
	_, err := New(&sink{}, t.TempDir(), nil, quietLogger()).Run(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestRunSinkError(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"Art.md": "Q: Who painted Guernica?"})

	boom := errors.New("boom")
	_, err := New(&sink{err: boom}, t.TempDir(), nil, quietLogger()).Run(dir)
	assert.ErrorIs(t, err, boom)
}

func TestRunIntoStoreIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"Geo.md": "Q: Highest mountain?\nQ: Longest river?\n",
	})

	backend := storage.NewFileBackend(t.TempDir(), storage.WithLogger(quietLogger()))
	s, err := store.Open(backend, store.WithLogger(quietLogger()))
	require.NoError(t, err)
	im := New(s, t.TempDir(), nil, quietLogger())

	res, err := im.Run(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Added)

	res, err = im.Run(dir)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Added)
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, []string{"Geo"}, s.Subjects())
}
