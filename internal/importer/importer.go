// Package importer turns a directory or git repository of card files into
// flashcards. Every file contributes to the subject named after its stem.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pomlet/pomlet/internal/gitsource"
	"github.com/pomlet/pomlet/internal/parser"
	"github.com/pomlet/pomlet/internal/store"
)

// Sink receives the parsed drafts.
type Sink interface {
	Import([]store.Draft) (int, error)
}

// Result summarises a single import run.
type Result struct {
	Files  int
	Drafts int
	Added  int
	// Errors holds per-file problems that did not stop the run.
	Errors []error
}

// Importer reads card files from local directories or git remotes.
type Importer struct {
	sink     Sink
	reposDir string
	progress io.Writer
	logger   *slog.Logger
}

// New returns an importer that checks git sources out under reposDir.
func New(sink Sink, reposDir string, progress io.Writer, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{sink: sink, reposDir: reposDir, progress: progress, logger: logger}
}

// Run imports every card file below source, which is a directory, a single
// file or a git URL.
func (im *Importer) Run(source string) (Result, error) {
	path := source
	if gitsource.IsURL(source) {
		if info, err := os.Stat(source); err != nil || !info.IsDir() || isBareLocalRepo(source) {
			local, err := gitsource.LocalPath(im.reposDir, source)
			if err != nil {
				return Result{}, err
			}
			if err := gitsource.Sync(source, local, im.progress); err != nil {
				return Result{}, err
			}
			path = local
		}
	}

	var res Result
	var drafts []store.Draft
	walkErr := filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		fileDrafts, ok, parseErr := readFile(p)
		if !ok {
			return nil
		}
		res.Files++
		if parseErr != nil {
			res.Errors = append(res.Errors, fmt.Errorf("parsing %s: %w", p, parseErr))
			return nil
		}
		drafts = append(drafts, fileDrafts...)
		return nil
	})
	if walkErr != nil {
		return res, fmt.Errorf("error walking %s: %w", path, walkErr)
	}

	res.Drafts = len(drafts)
	added, err := im.sink.Import(drafts)
	if err != nil {
		return res, err
	}
	res.Added = added

	im.logger.Info("Import complete",
		"source", source,
		"files", res.Files,
		"drafts", res.Drafts,
		"added", res.Added,
		"errors", len(res.Errors),
	)
	return res, nil
}

// readFile parses one card file. ok is false for files that are not card files.
func readFile(path string) ([]store.Draft, bool, error) {
	ext := strings.ToLower(filepath.Ext(path))
	subject := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var questions []string
	var err error
	switch ext {
	case ".md", ".txt":
		questions, err = parser.ParseFile(path)
	case ".csv":
		questions, err = parseCSV(path)
	default:
		return nil, false, nil
	}
	if err != nil {
		return nil, true, err
	}

	drafts := make([]store.Draft, 0, len(questions))
	for _, q := range questions {
		drafts = append(drafts, store.Draft{Question: q, Subject: subject})
	}
	return drafts, true, nil
}

// parseCSV returns the first column of every row. The files carry no header.
func parseCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	var questions []string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(row) > 0 && strings.TrimSpace(row[0]) != "" {
			questions = append(questions, row[0])
		}
	}
	return questions, nil
}

func isBareLocalRepo(path string) bool {
	_, err := os.Stat(filepath.Join(path, "HEAD"))
	return err == nil
}
