package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/spf13/pflag"

	"github.com/pomlet/pomlet/internal/config"
	"github.com/pomlet/pomlet/internal/history"
	"github.com/pomlet/pomlet/internal/storage"
	"github.com/pomlet/pomlet/internal/store"
)

const usage = `Usage: pomlet [flags] <command> [args]

Commands:
  add <question>            add a flashcard (use --subject)
  list                      list all flashcards grouped by subject
  show <id>                 show one flashcard
  due                       print how many flashcards are due
  review                    review due flashcards interactively
  edit <id> <question>      replace the text of a flashcard
  remove <id>               delete a flashcard
  remove-subject <subject>  delete every flashcard of a subject
  import <path|git-url>     import .md, .txt and .csv card files
  stats                     review history per subject
  backups                   list backups
  prune                     apply the backup retention policy now

Flags:
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatalf("pomlet: %v", err)
	}
}

// app bundles what a command needs.
type app struct {
	cfg     config.Config
	store   *store.Store
	backend *storage.FileBackend
	history *history.DB
	logger  *slog.Logger
	subject string
	in      io.Reader
	out     io.Writer
}

func run(args []string, in io.Reader, out, errOut io.Writer) error {
	flags := pflag.NewFlagSet("pomlet", pflag.ContinueOnError)
	flags.SetOutput(errOut)
	config.RegisterFlags(flags)
	subject := flags.StringP("subject", "s", "General", "subject for add")
	flags.Usage = func() {
		fmt.Fprint(errOut, usage)
		flags.PrintDefaults()
	}
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		flags.Usage()
		return errors.New("no command given")
	}

	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	a, err := open(cfg, errOut)
	if err != nil {
		return err
	}
	defer a.close()
	a.subject = *subject
	a.in = in
	a.out = out

	cmd, cmdArgs := flags.Arg(0), flags.Args()[1:]
	handler, ok := commands[cmd]
	if !ok {
		flags.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
	return handler(a, cmdArgs)
}

func open(cfg config.Config, logOut io.Writer) (*app, error) {
	logger := cfg.Logger(logOut)
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", cfg.Dir, err)
	}

	a := &app{cfg: cfg, logger: logger}
	a.backend = storage.NewFileBackend(cfg.Dir, storage.WithLogger(logger))

	opts := []store.Option{
		store.WithLogger(logger),
		store.WithPruning(cfg.PruneEvery, cfg.KeepBackups),
	}
	if cfg.Seed != 0 {
		r := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed))
		opts = append(opts, store.WithShuffle(r.Shuffle))
	}
	if cfg.History {
		db, err := history.Open(cfg.HistoryPath())
		if err != nil {
			return nil, err
		}
		a.history = db
		opts = append(opts, store.WithHistory(db))
	}

	s, err := store.Open(a.backend, opts...)
	if err != nil {
		a.close()
		return nil, err
	}
	a.store = s
	return a, nil
}

func (a *app) close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.logger.Warn("Failed to close review history", "error", err)
		}
	}
}
