package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/pomlet/pomlet/internal/domain"
	"github.com/pomlet/pomlet/internal/importer"
)

type command func(a *app, args []string) error

var commands = map[string]command{
	"add":            cmdAdd,
	"list":           cmdList,
	"show":           cmdShow,
	"due":            cmdDue,
	"review":         cmdReview,
	"edit":           cmdEdit,
	"remove":         cmdRemove,
	"remove-subject": cmdRemoveSubject,
	"import":         cmdImport,
	"stats":          cmdStats,
	"backups":        cmdBackups,
	"prune":          cmdPrune,
}

const timeFormat = "2006-01-02 15:04"

func cmdAdd(a *app, args []string) error {
	card, err := a.store.Add(strings.Join(args, " "), a.subject)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added flashcard %d to %s\n", card.ID, card.Subject)
	return nil
}

func cmdList(a *app, _ []string) error {
	groups := a.store.GroupBySubject()
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, subject := range a.store.Subjects() {
		fmt.Fprintf(w, "%s\n", subject)
		for _, c := range groups[subject] {
			fmt.Fprintf(w, "  %d\t%s\t#%d\t%s\n", c.ID, firstLine(c.Question), c.Repeated, nextIn(c, time.Now()))
		}
	}
	return w.Flush()
}

func cmdShow(a *app, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	c, ok := a.store.FindByID(id)
	if !ok {
		return fmt.Errorf("no flashcard with id %d", id)
	}
	fmt.Fprintf(a.out, "Question:        %s\n", c.Question)
	fmt.Fprintf(a.out, "Subject:         %s\n", c.Subject)
	fmt.Fprintf(a.out, "Repetitions:     %d\n", c.Repeated)
	fmt.Fprintf(a.out, "Created:         %s\n", c.Created.Local().Format(timeFormat))
	fmt.Fprintf(a.out, "Last repetition: %s\n", c.LastRepeated.Local().Format(timeFormat))
	if c.NextRepeat == nil {
		fmt.Fprintf(a.out, "Next repetition: never (graduated)\n")
	} else {
		fmt.Fprintf(a.out, "Next repetition: %s\n", c.NextRepeat.Local().Format(timeFormat))
	}
	return nil
}

func cmdDue(a *app, _ []string) error {
	if n := a.store.CountDue(); n > 0 {
		fmt.Fprintf(a.out, "There are %d flashcards to review\n", n)
	} else {
		fmt.Fprintln(a.out, "All done for today!")
	}
	return nil
}

// cmdReview walks the due cards once. The card being reviewed is tracked here
// by id; the store only keeps the queue cursor.
func cmdReview(a *app, _ []string) error {
	scanner := bufio.NewScanner(a.in)
	prompt := func(text string) (string, bool) {
		fmt.Fprint(a.out, text)
		if !scanner.Scan() {
			return "", false
		}
		return strings.TrimSpace(scanner.Text()), true
	}

	a.store.Reset()
	reviewed := 0
	for card := a.store.NextDue(); card != nil; card = a.store.NextDue() {
		id := card.ID
		fmt.Fprintf(a.out, "\n[%s]\n%s\n", card.Subject, card.Question)

	answer:
		for {
			input, ok := prompt("[c]orrect [w]rong [e]dit [s]kip [q]uit: ")
			if !ok {
				return scanner.Err()
			}
			switch strings.ToLower(input) {
			case "c", "correct":
				if err := a.store.GradeCorrect(id); err != nil {
					return err
				}
				reviewed++
				break answer
			case "w", "wrong":
				if err := a.store.GradeWrong(id); err != nil {
					return err
				}
				reviewed++
				break answer
			case "e", "edit":
				text, ok := prompt("New question: ")
				if !ok {
					return scanner.Err()
				}
				if strings.TrimSpace(text) == "" {
					fmt.Fprintln(a.out, "The question field cannot be empty.")
					continue
				}
				if err := a.store.Modify(id, text); err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s\n", text)
			case "s", "skip":
				break answer
			case "q", "quit":
				fmt.Fprintf(a.out, "Reviewed %d flashcards\n", reviewed)
				return nil
			}
		}
	}

	fmt.Fprintf(a.out, "Reviewed %d flashcards\n", reviewed)
	return cmdDue(a, nil)
}

func cmdEdit(a *app, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	if err := a.store.Modify(id, strings.Join(args[1:], " ")); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated flashcard %d\n", id)
	return nil
}

func cmdRemove(a *app, args []string) error {
	id, err := idArg(args)
	if err != nil {
		return err
	}
	if err := a.store.Remove(id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed flashcard %d\n", id)
	return nil
}

func cmdRemoveSubject(a *app, args []string) error {
	if len(args) == 0 {
		return errors.New("remove-subject needs a subject")
	}
	subject := strings.Join(args, " ")
	n, err := a.store.RemoveAllBySubject(subject)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed %d flashcards from %s\n", n, subject)
	return nil
}

func cmdImport(a *app, args []string) error {
	if len(args) != 1 {
		return errors.New("import needs exactly one path or git URL")
	}
	im := importer.New(a.store, a.cfg.ReposDir(), os.Stderr, a.logger)
	res, err := im.Run(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Found %d cards in %d files, added %d, %d errors.\n", res.Drafts, res.Files, res.Added, len(res.Errors))
	for _, e := range res.Errors {
		fmt.Fprintf(a.out, "- %s\n", e)
	}
	return nil
}

func cmdStats(a *app, _ []string) error {
	if a.history == nil {
		return errors.New("review history is disabled")
	}
	stats, err := a.history.Stats()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SUBJECT\tREVIEWS\tCORRECT\tWRONG\tLAST")
	for _, s := range stats {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\n", s.Subject, s.Reviews, s.Correct, s.Wrong, s.LastReview.Local().Format(timeFormat))
	}
	return w.Flush()
}

func cmdBackups(a *app, _ []string) error {
	backups, err := a.backend.Backups()
	if err != nil {
		return err
	}
	for _, b := range backups {
		fmt.Fprintln(a.out, b.Name)
	}
	fmt.Fprintf(a.out, "%d backups in %s\n", len(backups), a.backend.BackupDir())
	return nil
}

func cmdPrune(a *app, _ []string) error {
	n, err := a.store.PruneBackups()
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed %d backups\n", n)
	return nil
}

func idArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, errors.New("missing flashcard id")
	}
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid flashcard id %q", args[0])
	}
	return id, nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func nextIn(c domain.Flashcard, now time.Time) string {
	if c.NextRepeat == nil {
		return "graduated"
	}
	days := c.NextRepeat.Sub(now).Hours() / 24
	if days <= 0 {
		return "due"
	}
	return fmt.Sprintf("%.1f days", days)
}
