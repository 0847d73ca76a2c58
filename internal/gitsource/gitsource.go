// Package gitsource keeps a local checkout of a git repository of card files.
package gitsource

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// IsURL reports whether source looks like a git remote rather than a local path.
func IsURL(source string) bool {
	return strings.HasSuffix(source, ".git") ||
		strings.HasPrefix(source, "git@") ||
		strings.HasPrefix(source, "https://") ||
		strings.HasPrefix(source, "http://") ||
		strings.HasPrefix(source, "file://")
}

// LocalPath maps a repository URL to a checkout directory under baseDir, e.g.
// https://github.com/u/cards.git and git@github.com:u/cards.git both become
// baseDir/github.com/u/cards.
func LocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http" && parsedURL.Scheme != "file") {
		if user, rest, ok := strings.Cut(repoURL, "@"); ok && user != "" {
			host, repoPath, ok := strings.Cut(rest, ":")
			if ok && host != "" && repoPath != "" {
				return filepath.Join(baseDir, host, strings.TrimSuffix(repoPath, ".git")), nil
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	host := parsedURL.Host
	if host == "" {
		host = "local"
	}
	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, host, sanitizedPath), nil
}

// Sync clones a git repository if it doesn't exist at localPath, or pulls the
// latest changes if it does. Progress output goes to progress, which may be nil.
func Sync(repoURL, localPath string, progress io.Writer) error {
	_, err := os.Stat(localPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Info("Cloning repository", "url", repoURL, "path", localPath)
		_, err := git.PlainClone(localPath, false, &git.CloneOptions{
			URL:      repoURL,
			Progress: progress,
		})
		if err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", repoURL, err)
		}
		slog.Info("Clone successful", "path", localPath)
	case err == nil:
		slog.Info("Pulling latest changes", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}

		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}

		err = worktree.Pull(&git.PullOptions{
			RemoteName: "origin",
			Progress:   progress,
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}
		slog.Info("Pull successful (or already up-to-date)", "path", localPath)
	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}

	return nil
}
