// Package git records workbook changes as commits using go-git.
package git

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Author identifies who made a change. Empty fields fall back to the
// repository defaults.
type Author struct {
	Name  string
	Email string
}

// Commit is one entry of the history.
type Commit struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Email   string    `json:"email"`
	When    time.Time `json:"when"`
}

// Repo is a git repository whose working directory holds the workbook.
type Repo struct {
	dir          string
	defaultName  string
	defaultEmail string

	mu   sync.Mutex
	repo *gogit.Repository
}

// Open opens the repository at dir, initializing it when needed.
func Open(dir, defaultName, defaultEmail string) (*Repo, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil { //nolint:gosec // G301: data directories are shared
		return nil, fmt.Errorf("failed to create repo directory: %w", err)
	}
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		if repo, err = gogit.PlainInit(dir, false); err != nil {
			return nil, fmt.Errorf("failed to initialize git repo: %w", err)
		}
		cfg, err := repo.Config()
		if err != nil {
			return nil, fmt.Errorf("failed to read git config: %w", err)
		}
		cfg.User.Name = defaultName
		cfg.User.Email = defaultEmail
		if err := repo.SetConfig(cfg); err != nil {
			return nil, fmt.Errorf("failed to write git config: %w", err)
		}
	}
	return &Repo{dir: dir, defaultName: defaultName, defaultEmail: defaultEmail, repo: repo}, nil
}

// Dir returns the working directory.
func (r *Repo) Dir() string { return r.dir }

// Commit stages files, given as absolute paths or relative to Dir, and
// commits them. It reports false when none of files changed.
func (r *Repo) Commit(_ context.Context, author Author, msg string, files ...string) (bool, error) {
	if len(files) == 0 {
		return false, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	w, err := r.repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}
	staged := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := r.rel(f)
		if err != nil {
			return false, err
		}
		if _, err := w.Add(rel); err != nil {
			return false, fmt.Errorf("failed to stage %s: %w", rel, err)
		}
		staged = append(staged, rel)
	}
	status, err := w.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree status: %w", err)
	}
	// Only the given files count; untracked neighbors are never committed.
	changed := false
	for _, rel := range staged {
		if fs, ok := status[rel]; ok && fs.Staging != gogit.Unmodified && fs.Staging != gogit.Untracked {
			changed = true
			break
		}
	}
	if !changed {
		return false, nil
	}

	if author.Name == "" {
		author.Name = r.defaultName
	}
	if author.Email == "" {
		author.Email = r.defaultEmail
	}
	now := time.Now()
	_, err = w.Commit(msg, &gogit.CommitOptions{
		Author:    &object.Signature{Name: author.Name, Email: author.Email, When: now},
		Committer: &object.Signature{Name: r.defaultName, Email: r.defaultEmail, When: now},
	})
	if err != nil {
		return false, fmt.Errorf("failed to commit: %w", err)
	}
	return true, nil
}

// History returns up to n commits touching path, newest first. An empty path
// lists every commit.
func (r *Repo) History(_ context.Context, path string, n int) ([]Commit, error) {
	if n <= 0 || n > 1000 {
		n = 1000
	}
	opts := &gogit.LogOptions{}
	if path != "" {
		rel, err := r.rel(path)
		if err != nil {
			return nil, err
		}
		opts.FileName = &rel
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	iter, err := r.repo.Log(opts)
	if err != nil {
		// No commits yet.
		return nil, nil
	}
	defer iter.Close()
	var out []Commit
	for range n {
		c, err := iter.Next()
		if err != nil {
			break
		}
		subject, _, _ := strings.Cut(c.Message, "\n")
		out = append(out, Commit{
			Hash:    c.Hash.String(),
			Message: subject,
			Author:  c.Author.Name,
			Email:   c.Author.Email,
			When:    c.Author.When,
		})
	}
	return out, nil
}

func (r *Repo) rel(path string) (string, error) {
	if !filepath.IsAbs(path) {
		return filepath.ToSlash(path), nil
	}
	rel, err := filepath.Rel(r.dir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s is outside the repository %s", path, r.dir)
	}
	return filepath.ToSlash(rel), nil
}
