// Package gitutil wraps the few git queries pystrip needs.
package gitutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotRepository is returned when no .git directory is found.
var ErrNotRepository = errors.New("not in a git repository")

// FindRoot walks up from start to the directory containing .git.
func FindRoot(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("failed to resolve directory: %w", err)
	}

	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		// Reached filesystem root without finding .git directory
		if parent == dir {
			return "", ErrNotRepository
		}
		dir = parent
	}
}

// StagedFiles lists the files in the git staging area of the repository
// containing dir, as absolute paths.
func StagedFiles(ctx context.Context, dir string) ([]string, error) {
	root, err := FindRoot(dir)
	if err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, "git", "diff", "--staged", "--name-only", "--diff-filter=d")
	cmd.Dir = root
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to get staged files: %w", err)
	}

	files := ParseNameList(string(output), root)
	if len(files) == 0 {
		return nil, fmt.Errorf("no staged files found")
	}

	return files, nil
}

// ParseNameList turns `git ... --name-only` output into absolute paths under
// root, skipping blank lines.
func ParseNameList(output, root string) []string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	files := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			files = append(files, filepath.Join(root, filepath.FromSlash(line)))
		}
	}
	return files
}

// IsIgnored reports whether git ignores path. Any failure to ask git counts
// as not ignored.
func IsIgnored(ctx context.Context, path string) bool {
	cmd := exec.CommandContext(ctx, "git", "check-ignore", "-q", path)
	cmd.Dir = filepath.Dir(path)
	// check-ignore exits 0 if the path is ignored, 1 if not
	return cmd.Run() == nil
}
