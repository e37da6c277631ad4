package statement

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// isStatementFile reports whether name has a supported export extension.
func isStatementFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".xlsx":
		return true
	}
	return false
}

// dirsForRel returns the directories from "." down to the directory of rel.
func dirsForRel(rel string) []string {
	dir := filepath.Dir(rel)
	dirs := []string{"."}
	if dir == "." {
		return dirs
	}
	cur := ""
	for _, part := range strings.Split(dir, string(os.PathSeparator)) {
		cur = filepath.Join(cur, part)
		dirs = append(dirs, cur)
	}
	return dirs
}

// readIgnorePatterns collects .gitignore patterns from dirs under root.
func readIgnorePatterns(root string, dirs []string) []gitignore.Pattern {
	var patterns []gitignore.Pattern
	for _, d := range dirs {
		b, err := os.ReadFile(filepath.Join(root, d, ".gitignore"))
		if err != nil {
			continue
		}
		var base []string
		if d != "." {
			base = strings.Split(filepath.ToSlash(d), "/")
		}
		for _, line := range strings.Split(string(b), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			patterns = append(patterns, gitignore.ParsePattern(line, base))
		}
	}
	return patterns
}

func ignored(root, rel string, isDir bool) bool {
	patterns := readIgnorePatterns(root, dirsForRel(rel))
	if len(patterns) == 0 {
		return false
	}
	return gitignore.NewMatcher(patterns).Match(strings.Split(rel, string(os.PathSeparator)), isDir)
}

// discover returns the sorted slash-separated paths, relative to root, of
// statement files below root. Paths matched by a .gitignore are skipped
// unless noGitignore is set; symlinked directories are not followed.
func discover(root string, noGitignore bool) ([]string, error) {
	var found []string
	var walk func(dir string) error
	walk = func(dir string) error {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("read %s: %w", displayPath(root, dir), err)
		}
		for _, ent := range entries {
			p := filepath.Join(dir, ent.Name())
			rel, err := filepath.Rel(root, p)
			if err != nil {
				return err
			}
			if !noGitignore && ignored(root, rel, ent.IsDir()) {
				continue
			}
			if ent.IsDir() {
				if err := walk(p); err != nil {
					return err
				}
				continue
			}
			if isStatementFile(ent.Name()) {
				found = append(found, filepath.ToSlash(rel))
			}
		}
		return nil
	}
	if err := walk(root); err != nil {
		return nil, err
	}
	sort.Strings(found)
	return found, nil
}

func displayPath(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}
