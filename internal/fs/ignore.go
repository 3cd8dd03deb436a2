package fs

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
)

// IgnoreFileName is the optional per-user ignore file under the base directory.
const IgnoreFileName = "ignore"

type ignoreRule struct {
	glob     string
	anchored bool // glob contains '/': compared with the whole staged path
	negate   bool // '!' prefix: a match re-includes the path
}

func (r ignoreRule) matches(stagedPath, base string) bool {
	subject := base
	if r.anchored {
		subject = stagedPath
	}
	ok, err := path.Match(r.glob, subject)
	return err == nil && ok
}

// IgnoreMatcher decides which walked entries stay out of the staged set.
//
// A rule without '/' is compared with the entry's base name, so ".DS_Store"
// drops that file in every folder. A rule with '/' is compared with the full
// path below the staging root ("photos/raw/*" drops "/photos/raw/a.cr2"); a
// leading '/' is allowed and ignored. A rule starting with '!' re-includes
// what an earlier rule dropped. The last matching rule wins.
type IgnoreMatcher struct {
	rules []ignoreRule
}

// NewIgnoreMatcher builds a matcher from raw lines. Blank lines and '#'
// comments are skipped.
func NewIgnoreMatcher(lines []string) *IgnoreMatcher {
	m := &IgnoreMatcher{}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var r ignoreRule
		if rest, ok := strings.CutPrefix(line, "!"); ok {
			r.negate = true
			line = rest
		}
		r.anchored = strings.Contains(line, "/")
		r.glob = strings.TrimPrefix(line, "/")
		if r.glob == "" {
			continue
		}
		m.rules = append(m.rules, r)
	}
	return m
}

// Match reports whether stagedPath (slash separated, without the leading
// '/') is ignored.
func (m *IgnoreMatcher) Match(stagedPath string) bool {
	if m == nil || stagedPath == "" {
		return false
	}
	base := path.Base(stagedPath)
	ignored := false
	for _, r := range m.rules {
		if r.matches(stagedPath, base) {
			ignored = !r.negate
		}
	}
	return ignored
}

// ParseIgnoreFile returns the lines of the ignore file at p. A missing file
// yields no lines and no error.
func ParseIgnoreFile(p string) ([]string, error) {
	f, err := os.Open(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open ignore file: %w", err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ignore file %s: %w", p, err)
	}
	return lines, nil
}
