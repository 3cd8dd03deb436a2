package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewIgnoreMatcher_Rules(t *testing.T) {
	m := NewIgnoreMatcher([]string{"", "   ", "# editor junk", "*.swp", "!", "/photos/raw/*", "!keep.swp"})

	want := []ignoreRule{
		{glob: "*.swp"},
		{glob: "photos/raw/*", anchored: true},
		{glob: "keep.swp", negate: true},
	}
	if len(m.rules) != len(want) {
		t.Fatalf("got %d rules, want %d: %+v", len(m.rules), len(want), m.rules)
	}
	for i := range want {
		if m.rules[i] != want[i] {
			t.Errorf("rules[%d] = %+v, want %+v", i, m.rules[i], want[i])
		}
	}
}

func TestIgnoreMatcher_Match(t *testing.T) {
	tests := []struct {
		name  string
		rules []string
		path  string
		want  bool
	}{
		{"base name rule at top", []string{".DS_Store"}, ".DS_Store", true},
		{"base name rule in nested folder", []string{".DS_Store"}, "album/disc1/.DS_Store", true},
		{"extension glob", []string{"*.tmp"}, "report/draft.tmp", true},
		{"extension glob other file", []string{"*.tmp"}, "report/draft.pdf", false},
		{"single char wildcard", []string{"IMG_?.jpg"}, "IMG_1.jpg", true},
		{"single char wildcard too long", []string{"IMG_?.jpg"}, "IMG_12.jpg", false},
		{"character class", []string{"*.[ch]"}, "src/main.h", true},
		{"anchored rule", []string{"photos/raw/*"}, "photos/raw/a.cr2", true},
		{"anchored rule with leading slash", []string{"/photos/raw/*"}, "photos/raw/a.cr2", true},
		{"anchored rule other folder", []string{"photos/raw/*"}, "videos/raw/a.cr2", false},
		{"anchored rule does not reach deeper", []string{"photos/*"}, "photos/raw/a.cr2", false},
		{"folder itself can be ignored", []string{"node_modules"}, "site/node_modules", true},
		{"negation re-includes", []string{"*.log", "!keep.log"}, "logs/keep.log", false},
		{"negation only affects its match", []string{"*.log", "!keep.log"}, "logs/other.log", true},
		{"later rule wins", []string{"!keep.log", "*.log"}, "keep.log", true},
		{"malformed glob never matches", []string{"[x"}, "[x", false},
		{"no rules", nil, "anything", false},
		{"empty path", []string{"*"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := NewIgnoreMatcher(tt.rules).Match(tt.path); got != tt.want {
				t.Errorf("Match(%q) with %q = %v, want %v", tt.path, tt.rules, got, tt.want)
			}
		})
	}
}

func TestIgnoreMatcher_NilMatchesNothing(t *testing.T) {
	var m *IgnoreMatcher
	if m.Match("a.txt") {
		t.Error("nil matcher ignored a path")
	}
}

func TestParseIgnoreFile(t *testing.T) {
	t.Run("returns raw lines", func(t *testing.T) {
		t.Parallel()
		p := filepath.Join(t.TempDir(), IgnoreFileName)
		if err := os.WriteFile(p, []byte("*.tmp\n# scratch\n\nThumbs.db\n"), 0644); err != nil {
			t.Fatal(err)
		}

		lines, err := ParseIgnoreFile(p)
		if err != nil {
			t.Fatalf("ParseIgnoreFile() error = %v", err)
		}
		if len(lines) != 4 {
			t.Fatalf("got %d lines, want 4: %q", len(lines), lines)
		}
		if n := len(NewIgnoreMatcher(lines).rules); n != 2 {
			t.Errorf("got %d rules, want 2", n)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		lines, err := ParseIgnoreFile(filepath.Join(t.TempDir(), "absent"))
		if err != nil {
			t.Fatalf("ParseIgnoreFile() error = %v", err)
		}
		if lines != nil {
			t.Errorf("lines = %q, want nil", lines)
		}
	})
}
