package tests

import (
	"errors"
	"path/filepath"
	"sort"
	"strconv"
	"testing"

	"github.com/mrsinham/dicompack/internal/util"
)

// TestUtil_IndexKeysSortInSubjectOrder tests that padded index keys list
// lexicographically in subject order for any cohort size. The archive
// layout depends on this property.
func TestUtil_IndexKeysSortInSubjectOrder(t *testing.T) {
	for _, total := range []int{1, 9, 10, 12, 100, 120} {
		keys := make([]string, total)
		seen := make(map[string]bool, total)
		for i := 0; i < total; i++ {
			key := util.FormatIndex(i, total)

			if want := len(strconv.Itoa(total)); len(key) != want {
				t.Errorf("FormatIndex(%d, %d) = %q, want width %d", i, total, key, want)
			}
			if seen[key] {
				t.Errorf("FormatIndex(%d, %d) = %q collides", i, total, key)
			}
			seen[key] = true
			keys[i] = key
		}

		if !sort.StringsAreSorted(keys) {
			t.Errorf("keys for total %d do not sort in subject order", total)
		} else {
			t.Logf("✓ %d keys sort in subject order (width %d)", total, util.IndexWidth(total))
		}
	}
}

// TestUtil_IndexWidth tests the digit count per cohort size
func TestUtil_IndexWidth(t *testing.T) {
	tests := []struct {
		total int
		want  int
	}{
		{total: 0, want: 1},
		{total: 1, want: 1},
		{total: 9, want: 1},
		{total: 10, want: 2},
		{total: 99, want: 2},
		{total: 100, want: 3},
		{total: 120, want: 3},
	}

	for _, tt := range tests {
		if got := util.IndexWidth(tt.total); got != tt.want {
			t.Errorf("IndexWidth(%d) = %d, want %d", tt.total, got, tt.want)
		}
	}
}

// TestUtil_CommonPathRoundTrip tests that joining the common root with
// the relative remainder reproduces every input path
func TestUtil_CommonPathRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		paths    []string
		wantRoot string
	}{
		{
			name:     "subject_tree",
			paths:    []string{"/data/s01/t1w", "/data/s01/t2w", "/data/s02/t1w"},
			wantRoot: "/data",
		},
		{
			name:     "shared_directory",
			paths:    []string{"/a/b/c.txt", "/a/b/d.txt"},
			wantRoot: "/a/b",
		},
		{
			name:     "single_file",
			paths:    []string{"/a/b/c.txt"},
			wantRoot: "/a/b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root, err := util.CommonPath(tt.paths)
			if err != nil {
				t.Fatalf("CommonPath: %v", err)
			}
			if root != tt.wantRoot {
				t.Errorf("CommonPath = %q, want %q", root, tt.wantRoot)
			}

			for _, p := range tt.paths {
				rel, err := util.RelativeTo(root, p)
				if err != nil {
					t.Fatalf("RelativeTo(%q, %q): %v", root, p, err)
				}
				if got := filepath.Join(root, rel); got != filepath.Clean(p) {
					t.Errorf("Join(%q, %q) = %q, want %q", root, rel, got, filepath.Clean(p))
				}
			}
			t.Logf("✓ Root %q round-trips %d paths", root, len(tt.paths))
		})
	}
}

// TestUtil_RelativeToRejectsEscapes tests that paths outside the root
// are refused instead of stored with parent references
func TestUtil_RelativeToRejectsEscapes(t *testing.T) {
	if _, err := util.RelativeTo("/data", "/etc/passwd"); !errors.Is(err, util.ErrOutsideRoot) {
		t.Errorf("RelativeTo(/data, /etc/passwd) = %v, want ErrOutsideRoot", err)
	}
	if _, err := util.RelativeTo("/data/s01", "/data/s02/t1w"); !errors.Is(err, util.ErrOutsideRoot) {
		t.Errorf("RelativeTo(/data/s01, /data/s02/t1w) = %v, want ErrOutsideRoot", err)
	}
}

// TestUtil_SuggestSequenceNames tests typo suggestions against a realistic
// name set
func TestUtil_SuggestSequenceNames(t *testing.T) {
	candidates := []string{"t1w", "t2w", "flair", "seg"}

	tests := []struct {
		input string
		want  string
	}{
		{input: "falir", want: "flair"},
		{input: "t1", want: "t1w"},
		{input: "T1W", want: "t1w"},
		{input: "zzzzzzzzzz", want: ""},
	}

	for _, tt := range tests {
		if got := util.ClosestMatch(tt.input, candidates); got != tt.want {
			t.Errorf("ClosestMatch(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
