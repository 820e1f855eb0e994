package util

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned by RelativeTo when the path does not live
// under the given root.
var ErrOutsideRoot = errors.New("path outside root")

// CommonPath returns the longest common directory ancestor of the given
// paths. The comparison is purely lexical: paths are cleaned and compared
// component by component, no filesystem access happens. If the shared
// prefix coincides with one of the inputs the parent directory is returned
// instead, so the result is always a strict ancestor of every input.
func CommonPath(paths []string) (string, error) {
	if len(paths) == 0 {
		return "", errors.New("no paths given")
	}
	sep := string(filepath.Separator)
	first := filepath.Clean(paths[0])
	abs := filepath.IsAbs(first)
	common := strings.Split(first, sep)
	cleaned := make([]string, 0, len(paths))
	cleaned = append(cleaned, first)
	for _, p := range paths[1:] {
		p = filepath.Clean(p)
		if filepath.IsAbs(p) != abs {
			return "", fmt.Errorf("cannot mix absolute and relative paths: %q", p)
		}
		cleaned = append(cleaned, p)
		parts := strings.Split(p, sep)
		n := len(common)
		if len(parts) < n {
			n = len(parts)
		}
		i := 0
		for i < n && parts[i] == common[i] {
			i++
		}
		common = common[:i]
	}
	root := strings.Join(common, sep)
	if abs && root == "" {
		root = sep
	}
	if root == "" || root == "." {
		return "", fmt.Errorf("no common ancestor for %q", paths)
	}
	for _, p := range cleaned {
		if p == root {
			parent := filepath.Dir(root)
			if parent == root {
				return "", fmt.Errorf("no common ancestor for %q", paths)
			}
			return parent, nil
		}
	}
	return root, nil
}

// RelativeTo returns path expressed relative to root. Paths that resolve
// outside root yield ErrOutsideRoot.
func RelativeTo(root, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", fmt.Errorf("relativize %q against %q: %v", path, root, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q not under %q", ErrOutsideRoot, path, root)
	}
	return rel, nil
}
