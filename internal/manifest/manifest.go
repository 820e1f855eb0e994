// Package manifest loads build manifests: YAML files naming the subjects
// of a dataset and the image files behind each of their sequences and
// ground truths.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/mrsinham/dicompack/internal/dataset"
	"github.com/mrsinham/dicompack/internal/util"
)

// Manifest describes one dataset build.
type Manifest struct {
	// Dataset is a free-form name, used for progress output only.
	Dataset string `yaml:"dataset"`
	// Sequences orders the per-subject image channels.
	Sequences []string `yaml:"sequences"`
	// GTs orders the ground-truth channels; empty for builds without
	// annotations.
	GTs []string `yaml:"gts,omitempty"`
	// Subjects in build order.
	Subjects []Subject `yaml:"subjects"`
}

// Subject maps the manifest's sequence and gt names to files. Relative
// paths are resolved against the manifest's directory on load.
type Subject struct {
	Name  string            `yaml:"name"`
	Files map[string]string `yaml:"files"`
	GTs   map[string]string `yaml:"gts,omitempty"`
}

// Load reads and validates the manifest at path. File entries with
// relative paths are resolved against the manifest's directory.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("invalid manifest %s: %w", path, err)
	}
	m.resolvePaths(filepath.Dir(path))
	return &m, nil
}

// Validate checks the manifest for structural problems: empty or
// duplicated name lists, subjects with missing or unknown entries, and
// inconsistent ground-truth coverage.
func (m *Manifest) Validate() error {
	if len(m.Sequences) == 0 {
		return fmt.Errorf("no sequences declared")
	}
	if err := uniqueNames("sequence", m.Sequences); err != nil {
		return err
	}
	if err := uniqueNames("gt", m.GTs); err != nil {
		return err
	}
	if len(m.Subjects) == 0 {
		return fmt.Errorf("no subjects declared")
	}

	seen := make(map[string]bool, len(m.Subjects))
	for i, subject := range m.Subjects {
		if subject.Name == "" {
			return fmt.Errorf("subject %d has no name", i)
		}
		if seen[subject.Name] {
			return fmt.Errorf("duplicate subject %q", subject.Name)
		}
		seen[subject.Name] = true

		if err := checkEntries(subject.Name, "sequence", subject.Files, m.Sequences); err != nil {
			return err
		}
		if len(m.GTs) == 0 && len(subject.GTs) > 0 {
			return fmt.Errorf("subject %q lists gts but the manifest declares none", subject.Name)
		}
		if err := checkEntries(subject.Name, "gt", subject.GTs, m.GTs); err != nil {
			return err
		}
	}
	return nil
}

// SubjectFiles converts the manifest into the build's subject list.
func (m *Manifest) SubjectFiles() []dataset.SubjectFiles {
	out := make([]dataset.SubjectFiles, len(m.Subjects))
	for i, subject := range m.Subjects {
		out[i] = dataset.SubjectFiles{
			Subject:   subject.Name,
			Sequences: subject.Files,
			GTs:       subject.GTs,
		}
	}
	return out
}

// HasGT reports whether the manifest declares ground-truth channels.
func (m *Manifest) HasGT() bool {
	return len(m.GTs) > 0
}

func (m *Manifest) resolvePaths(dir string) {
	for _, subject := range m.Subjects {
		resolveMap(subject.Files, dir)
		resolveMap(subject.GTs, dir)
	}
}

func resolveMap(files map[string]string, dir string) {
	for name, path := range files {
		if !filepath.IsAbs(path) {
			files[name] = filepath.Join(dir, path)
		}
	}
}

func uniqueNames(kind string, names []string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" {
			return fmt.Errorf("empty %s name", kind)
		}
		if seen[name] {
			return fmt.Errorf("duplicate %s name %q", kind, name)
		}
		seen[name] = true
	}
	return nil
}

// checkEntries verifies that files covers exactly the declared names.
// Unknown entries get a closest-match suggestion, the usual symptom being
// a typo in the manifest.
func checkEntries(subject, kind string, files map[string]string, names []string) error {
	for _, name := range names {
		if files[name] == "" {
			return fmt.Errorf("subject %q has no file for %s %q", subject, kind, name)
		}
	}
	known := make(map[string]bool, len(names))
	for _, name := range names {
		known[name] = true
	}
	for name := range files {
		if !known[name] {
			if suggestion := util.ClosestMatch(name, names); suggestion != "" {
				return fmt.Errorf("unknown %s %q for subject %q, did you mean %q?", kind, name, subject, suggestion)
			}
			return fmt.Errorf("unknown %s %q for subject %q", kind, name, subject)
		}
	}
	return nil
}
