package dataset

import (
	"errors"
	"fmt"

	"github.com/mrsinham/dicompack/internal/archive"
	"github.com/mrsinham/dicompack/internal/volume"
)

// ErrIncompleteSubject is returned when a subject lacks a file for one of
// the build's sequence or gt names, or carries files for unknown names.
var ErrIncompleteSubject = errors.New("incomplete subject")

// TraverseOptions configures one build run.
type TraverseOptions struct {
	// Subjects in build order. Every subject must provide exactly the
	// files named by SequenceNames and GTNames.
	Subjects []SubjectFiles
	// SequenceNames orders the sequences within each subject's stack.
	SequenceNames []string
	// GTNames orders the ground truths; an empty list means the build
	// has none.
	GTNames []string
	// Loader turns file entries into volumes.
	Loader volume.Loader
	// Callback receives the build's lifecycle events.
	Callback Callback
	// Quiet suppresses progress output.
	Quiet bool
	// ProgressCallback is invoked after every loaded file.
	ProgressCallback func(current, total int)
}

// Traverse walks the subjects in order and fires the lifecycle events
// against the configured callback: OnStart, then per subject
// OnSubjectStart, one OnImageFile per sequence, one OnGTFile per ground
// truth, OnSubjectEnd with the stacked arrays, and finally OnEnd. All
// file events of a subject fire before the next subject starts. The
// first error from a load or a callback aborts the run.
func Traverse(opts TraverseOptions) error {
	if err := validate(&opts); err != nil {
		return err
	}
	hasGT := len(opts.GTNames) > 0
	total := len(opts.Subjects) * (len(opts.SequenceNames) + len(opts.GTNames))
	count := len(opts.Subjects)

	if err := opts.Callback.OnStart(&StartEvent{
		Subjects:      opts.Subjects,
		SequenceNames: opts.SequenceNames,
		GTNames:       opts.GTNames,
		HasGT:         hasGT,
	}); err != nil {
		return err
	}

	loaded := 0
	for i, subject := range opts.Subjects {
		if !opts.Quiet {
			fmt.Printf("  Subject %d/%d: %s\n", i+1, count, subject.Subject)
		}
		if err := opts.Callback.OnSubjectStart(&SubjectStartEvent{
			SubjectIndex: i,
			SubjectCount: count,
			Subject:      subject.Subject,
		}); err != nil {
			return err
		}

		var images *archive.Array
		for si, name := range opts.SequenceNames {
			path := subject.Sequences[name]
			vol, err := opts.Loader.Load(path)
			if err != nil {
				return fmt.Errorf("load sequence %q of subject %q: %w", name, subject.Subject, err)
			}
			if images == nil {
				if images, err = newStack(len(opts.SequenceNames), vol); err != nil {
					return fmt.Errorf("subject %q: %w", subject.Subject, err)
				}
			}
			if err := stackInto(images, si, vol); err != nil {
				return fmt.Errorf("sequence %q of subject %q: %w", name, subject.Subject, err)
			}
			if err := opts.Callback.OnImageFile(&ImageFileEvent{
				SubjectIndex:  i,
				SubjectCount:  count,
				Subject:       subject.Subject,
				SequenceIndex: si,
				SequenceName:  name,
				Path:          path,
				Image:         vol,
			}); err != nil {
				return err
			}
			loaded = progress(opts, loaded, total)
		}

		var labels *archive.Array
		for gi, name := range opts.GTNames {
			path := subject.GTs[name]
			vol, err := opts.Loader.Load(path)
			if err != nil {
				return fmt.Errorf("load gt %q of subject %q: %w", name, subject.Subject, err)
			}
			if labels == nil {
				if labels, err = newStack(len(opts.GTNames), vol); err != nil {
					return fmt.Errorf("subject %q: %w", subject.Subject, err)
				}
			}
			if err := stackInto(labels, gi, vol); err != nil {
				return fmt.Errorf("gt %q of subject %q: %w", name, subject.Subject, err)
			}
			if err := opts.Callback.OnGTFile(&GTFileEvent{
				SubjectIndex: i,
				SubjectCount: count,
				Subject:      subject.Subject,
				GTIndex:      gi,
				GTName:       name,
				Path:         path,
				Image:        vol,
			}); err != nil {
				return err
			}
			loaded = progress(opts, loaded, total)
		}

		if err := opts.Callback.OnSubjectEnd(&SubjectEndEvent{
			SubjectIndex: i,
			SubjectCount: count,
			Subject:      subject.Subject,
			Images:       images,
			Labels:       labels,
			HasGT:        hasGT,
		}); err != nil {
			return err
		}
	}

	return opts.Callback.OnEnd(&EndEvent{SubjectCount: count})
}

func validate(opts *TraverseOptions) error {
	if len(opts.Subjects) == 0 {
		return errors.New("no subjects to traverse")
	}
	if len(opts.SequenceNames) == 0 {
		return errors.New("no sequence names configured")
	}
	if opts.Loader == nil {
		return errors.New("no loader configured")
	}
	if opts.Callback == nil {
		return errors.New("no callback configured")
	}
	for _, subject := range opts.Subjects {
		if subject.Subject == "" {
			return fmt.Errorf("%w: subject without identifier", ErrIncompleteSubject)
		}
		if err := checkNames(subject.Subject, "sequence", subject.Sequences, opts.SequenceNames); err != nil {
			return err
		}
		if err := checkNames(subject.Subject, "gt", subject.GTs, opts.GTNames); err != nil {
			return err
		}
	}
	return nil
}

// checkNames verifies that files holds exactly one path per expected name.
func checkNames(subject, kind string, files map[string]string, names []string) error {
	for _, name := range names {
		if files[name] == "" {
			return fmt.Errorf("%w: subject %q has no %s %q", ErrIncompleteSubject, subject, kind, name)
		}
	}
	if len(files) > len(names) {
		known := make(map[string]bool, len(names))
		for _, name := range names {
			known[name] = true
		}
		for name := range files {
			if !known[name] {
				return fmt.Errorf("%w: subject %q has unknown %s %q", ErrIncompleteSubject, subject, kind, name)
			}
		}
	}
	return nil
}

// newStack allocates the stacked array for a subject, sized after its
// first loaded volume.
func newStack(channels int, vol *volume.Volume) (*archive.Array, error) {
	size := vol.Size()
	return archive.NewArray(archive.Uint16, []int{channels, size[2], size[1], size[0]})
}

// stackInto copies a volume into channel idx of the stacked array. Every
// volume of a subject must match the stack's slice geometry.
func stackInto(stack *archive.Array, idx int, vol *volume.Volume) error {
	offset, length, err := archive.At(idx).Resolve(stack.Shape)
	if err != nil {
		return err
	}
	if length != vol.NumVoxels() {
		return fmt.Errorf("volume has %d voxels, stack channel wants %d", vol.NumVoxels(), length)
	}
	copy(stack.Data.([]uint16)[offset:offset+length], vol.Voxels)
	return nil
}

func progress(opts TraverseOptions, loaded, total int) int {
	loaded++
	if opts.ProgressCallback != nil {
		opts.ProgressCallback(loaded, total)
	}
	if !opts.Quiet && (loaded%10 == 0 || loaded == total) {
		fmt.Printf("  Progress: %d/%d (%.0f%%)\n", loaded, total, float64(loaded)/float64(total)*100)
	}
	return loaded
}
