// Package dataset assembles archive files from per-subject medical image
// volumes. A Traverser walks the subjects of a build, loads their files
// and fires lifecycle events; callbacks react by writing voxel data and
// metadata into an archive.Writer. Which arrays end up in the archive is
// decided purely by the callback set the build is run with.
package dataset

import "github.com/mrsinham/dicompack/internal/archive"

// Callback receives the lifecycle events of one build. Hooks fire in a
// fixed order: OnStart once, then per subject OnSubjectStart, that
// subject's OnImageFile and OnGTFile events, OnSubjectEnd, and finally
// OnEnd once. All of one subject's file events fire before the next
// subject begins. A returned error aborts the build.
type Callback interface {
	OnStart(ev *StartEvent) error
	OnSubjectStart(ev *SubjectStartEvent) error
	OnImageFile(ev *ImageFileEvent) error
	OnGTFile(ev *GTFileEvent) error
	OnSubjectEnd(ev *SubjectEndEvent) error
	OnEnd(ev *EndEvent) error
}

// NopCallback implements every hook as a no-op. Concrete callbacks embed
// it and override the hooks they care about.
type NopCallback struct{}

func (NopCallback) OnStart(*StartEvent) error               { return nil }
func (NopCallback) OnSubjectStart(*SubjectStartEvent) error { return nil }
func (NopCallback) OnImageFile(*ImageFileEvent) error       { return nil }
func (NopCallback) OnGTFile(*GTFileEvent) error             { return nil }
func (NopCallback) OnSubjectEnd(*SubjectEndEvent) error     { return nil }
func (NopCallback) OnEnd(*EndEvent) error                   { return nil }

// Compose fans every hook out to an ordered list of callbacks. Children
// run in registration order; the first error aborts the remaining
// children and is returned as is.
type Compose struct {
	callbacks []Callback
}

// NewCompose builds a composite over the given callbacks.
func NewCompose(callbacks ...Callback) *Compose {
	return &Compose{callbacks: callbacks}
}

// OnStart implements Callback.
func (c *Compose) OnStart(ev *StartEvent) error {
	for _, cb := range c.callbacks {
		if err := cb.OnStart(ev); err != nil {
			return err
		}
	}
	return nil
}

// OnSubjectStart implements Callback.
func (c *Compose) OnSubjectStart(ev *SubjectStartEvent) error {
	for _, cb := range c.callbacks {
		if err := cb.OnSubjectStart(ev); err != nil {
			return err
		}
	}
	return nil
}

// OnImageFile implements Callback.
func (c *Compose) OnImageFile(ev *ImageFileEvent) error {
	for _, cb := range c.callbacks {
		if err := cb.OnImageFile(ev); err != nil {
			return err
		}
	}
	return nil
}

// OnGTFile implements Callback.
func (c *Compose) OnGTFile(ev *GTFileEvent) error {
	for _, cb := range c.callbacks {
		if err := cb.OnGTFile(ev); err != nil {
			return err
		}
	}
	return nil
}

// OnSubjectEnd implements Callback.
func (c *Compose) OnSubjectEnd(ev *SubjectEndEvent) error {
	for _, cb := range c.callbacks {
		if err := cb.OnSubjectEnd(ev); err != nil {
			return err
		}
	}
	return nil
}

// OnEnd implements Callback.
func (c *Compose) OnEnd(ev *EndEvent) error {
	for _, cb := range c.callbacks {
		if err := cb.OnEnd(ev); err != nil {
			return err
		}
	}
	return nil
}

// DefaultCallbacks returns the standard callback set writing voxel data,
// subject identifiers, geometry, name lists and file paths into w.
func DefaultCallbacks(w archive.Writer) Callback {
	return NewCompose(
		NewWriteDataCallback(w),
		NewWriteFilesCallback(w),
		NewWriteNamesCallback(w),
		NewWriteImageInformationCallback(w),
		NewWriteSubjectCallback(w),
	)
}
