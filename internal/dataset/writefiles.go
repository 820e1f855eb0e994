package dataset

import (
	"fmt"

	"github.com/mrsinham/dicompack/internal/archive"
	"github.com/mrsinham/dicompack/internal/util"
)

// WriteFilesCallback records where every array came from: the common
// ancestor directory of all referenced files at meta/file_root, and the
// per-subject file paths relative to that root at meta/sequence_files and
// meta/gt_files. Storing paths relative to one root keeps the archive
// relocatable.
type WriteFilesCallback struct {
	NopCallback
	writer archive.Writer
	root   string
}

// NewWriteFilesCallback returns a callback writing into w.
func NewWriteFilesCallback(w archive.Writer) *WriteFilesCallback {
	return &WriteFilesCallback{writer: w}
}

// OnStart implements Callback.
func (c *WriteFilesCallback) OnStart(ev *StartEvent) error {
	var files []string
	for _, subject := range ev.Subjects {
		files = append(files, subject.Paths(ev.SequenceNames, ev.GTNames)...)
	}
	root, err := util.CommonPath(files)
	if err != nil {
		return fmt.Errorf("resolve file root: %w", err)
	}
	c.root = root

	if err := c.writer.Write(KeyFileRoot, root); err != nil {
		return err
	}
	n := len(ev.Subjects)
	if err := c.writer.Reserve(KeySequenceFiles, []int{n, len(ev.SequenceNames)}, archive.Str); err != nil {
		return err
	}
	if ev.HasGT {
		if err := c.writer.Reserve(KeyGTFiles, []int{n, len(ev.GTNames)}, archive.Str); err != nil {
			return err
		}
	}
	return nil
}

// OnImageFile implements Callback.
func (c *WriteFilesCallback) OnImageFile(ev *ImageFileEvent) error {
	rel, err := util.RelativeTo(c.root, ev.Path)
	if err != nil {
		return err
	}
	return c.writer.Fill(KeySequenceFiles, rel, archive.At(ev.SubjectIndex, ev.SequenceIndex))
}

// OnGTFile implements Callback.
func (c *WriteFilesCallback) OnGTFile(ev *GTFileEvent) error {
	rel, err := util.RelativeTo(c.root, ev.Path)
	if err != nil {
		return err
	}
	return c.writer.Fill(KeyGTFiles, rel, archive.At(ev.SubjectIndex, ev.GTIndex))
}
