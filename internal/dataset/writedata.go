package dataset

import (
	"github.com/mrsinham/dicompack/internal/archive"
	"github.com/mrsinham/dicompack/internal/util"
)

// WriteDataCallback stores each subject's stacked voxel arrays under
// data/sequences/<index> and, for builds with ground truth, data/gts/<index>.
// The index is zero-padded to the width of the subject count so the keys
// sort in subject order.
type WriteDataCallback struct {
	NopCallback
	writer archive.Writer
}

// NewWriteDataCallback returns a callback writing into w.
func NewWriteDataCallback(w archive.Writer) *WriteDataCallback {
	return &WriteDataCallback{writer: w}
}

// OnSubjectEnd implements Callback.
func (c *WriteDataCallback) OnSubjectEnd(ev *SubjectEndEvent) error {
	idx := util.FormatIndex(ev.SubjectIndex, ev.SubjectCount)
	if err := c.writer.Write(KeySequences+"/"+idx, ev.Images); err != nil {
		return err
	}
	if ev.HasGT {
		if err := c.writer.Write(KeyGTs+"/"+idx, ev.Labels); err != nil {
			return err
		}
	}
	return nil
}
