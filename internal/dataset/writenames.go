package dataset

import "github.com/mrsinham/dicompack/internal/archive"

// WriteNamesCallback records the ordered sequence-name list at
// meta/sequence_names and, for builds with ground truth, the gt-name list
// at meta/gt_names. Both are written once at start.
type WriteNamesCallback struct {
	NopCallback
	writer archive.Writer
}

// NewWriteNamesCallback returns a callback writing into w.
func NewWriteNamesCallback(w archive.Writer) *WriteNamesCallback {
	return &WriteNamesCallback{writer: w}
}

// OnStart implements Callback.
func (c *WriteNamesCallback) OnStart(ev *StartEvent) error {
	if err := c.writer.Write(KeySequenceNames, ev.SequenceNames); err != nil {
		return err
	}
	if ev.HasGT {
		if err := c.writer.Write(KeyGTNames, ev.GTNames); err != nil {
			return err
		}
	}
	return nil
}
