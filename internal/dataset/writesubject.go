package dataset

import "github.com/mrsinham/dicompack/internal/archive"

// WriteSubjectCallback records the subject identifiers at meta/subjects,
// one slot per subject in traversal order.
type WriteSubjectCallback struct {
	NopCallback
	writer archive.Writer
}

// NewWriteSubjectCallback returns a callback writing into w.
func NewWriteSubjectCallback(w archive.Writer) *WriteSubjectCallback {
	return &WriteSubjectCallback{writer: w}
}

// OnStart implements Callback.
func (c *WriteSubjectCallback) OnStart(ev *StartEvent) error {
	return c.writer.Reserve(KeySubjects, []int{len(ev.Subjects)}, archive.Str)
}

// OnSubjectStart implements Callback.
func (c *WriteSubjectCallback) OnSubjectStart(ev *SubjectStartEvent) error {
	return c.writer.Fill(KeySubjects, ev.Subject, archive.At(ev.SubjectIndex))
}
