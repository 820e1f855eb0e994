package dataset

import (
	"errors"
	"fmt"

	"github.com/mrsinham/dicompack/internal/archive"
)

var (
	// ErrNoImage is returned when an image file event carries no loaded
	// volume.
	ErrNoImage = errors.New("image file event carries no image")
	// ErrGeometryMismatch is returned when the sequences of one subject
	// disagree on size, direction or spacing.
	ErrGeometryMismatch = errors.New("subject geometry mismatch")
	// ErrSubjectOrder is returned when file events arrive with a
	// decreasing subject index, which breaks the once-per-subject
	// bookkeeping.
	ErrSubjectOrder = errors.New("subject events out of order")
)

// WriteImageInformationCallback records each subject's image geometry:
// size at meta/shapes, direction cosines at meta/directions and physical
// spacing at meta/spacing. Geometry is taken from the first sequence of a
// subject; remaining sequences are only checked for consistency. The
// bookkeeping relies on the driver delivering all file events of one
// subject contiguously with non-decreasing subject indices.
type WriteImageInformationCallback struct {
	NopCallback
	writer archive.Writer

	prev     int // last subject index recorded, -1 before the first
	prevGeom geometry
}

type geometry struct {
	size      [3]int
	direction [9]float64
	spacing   [3]float64
}

// NewWriteImageInformationCallback returns a callback writing into w.
func NewWriteImageInformationCallback(w archive.Writer) *WriteImageInformationCallback {
	return &WriteImageInformationCallback{writer: w, prev: -1}
}

// OnStart implements Callback.
func (c *WriteImageInformationCallback) OnStart(ev *StartEvent) error {
	n := len(ev.Subjects)
	if err := c.writer.Reserve(KeyShapes, []int{n, 3}, archive.Int64); err != nil {
		return err
	}
	if err := c.writer.Reserve(KeyDirections, []int{n, 9}, archive.Float64); err != nil {
		return err
	}
	return c.writer.Reserve(KeySpacing, []int{n, 3}, archive.Float64)
}

// OnImageFile implements Callback.
func (c *WriteImageInformationCallback) OnImageFile(ev *ImageFileEvent) error {
	if ev.Image == nil {
		return fmt.Errorf("%w: %s", ErrNoImage, ev.Path)
	}
	geom := geometry{
		size:      ev.Image.Size(),
		direction: ev.Image.Direction(),
		spacing:   ev.Image.Spacing(),
	}

	if ev.SubjectIndex == c.prev {
		if geom != c.prevGeom {
			return fmt.Errorf("%w: sequence %q of subject %q has size %v spacing %v, recorded %v %v",
				ErrGeometryMismatch, ev.SequenceName, ev.Subject,
				geom.size, geom.spacing, c.prevGeom.size, c.prevGeom.spacing)
		}
		return nil
	}
	if ev.SubjectIndex < c.prev {
		return fmt.Errorf("%w: subject index %d after %d", ErrSubjectOrder, ev.SubjectIndex, c.prev)
	}

	size := geom.size
	shape := []int64{int64(size[0]), int64(size[1]), int64(size[2])}
	if err := c.writer.Fill(KeyShapes, shape, archive.At(ev.SubjectIndex)); err != nil {
		return err
	}
	direction := geom.direction
	if err := c.writer.Fill(KeyDirections, direction[:], archive.At(ev.SubjectIndex)); err != nil {
		return err
	}
	spacing := geom.spacing
	if err := c.writer.Fill(KeySpacing, spacing[:], archive.At(ev.SubjectIndex)); err != nil {
		return err
	}

	c.prev = ev.SubjectIndex
	c.prevGeom = geom
	return nil
}
