package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mrsinham/dicompack/internal/archive"
)

// WriteStatsCallback records per-subject intensity statistics over the
// stacked sequence voxels at meta/intensity_stats. Each row holds
// minimum, maximum, mean and sample standard deviation.
type WriteStatsCallback struct {
	NopCallback
	writer archive.Writer
}

// NewWriteStatsCallback returns a callback writing into w.
func NewWriteStatsCallback(w archive.Writer) *WriteStatsCallback {
	return &WriteStatsCallback{writer: w}
}

// OnStart implements Callback.
func (c *WriteStatsCallback) OnStart(ev *StartEvent) error {
	return c.writer.Reserve(KeyIntensityStats, []int{len(ev.Subjects), 4}, archive.Float64)
}

// OnSubjectEnd implements Callback.
func (c *WriteStatsCallback) OnSubjectEnd(ev *SubjectEndEvent) error {
	if ev.Images == nil {
		return fmt.Errorf("%w: subject %q", ErrNoImage, ev.Subject)
	}
	voxels, ok := ev.Images.Data.([]uint16)
	if !ok {
		return fmt.Errorf("%w: subject %q voxels are %T", archive.ErrTypeMismatch, ev.Subject, ev.Images.Data)
	}
	if len(voxels) == 0 {
		return fmt.Errorf("subject %q has no voxels", ev.Subject)
	}

	samples := make([]float64, len(voxels))
	for i, v := range voxels {
		samples[i] = float64(v)
	}
	row := []float64{
		floats.Min(samples),
		floats.Max(samples),
		stat.Mean(samples, nil),
		stat.StdDev(samples, nil),
	}
	return c.writer.Fill(KeyIntensityStats, row, archive.At(ev.SubjectIndex))
}
