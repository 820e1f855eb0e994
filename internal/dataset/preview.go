package dataset

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/mrsinham/dicompack/internal/archive"
	"github.com/mrsinham/dicompack/internal/util"
)

// DefaultPreviewEdge is the longest thumbnail edge used when no size is
// configured.
const DefaultPreviewEdge = 128

// WritePreviewCallback renders an 8-bit thumbnail of each subject's first
// sequence at data/previews/<index>. The source is the middle slice,
// contrast-stretched to the full grey range and downscaled with bilinear
// interpolation so archives can be inspected without decoding voxel data.
type WritePreviewCallback struct {
	NopCallback
	writer  archive.Writer
	maxEdge int
}

// NewWritePreviewCallback returns a callback writing into w. maxEdge
// bounds the longest thumbnail edge; values below 1 select
// DefaultPreviewEdge.
func NewWritePreviewCallback(w archive.Writer, maxEdge int) *WritePreviewCallback {
	if maxEdge < 1 {
		maxEdge = DefaultPreviewEdge
	}
	return &WritePreviewCallback{writer: w, maxEdge: maxEdge}
}

// OnSubjectEnd implements Callback.
func (c *WritePreviewCallback) OnSubjectEnd(ev *SubjectEndEvent) error {
	if ev.Images == nil {
		return fmt.Errorf("%w: subject %q", ErrNoImage, ev.Subject)
	}
	voxels, ok := ev.Images.Data.([]uint16)
	if !ok {
		return fmt.Errorf("%w: subject %q voxels are %T", archive.ErrTypeMismatch, ev.Subject, ev.Images.Data)
	}
	if len(ev.Images.Shape) != 4 {
		return fmt.Errorf("subject %q voxels have shape %v, want rank 4", ev.Subject, ev.Images.Shape)
	}

	slices, rows, cols := ev.Images.Shape[1], ev.Images.Shape[2], ev.Images.Shape[3]
	plane := rows * cols
	mid := voxels[(slices/2)*plane : (slices/2)*plane+plane] // first sequence

	src := image.NewGray16(image.Rect(0, 0, cols, rows))
	lo, hi := mid[0], mid[0]
	for _, v := range mid {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	scale := float64(0)
	if hi > lo {
		scale = 65535 / float64(hi-lo)
	}
	for i, v := range mid {
		g := uint16(float64(v-lo) * scale)
		src.Pix[2*i] = uint8(g >> 8)
		src.Pix[2*i+1] = uint8(g)
	}

	tw, th := thumbSize(cols, rows, c.maxEdge)
	dst := image.NewGray(image.Rect(0, 0, tw, th))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	arr := &archive.Array{
		DType: archive.Uint8,
		Shape: []int{th, tw},
		Data:  dst.Pix,
	}
	idx := util.FormatIndex(ev.SubjectIndex, ev.SubjectCount)
	return c.writer.Write(KeyPreviews+"/"+idx, arr)
}

// thumbSize shrinks (w, h) so the longest edge is maxEdge, keeping the
// aspect ratio. Images already within bounds keep their size.
func thumbSize(w, h, maxEdge int) (int, int) {
	if w <= maxEdge && h <= maxEdge {
		return w, h
	}
	if w >= h {
		th := h * maxEdge / w
		if th < 1 {
			th = 1
		}
		return maxEdge, th
	}
	tw := w * maxEdge / h
	if tw < 1 {
		tw = 1
	}
	return tw, maxEdge
}
