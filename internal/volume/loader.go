package volume

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/frame"
	"github.com/suyashkumar/dicom/pkg/tag"
)

var (
	// ErrNoSlices is returned when a series directory contains no
	// readable DICOM files.
	ErrNoSlices = errors.New("no dicom slices found")
	// ErrInconsistent is returned when the slices of a series disagree
	// on matrix size, orientation or pixel spacing.
	ErrInconsistent = errors.New("inconsistent series geometry")
)

// Loader turns a manifest file entry into a Volume. The path may point to
// a single DICOM file or to a directory holding one series.
type Loader interface {
	Load(path string) (*Volume, error)
}

// SeriesLoader reads DICOM volumes with the native transfer syntaxes.
// Slices of a directory series are ordered by InstanceNumber when every
// slice carries a distinct one, otherwise by their position along the
// volume normal.
type SeriesLoader struct{}

// Load implements Loader.
func (SeriesLoader) Load(path string) (*Volume, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	var files []string
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("read series directory %s: %w", path, err)
		}
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			files = append(files, filepath.Join(path, e.Name()))
		}
		sort.Strings(files)
	} else {
		files = []string{path}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSlices, path)
	}

	var slices []*sliceData
	for _, f := range files {
		fileSlices, err := readSlices(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		slices = append(slices, fileSlices...)
	}
	return assemble(slices, path)
}

// sliceData holds one frame and the geometry tags of the file it came from.
type sliceData struct {
	rows, cols int
	pixels     []uint16

	orient    [6]float64 // row then column direction cosines
	hasOrient bool

	position [3]float64
	hasPos   bool

	instance    int
	hasInstance bool

	rowSpacing, colSpacing float64
	hasPixelSpacing        bool

	sliceSpacing float64 // SpacingBetweenSlices, falling back to SliceThickness
}

// readSlices parses one DICOM file. Multi-frame files yield one slice per
// frame, all sharing the file's geometry.
func readSlices(path string) ([]*sliceData, error) {
	ds, err := dicom.ParseFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("parse dicom: %w", err)
	}

	base := &sliceData{}
	if base.rows, err = intTag(&ds, tag.Rows); err != nil {
		return nil, err
	}
	if base.cols, err = intTag(&ds, tag.Columns); err != nil {
		return nil, err
	}

	if vals, err := floatsTag(&ds, tag.ImageOrientationPatient, 6); err == nil {
		copy(base.orient[:], vals)
		base.hasOrient = true
	}
	if vals, err := floatsTag(&ds, tag.ImagePositionPatient, 3); err == nil {
		copy(base.position[:], vals)
		base.hasPos = true
	}
	if vals, err := floatsTag(&ds, tag.PixelSpacing, 2); err == nil {
		base.rowSpacing, base.colSpacing = vals[0], vals[1]
		base.hasPixelSpacing = true
	}
	if vals, err := floatsTag(&ds, tag.SpacingBetweenSlices, 1); err == nil {
		base.sliceSpacing = vals[0]
	} else if vals, err := floatsTag(&ds, tag.SliceThickness, 1); err == nil {
		base.sliceSpacing = vals[0]
	}
	if v, err := intStringTag(&ds, tag.InstanceNumber); err == nil {
		base.instance = v
		base.hasInstance = true
	}

	frames, err := pixelFrames(&ds, base.rows, base.cols)
	if err != nil {
		return nil, err
	}

	out := make([]*sliceData, len(frames))
	for i, pixels := range frames {
		s := *base
		s.pixels = pixels
		out[i] = &s
	}
	return out, nil
}

// pixelFrames decodes the native pixel data of every frame, widening 8-bit
// samples to the volume's 16-bit representation.
func pixelFrames(ds *dicom.Dataset, rows, cols int) ([][]uint16, error) {
	elem, err := ds.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, fmt.Errorf("missing pixel data")
	}
	info, ok := elem.Value.GetValue().(dicom.PixelDataInfo)
	if !ok {
		return nil, fmt.Errorf("unexpected pixel data value %T", elem.Value.GetValue())
	}
	if info.IsEncapsulated {
		return nil, fmt.Errorf("encapsulated transfer syntaxes are not supported")
	}
	if len(info.Frames) == 0 {
		return nil, fmt.Errorf("pixel data holds no frames")
	}

	want := rows * cols
	out := make([][]uint16, 0, len(info.Frames))
	for i, fr := range info.Frames {
		if fr.Encapsulated {
			return nil, fmt.Errorf("frame %d is encapsulated", i)
		}
		var pixels []uint16
		switch nf := fr.NativeData.(type) {
		case *frame.NativeFrame[uint8]:
			pixels = make([]uint16, len(nf.RawData))
			for j, v := range nf.RawData {
				pixels[j] = uint16(v)
			}
		case *frame.NativeFrame[uint16]:
			pixels = make([]uint16, len(nf.RawData))
			copy(pixels, nf.RawData)
		default:
			return nil, fmt.Errorf("unsupported pixel representation %T", fr.NativeData)
		}
		if len(pixels) != want {
			return nil, fmt.Errorf("frame %d has %d pixels, want %dx%d", i, len(pixels), rows, cols)
		}
		out = append(out, pixels)
	}
	return out, nil
}

// assemble orders the slices and stacks them into a Volume.
func assemble(slices []*sliceData, path string) (*Volume, error) {
	first := slices[0]
	for _, s := range slices[1:] {
		if s.rows != first.rows || s.cols != first.cols {
			return nil, fmt.Errorf("%w: matrix %dx%d vs %dx%d in %s",
				ErrInconsistent, s.cols, s.rows, first.cols, first.rows, path)
		}
		if s.hasOrient != first.hasOrient || s.orient != first.orient {
			return nil, fmt.Errorf("%w: image orientation differs in %s", ErrInconsistent, path)
		}
		if s.hasPixelSpacing != first.hasPixelSpacing ||
			s.rowSpacing != first.rowSpacing || s.colSpacing != first.colSpacing {
			return nil, fmt.Errorf("%w: pixel spacing differs in %s", ErrInconsistent, path)
		}
	}

	rowDir := [3]float64{1, 0, 0}
	colDir := [3]float64{0, 1, 0}
	if first.hasOrient {
		rowDir = [3]float64{first.orient[0], first.orient[1], first.orient[2]}
		colDir = [3]float64{first.orient[3], first.orient[4], first.orient[5]}
	}
	normal := cross(rowDir, colDir)

	orderSlices(slices, normal)

	spacing := [3]float64{1, 1, 1}
	if first.hasPixelSpacing {
		// PixelSpacing is row spacing then column spacing; the volume
		// spacing vector is per axis, column step first.
		spacing[0] = first.colSpacing
		spacing[1] = first.rowSpacing
	}
	spacing[2] = sliceStep(slices, normal)

	planeSize := first.rows * first.cols
	voxels := make([]uint16, planeSize*len(slices))
	for k, s := range slices {
		copy(voxels[k*planeSize:], s.pixels)
	}

	return &Volume{
		Cols:   first.cols,
		Rows:   first.rows,
		Slices: len(slices),
		Dir: [9]float64{
			rowDir[0], colDir[0], normal[0],
			rowDir[1], colDir[1], normal[1],
			rowDir[2], colDir[2], normal[2],
		},
		Spc:    spacing,
		Voxels: voxels,
	}, nil
}

// orderSlices sorts by InstanceNumber when every slice has a distinct one,
// otherwise by position projected on the volume normal. Without either the
// incoming filename order is kept.
func orderSlices(slices []*sliceData, normal [3]float64) {
	distinct := make(map[int]bool, len(slices))
	byInstance := true
	for _, s := range slices {
		if !s.hasInstance || distinct[s.instance] {
			byInstance = false
			break
		}
		distinct[s.instance] = true
	}
	if byInstance {
		sort.SliceStable(slices, func(i, j int) bool {
			return slices[i].instance < slices[j].instance
		})
		return
	}

	for _, s := range slices {
		if !s.hasPos {
			return
		}
	}
	sort.SliceStable(slices, func(i, j int) bool {
		return dot(slices[i].position, normal) < dot(slices[j].position, normal)
	})
}

// sliceStep derives the out-of-plane spacing, preferring the measured
// distance between slice positions over the spacing tags.
func sliceStep(slices []*sliceData, normal [3]float64) float64 {
	if len(slices) > 1 {
		allPos := true
		for _, s := range slices {
			if !s.hasPos {
				allPos = false
				break
			}
		}
		if allPos {
			lo := dot(slices[0].position, normal)
			hi := dot(slices[len(slices)-1].position, normal)
			if step := math.Abs(hi-lo) / float64(len(slices)-1); step > 0 {
				return step
			}
		}
	}
	if slices[0].sliceSpacing > 0 {
		return slices[0].sliceSpacing
	}
	return 1
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// intTag reads the first value of an integer element such as Rows.
func intTag(ds *dicom.Dataset, t tag.Tag) (int, error) {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return 0, fmt.Errorf("missing tag %v", t)
	}
	vals, ok := elem.Value.GetValue().([]int)
	if !ok || len(vals) == 0 {
		return 0, fmt.Errorf("tag %v holds no integer", t)
	}
	return vals[0], nil
}

// intStringTag reads an integer stored with the IS value representation,
// such as InstanceNumber.
func intStringTag(ds *dicom.Dataset, t tag.Tag) (int, error) {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return 0, fmt.Errorf("missing tag %v", t)
	}
	strs, ok := elem.Value.GetValue().([]string)
	if !ok || len(strs) == 0 {
		return 0, fmt.Errorf("tag %v holds no value", t)
	}
	v, err := strconv.Atoi(strings.TrimSpace(strs[0]))
	if err != nil {
		return 0, fmt.Errorf("tag %v: %w", t, err)
	}
	return v, nil
}

// floatsTag reads n decimal string values, as used by PixelSpacing and
// ImageOrientationPatient.
func floatsTag(ds *dicom.Dataset, t tag.Tag, n int) ([]float64, error) {
	elem, err := ds.FindElementByTag(t)
	if err != nil {
		return nil, fmt.Errorf("missing tag %v", t)
	}
	strs, ok := elem.Value.GetValue().([]string)
	if !ok || len(strs) < n {
		return nil, fmt.Errorf("tag %v holds %d values, want %d", t, len(strs), n)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(strs[i]), 64)
		if err != nil {
			return nil, fmt.Errorf("tag %v: %w", t, err)
		}
		out[i] = v
	}
	return out, nil
}
