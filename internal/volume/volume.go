// Package volume loads DICOM image volumes and exposes the acquisition
// geometry that dataset builds record alongside the voxel data.
package volume

// Image describes the geometry of a loaded image volume. Size is given as
// columns, rows, slices. Direction is the row-major 3x3 matrix whose
// columns are the physical-space directions of the three volume axes.
// Spacing is the physical step per axis in millimeters, in the same
// column, row, slice order.
type Image interface {
	Size() [3]int
	Direction() [9]float64
	Spacing() [3]float64
}

// Volume is an in-memory image volume with 16-bit voxels. Voxels are laid
// out slice-major: the voxel at column x, row y, slice z lives at index
// (z*Rows+y)*Cols + x.
type Volume struct {
	Cols   int
	Rows   int
	Slices int
	Dir    [9]float64
	Spc    [3]float64
	Voxels []uint16
}

// Size implements Image.
func (v *Volume) Size() [3]int {
	return [3]int{v.Cols, v.Rows, v.Slices}
}

// Direction implements Image.
func (v *Volume) Direction() [9]float64 {
	return v.Dir
}

// Spacing implements Image.
func (v *Volume) Spacing() [3]float64 {
	return v.Spc
}

// NumVoxels returns the total voxel count.
func (v *Volume) NumVoxels() int {
	return v.Cols * v.Rows * v.Slices
}

// At returns the voxel at column x, row y, slice z.
func (v *Volume) At(x, y, z int) uint16 {
	return v.Voxels[(z*v.Rows+y)*v.Cols+x]
}

// MidSlice returns a copy of the middle slice in row-major order, used
// for preview rendering.
func (v *Volume) MidSlice() []uint16 {
	n := v.Rows * v.Cols
	out := make([]uint16, n)
	copy(out, v.Voxels[(v.Slices/2)*n:])
	return out
}

// IdentityDirection is the direction matrix of an axis-aligned volume.
var IdentityDirection = [9]float64{
	1, 0, 0,
	0, 1, 0,
	0, 0, 1,
}
