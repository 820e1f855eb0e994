package archive

import "fmt"

// IndexExpression addresses a region of an array by fixing one or more
// leading axes: At(i) selects row i of a matrix, At(i, j) the single cell
// at row i column j. The zero value addresses the whole array.
type IndexExpression struct {
	axes []int
}

// At returns an expression fixing the given leading axes.
func At(indices ...int) IndexExpression {
	return IndexExpression{axes: indices}
}

// Resolve maps the expression onto an array of the given shape, returning
// the flat element offset of the addressed region and its length.
func (e IndexExpression) Resolve(shape []int) (offset, length int, err error) {
	if len(e.axes) > len(shape) {
		return 0, 0, fmt.Errorf("%w: %d indices into rank-%d array", ErrOutOfBounds, len(e.axes), len(shape))
	}
	length = 1
	for _, dim := range shape[len(e.axes):] {
		length *= dim
	}
	stride := length
	for k := len(e.axes) - 1; k >= 0; k-- {
		idx := e.axes[k]
		if idx < 0 || idx >= shape[k] {
			return 0, 0, fmt.Errorf("%w: index %d on axis %d of shape %v", ErrOutOfBounds, idx, k, shape)
		}
		offset += idx * stride
		stride *= shape[k]
	}
	return offset, length, nil
}

// String renders the fixed axes for error messages.
func (e IndexExpression) String() string {
	return fmt.Sprintf("%v", e.axes)
}
