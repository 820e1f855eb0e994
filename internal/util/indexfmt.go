// Package util provides small helpers shared across dicompack packages.
package util

import (
	"fmt"
	"strconv"
)

// IndexWidth returns the number of decimal digits of total, which is the
// fixed width used when formatting indices of a collection of that size
// (3 subjects -> 1 digit, 10-99 -> 2 digits, 100 -> 3 digits).
func IndexWidth(total int) int {
	if total < 0 {
		total = 0
	}
	return len(strconv.Itoa(total))
}

// FormatIndex renders index as a zero-padded decimal string whose width is
// derived from total, so every index of a collection of that size formats
// to the same number of digits: FormatIndex(7, 120) == "007".
func FormatIndex(index, total int) string {
	return fmt.Sprintf("%0*d", IndexWidth(total), index)
}
