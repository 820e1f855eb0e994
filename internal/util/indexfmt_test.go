package util

import "testing"

func TestIndexWidth(t *testing.T) {
	tests := []struct {
		total    int
		expected int
	}{
		{0, 1},
		{3, 1},
		{9, 1},
		{10, 2},
		{99, 2},
		{100, 3},
		{1000, 4},
		{-5, 1},
	}

	for _, tc := range tests {
		if got := IndexWidth(tc.total); got != tc.expected {
			t.Errorf("IndexWidth(%d) = %d, want %d", tc.total, got, tc.expected)
		}
	}
}

func TestFormatIndex(t *testing.T) {
	tests := []struct {
		index    int
		total    int
		expected string
	}{
		{0, 3, "0"},
		{2, 3, "2"},
		{0, 10, "00"},
		{7, 10, "07"},
		{42, 99, "42"},
		{7, 120, "007"},
		{119, 120, "119"},
	}

	for _, tc := range tests {
		if got := FormatIndex(tc.index, tc.total); got != tc.expected {
			t.Errorf("FormatIndex(%d, %d) = %q, want %q", tc.index, tc.total, got, tc.expected)
		}
	}
}
