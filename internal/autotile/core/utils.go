package core

import (
	"fmt"
	"sort"
)

// IntToStringFixedWidth converts an integer to a string of a specified width,
// left-padding with spaces if the number string is shorter than the width.
func IntToStringFixedWidth(num int, width int) string {
	return fmt.Sprintf("%*d", width, num)
}

// SortCoordinates sorts coordinates in place, row-major
func SortCoordinates(cs []Coordinate) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].Less(cs[j]) })
}

// CoordinateSet is an insertion-deduplicated set of coordinates
type CoordinateSet map[Coordinate]struct{}

func (s CoordinateSet) Add(c Coordinate) { s[c] = struct{}{} }
func (s CoordinateSet) Has(c Coordinate) bool {
	_, ok := s[c]
	return ok
}

// Sorted returns the members in row-major order
func (s CoordinateSet) Sorted() []Coordinate {
	out := make([]Coordinate, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	SortCoordinates(out)
	return out
}
