package models

// Range is a pair of sequence coordinates, start first.
type Range [2]int

// Start returns the first coordinate of the range.
func (r Range) Start() int { return r[0] }

// End returns the second coordinate of the range.
func (r Range) End() int { return r[1] }
