package main

import (
	"fmt"
	"strconv"
	"strings"
)

// AtomRange formats the 1-based atom range start through end for an
// xtb atom list, collapsing a single atom to its index
func AtomRange(start, end int) string {
	if start == end {
		return strconv.Itoa(start)
	}
	return fmt.Sprintf("%d-%d", start, end)
}

// parseFloat parses s with strconv.ParseFloat after converting Fortran
// D exponents
func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(
		strings.Replace(strings.Replace(s, "D", "E", 1), "d", "e", 1),
		64,
	)
}
