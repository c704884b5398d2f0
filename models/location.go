package models

import "strings"

// LocationSeparator splits "<place> - <date>" location strings.
const LocationSeparator = " - "

// SplitLocation returns the place part of a location string. A string without
// a separator is returned as-is.
func SplitLocation(location string) string {
	i := strings.LastIndex(location, LocationSeparator)
	if i < 0 {
		return strings.TrimSpace(location)
	}
	return strings.TrimSpace(location[:i])
}

// DateExpression returns the trailing date segment of a location string. A
// string without a separator is its own single segment.
func DateExpression(location string) string {
	i := strings.LastIndex(location, LocationSeparator)
	if i < 0 {
		return strings.TrimSpace(location)
	}
	return strings.TrimSpace(location[i+len(LocationSeparator):])
}
