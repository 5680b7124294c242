package domain

import (
	"fmt"
	"regexp"
	"strconv"
)

// DefaultColor is the color the editor pre-selects when a color is first enabled.
const DefaultColor = "rgba(0, 0, 0, 1)"

var (
	// Uploaded icon references. "wbbBoardIcon<N>" is the legacy spelling still found in stored data.
	uploadedRefPattern = regexp.MustCompile(`^(?:wbbBoardIcon|icon)(\d+)$`)

	colorPattern = regexp.MustCompile(`^rgba\((\d{1,3}), (\d{1,3}), (\d{1,3}), (1|1\.00?|0|0?\.[0-9]{1,2})\)$`)
)

// Assignment is the icon shown for one state of a board: a library glyph name or
// an uploaded icon reference, plus an optional color.
// Color is ignored when Glyph references an uploaded icon.
type Assignment struct {
	Glyph string `json:"glyph" yaml:"glyph,omitempty"`
	Color string `json:"color" yaml:"color,omitempty"`
}

// IsZero reports whether neither glyph nor color is set.
func (a Assignment) IsZero() bool {
	return a.Glyph == "" && a.Color == ""
}

// UploadedID returns the icon id if Glyph references an uploaded icon.
func (a Assignment) UploadedID() (int64, bool) {
	return ParseUploadedRef(a.Glyph)
}

// UploadedRef returns the canonical reference for an uploaded icon.
func UploadedRef(iconID int64) string {
	return fmt.Sprintf("icon%d", iconID)
}

// ParseUploadedRef extracts the icon id from "icon<N>" or "wbbBoardIcon<N>".
func ParseUploadedRef(glyph string) (int64, bool) {
	m := uploadedRefPattern.FindStringSubmatch(glyph)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// ValidColor reports whether c has the form "rgba(r, g, b, a)" with channels in 0-255.
func ValidColor(c string) bool {
	m := colorPattern.FindStringSubmatch(c)
	if m == nil {
		return false
	}
	for _, channel := range m[1:4] {
		if v, err := strconv.Atoi(channel); err != nil || v > 255 {
			return false
		}
	}
	return true
}
