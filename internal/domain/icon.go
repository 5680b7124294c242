package domain

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxIconTitleLength is the longest title accepted for an uploaded icon, in runes.
const MaxIconTitleLength = 255

// AllowedExtensions lists the file extensions an uploaded icon may carry, lower-case.
var AllowedExtensions = []string{"gif", "jpg", "jpeg", "png"}

// Icon is an uploaded image that can be assigned to boards by reference.
// The permanent file is stored as "{ID}-{FileHash}.{FileExtension}".
type Icon struct {
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Title         string    `json:"title"`
	FileHash      string    `json:"file_hash"`      // SHA-256 hex of the file content
	FileExtension string    `json:"file_extension"` // gif, jpg, jpeg or png
	BlurHash      string    `json:"blur_hash,omitempty"`
	ID            int64     `json:"id"`
	FileSize      int64     `json:"file_size"`
}

// FileName returns the permanent file name relative to the icon directory.
func (i *Icon) FileName() string {
	return fmt.Sprintf("%d-%s.%s", i.ID, i.FileHash, i.FileExtension)
}

// Reference returns the glyph value that assigns this icon to a board.
func (i *Icon) Reference() string {
	return UploadedRef(i.ID)
}

// Touch updates the UpdatedAt timestamp.
func (i *Icon) Touch() {
	i.UpdatedAt = time.Now()
}

// NormalizeExtension lower-cases ext, strips a leading dot and reports whether it is allowed.
func NormalizeExtension(ext string) (string, bool) {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	return ext, slices.Contains(AllowedExtensions, ext)
}

// NormalizeTitle trims and NFC-normalizes an icon title.
// Returns false if the result is empty or longer than MaxIconTitleLength.
func NormalizeTitle(title string) (string, bool) {
	title = norm.NFC.String(strings.TrimSpace(title))
	if title == "" || utf8.RuneCountInString(title) > MaxIconTitleLength {
		return title, false
	}
	return title, true
}
