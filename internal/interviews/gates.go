package interviews

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	DefaultMaxUploadMB   = 5
	DefaultMinTextLength = 100
)

// Gates holds the upload size limit and the minimum text length.
type Gates struct {
	MaxUploadMB   int
	MinTextLength int
}

// DefaultGates returns the 5 MB / 100 character limits.
func DefaultGates() Gates {
	return Gates{MaxUploadMB: DefaultMaxUploadMB, MinTextLength: DefaultMinTextLength}
}

// MaxBytes is the largest accepted upload in bytes.
func (g Gates) MaxBytes() int64 {
	return int64(g.MaxUploadMB) << 20
}

// SizeMB converts a byte count to binary megabytes.
func SizeMB(n int64) float64 {
	return float64(n) / (1024 * 1024)
}

// CheckSize rejects uploads strictly larger than the limit.
func (g Gates) CheckSize(size int64) error {
	if SizeMB(size) > float64(g.MaxUploadMB) {
		return fmt.Errorf("%w: %.2f MB exceeds %d MB", ErrFileTooLarge, SizeMB(size), g.MaxUploadMB)
	}
	return nil
}

// SizeMessage is the warning shown for an oversized upload.
func (g Gates) SizeMessage() string {
	return fmt.Sprintf("File size exceeds %d MB.", g.MaxUploadMB)
}

// CheckContent rejects text with fewer than MinTextLength characters
// once surrounding whitespace is trimmed.
func (g Gates) CheckContent(text string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n < g.MinTextLength {
		return fmt.Errorf("%w: %d of %d characters", ErrContentTooShort, n, g.MinTextLength)
	}
	return nil
}
