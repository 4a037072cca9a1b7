package util

import (
	"errors"
	"strings"
	"unicode"
)

const maxFileNameRunes = 128

// SanitizeFileName flattens an uploaded file name into a single safe path
// segment. Separators and control characters become "_"; names made only
// of dots, or containing "..", are rejected.
func SanitizeFileName(name string) (string, error) {
	s := strings.TrimSpace(name)
	if s == "" || strings.Contains(s, "..") {
		return "", errors.New("invalid file name")
	}
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ':':
			return '_'
		case unicode.IsControl(r):
			return '_'
		default:
			return r
		}
	}, s)
	if strings.Trim(s, "._") == "" {
		return "", errors.New("invalid file name")
	}
	if runes := []rune(s); len(runes) > maxFileNameRunes {
		s = string(runes[len(runes)-maxFileNameRunes:])
	}
	return s, nil
}
