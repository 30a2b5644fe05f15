// Package export hands document text to a "save bytes as a named file"
// collaborator: any io.Writer, a file on disk, or an HTTP response.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	DefaultName = "documento"
	Extension   = ".txt"
	ContentType = "text/plain; charset=utf-8"
)

// Filename derives the download name from a display title: every rune
// outside [a-zA-Z0-9] becomes '_' and the result is lower-cased.
func Filename(title string) string {
	if title == "" {
		return DefaultName + Extension
	}
	var sb strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			sb.WriteRune(r + ('a' - 'A'))
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String() + Extension
}

func WriteText(w io.Writer, content string) error {
	if _, err := io.WriteString(w, content); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// SaveFile writes content to dir under the name derived from title and
// returns the path written.
func SaveFile(dir, title, content string) (string, error) {
	path := filepath.Join(dir, Filename(title))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("save export: %w", err)
	}
	return path, nil
}
