package util

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/segmentio/ksuid"
)

// UniqueFilename derives a collision-safe name for an uploaded file, keeping
// the original extension and defaulting to jpg when there is none.
func UniqueFilename(originalName string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalName), "."))
	if ext == "" {
		ext = "jpg"
	}
	return fmt.Sprintf("%s.%s", ksuid.New().String(), ext)
}
