package util

import (
	"os"
)

// GinContextKey is the key for gin contexts stored inside request contexts
const GinContextKey string = "GinContextKey"

// Contains checks whether an item exists in a slice
func Contains[T comparable](s []T, item T) bool {
	for _, v := range s {
		if v == item {
			return true
		}
	}
	return false
}

// ContainsString checks whether an item exists in a slice of strings
func ContainsString(s []string, str string) bool {
	return Contains(s, str)
}

// FileExists reports whether path exists and is a regular file
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
