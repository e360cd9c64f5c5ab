package file

import (
	"path/filepath"
	"strings"
)

// ReplaceExt swaps the extension of path. ext may be given with or without
// the leading dot; an empty ext strips the extension.
func ReplaceExt(path, ext string) string {
	if path == "" {
		return path
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return stem(path) + ext
}

// WithSuffix inserts a dotted suffix before the extension:
// "ep1.srt" with suffix "zh-Hant" becomes "ep1.zh-Hant.srt".
func WithSuffix(path, suffix string) string {
	if path == "" || suffix == "" {
		return path
	}
	return stem(path) + "." + suffix + filepath.Ext(filepath.Base(path))
}

// HasSuffix reports whether the file name carries suffix right before its extension.
func HasSuffix(path, suffix string) bool {
	if suffix == "" {
		return false
	}
	return strings.HasSuffix(filepath.Base(stem(path)), "."+suffix)
}

func stem(path string) string {
	base := filepath.Base(path)
	lastDot := strings.LastIndex(base, ".")
	if lastDot <= 0 {
		return path
	}
	return path[:len(path)-(len(base)-lastDot)]
}
