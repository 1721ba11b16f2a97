package static

import (
	"path/filepath"
	"strings"
)

// DefaultContentType is used for unmapped or missing extensions
const DefaultContentType = "text/plain"

var extensionTypes = map[string]string{
	"py":   "text/plain",
	"c":    "text/plain",
	"h":    "text/plain",
	"cpp":  "text/plain",
	"html": "text/html",
	"htm":  "text/html",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"gif":  "image/gif",
	"png":  "image/png",
	"svg":  "image/svg+xml",
	"css":  "text/css",
	"js":   "application/javascript",
	"json": "application/json",
}

// ContentTypeFor maps a file name to a content type by its lowercased extension
func ContentTypeFor(name string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ct, ok := extensionTypes[ext]; ok {
		return ct
	}
	return DefaultContentType
}
