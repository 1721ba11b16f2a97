// Package static maps request paths to files under a root directory and
// streams them to the client.
package static

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"easyserver/internal/errors"
	"easyserver/internal/paths"
)

// DefaultIndexFiles are tried, in order, for paths ending in '/'
var DefaultIndexFiles = []string{"index.html", "index.htm"}

// File is an opened static file. The caller owns it and must Close it.
type File struct {
	Path        string
	ContentType string
	Size        int64
	ModTime     time.Time

	handle *os.File
}

// Read reads from the underlying file
func (f *File) Read(p []byte) (int, error) {
	return f.handle.Read(p)
}

// Close closes the underlying file
func (f *File) Close() error {
	return f.handle.Close()
}

// Resolver resolves request paths under a fixed root
type Resolver struct {
	root       string
	indexFiles []string
}

// NewResolver creates a resolver rooted at root. The root is made absolute
// and always carries a trailing separator.
func NewResolver(root string, indexFiles []string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve static root: %w", err)
	}
	if !strings.HasSuffix(abs, string(filepath.Separator)) {
		abs += string(filepath.Separator)
	}
	if indexFiles == nil {
		indexFiles = DefaultIndexFiles
	}
	return &Resolver{root: abs, indexFiles: indexFiles}, nil
}

// Root returns the absolute root directory, ending in a separator
func (r *Resolver) Root() string {
	return r.root
}

// Resolve opens the file for reqPath.
//
// The leading '/' is dropped and the rest is appended to the root as is.
// A path ending in a separator gets the first existing index file. Paths
// that land outside the root or on a directory fail with Forbidden; files
// that cannot be opened fail with NotFound.
func (r *Resolver) Resolve(reqPath string) (*File, error) {
	rel := strings.TrimPrefix(reqPath, "/")
	path := r.root + filepath.FromSlash(rel)

	if strings.HasSuffix(path, string(filepath.Separator)) {
		for _, index := range r.indexFiles {
			if isFile(path + index) {
				path += index
				break
			}
		}
	}

	if !paths.IsWithinRoot(path, r.root) {
		return nil, errors.New(errors.Forbidden, "Forbidden", nil).
			WithDetail("Request forbidden -- path escapes the document root")
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return nil, errors.New(errors.Forbidden, "Forbidden", nil).
			WithDetail("Request forbidden -- directory listing is not allowed")
	}

	handle, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.NotFound, "Not Found", err).
			WithDetail("Nothing matches the given URI")
	}

	info, err := handle.Stat()
	if err != nil {
		_ = handle.Close()
		return nil, errors.New(errors.InternalError, "Internal Server Error", err)
	}
	if info.IsDir() {
		_ = handle.Close()
		return nil, errors.New(errors.Forbidden, "Forbidden", nil).
			WithDetail("Request forbidden -- directory listing is not allowed")
	}

	return &File{
		Path:        path,
		ContentType: ContentTypeFor(path),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		handle:      handle,
	}, nil
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
