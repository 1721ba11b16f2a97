package static

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"easyserver/internal/errors"
)

// ChunkSize is the size of each body write
const ChunkSize = 16 * 1024

// Serve writes f to w: headers first, then the body in ChunkSize pieces.
//
// A request whose If-Modified-Since is not older than the file gets 304
// and no body. A read or write failure after the headers went out is
// returned as StreamFailed; the status line cannot be changed by then.
// Serve does not close f.
func Serve(w http.ResponseWriter, r *http.Request, f *File) error {
	if notModified(r, f.ModTime) {
		w.WriteHeader(http.StatusNotModified)
		return nil
	}

	h := w.Header()
	h.Set("Content-Type", f.ContentType)
	h.Set("Content-Length", strconv.FormatInt(f.Size, 10))
	h.Set("Last-Modified", f.ModTime.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)

	buf := make([]byte, ChunkSize)
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				return errors.New(errors.StreamFailed, "Internal Server Error", err)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return errors.New(errors.StreamFailed, "Internal Server Error", readErr)
		}
	}
}

func notModified(r *http.Request, modTime time.Time) bool {
	ims := r.Header.Get("If-Modified-Since")
	if ims == "" {
		return false
	}
	t, err := http.ParseTime(ims)
	if err != nil {
		return false
	}
	return !modTime.Truncate(time.Second).After(t)
}
