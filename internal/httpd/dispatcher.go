package httpd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"

	"easyserver/internal/errors"
	"easyserver/internal/params"
	"easyserver/internal/router"
	"easyserver/internal/session"
	"easyserver/internal/slogutil"
	"easyserver/internal/static"
)

// genericExplain replaces diagnostics when verbose errors are off
const genericExplain = "The server encountered an internal error."

// Dispatcher turns each request into exactly one of: a handler call, a
// static file, or an error page.
type Dispatcher struct {
	routes       *router.Table
	sessions     session.Store
	static       *static.Resolver
	cookieName   string
	maxBodyBytes int64
	verbose      bool
	logger       *slog.Logger
}

// panicError carries a recovered panic value and the stack at recovery
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// ServeHTTP implements http.Handler
func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tw := &trackingWriter{ResponseWriter: w}

	defer func() {
		if rec := recover(); rec != nil {
			d.fail(tw, r, &panicError{value: rec, stack: debug.Stack()})
		}
	}()

	path, rawQuery := splitTarget(requestTarget(r))

	switch r.Method {
	case http.MethodGet:
		if h, ok := d.routes.Lookup(http.MethodGet, path); ok {
			d.invoke(tw, r, h, params.Parse(rawQuery))
			return
		}
		d.serveStatic(tw, r, path)

	case http.MethodPost:
		body, err := d.readBody(r)
		if err != nil {
			d.fail(tw, r, err)
			return
		}
		if h, ok := d.routes.Lookup(http.MethodPost, path); ok {
			d.invoke(tw, r, h, params.Parse(body))
			return
		}
		d.fail(tw, r, errors.New(errors.BadRequest, "Bad Request", nil).
			WithDetail("No handler is registered for POST "+path))

	default:
		d.fail(tw, r, errors.New(errors.NotImplemented, "Unsupported method ('"+r.Method+"')", nil))
	}
}

// requestTarget returns the raw target as sent on the request line
func requestTarget(r *http.Request) string {
	if strings.HasPrefix(r.RequestURI, "/") {
		return r.RequestURI
	}
	return r.URL.RequestURI()
}

// splitTarget splits a request target at the first '?'
func splitTarget(target string) (path, rawQuery string) {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		return target[:i], target[i+1:]
	}
	return target, ""
}

// readBody reads a POST body up to maxBodyBytes
func (d *Dispatcher) readBody(r *http.Request) (string, error) {
	if r.ContentLength > d.maxBodyBytes {
		return "", errors.New(errors.PayloadTooLarge, "Request Entity Too Large", nil).
			WithDetail("Request body exceeds " + strconv.FormatInt(d.maxBodyBytes, 10) + " bytes")
	}
	if r.Body == nil || r.ContentLength == 0 {
		return "", nil
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, d.maxBodyBytes+1))
	if err != nil {
		return "", errors.New(errors.BadRequest, "Bad Request", err).
			WithDetail("Could not read request body")
	}
	if int64(len(data)) > d.maxBodyBytes {
		return "", errors.New(errors.PayloadTooLarge, "Request Entity Too Large", nil).
			WithDetail("Request body exceeds " + strconv.FormatInt(d.maxBodyBytes, 10) + " bytes")
	}
	return string(data), nil
}

// invoke runs h and writes its output. A session created for this request
// is registered and handed to the client only when h succeeds.
func (d *Dispatcher) invoke(w *trackingWriter, r *http.Request, h router.Handler, p params.Params) {
	ctx := r.Context()
	sess, isNew := d.resolveSession(ctx, r)

	out, err := call(h, sess, p)
	if err != nil {
		if _, ok := errors.As(err); !ok {
			err = errors.New(errors.HandlerFailed, "handler failed", err)
		}
		d.fail(w, r, err)
		return
	}

	if isNew {
		if err := d.sessions.Register(ctx, sess); err != nil {
			d.fail(w, r, errors.New(errors.InternalError, "Internal Server Error", err))
			return
		}
		http.SetCookie(w, session.Cookie(d.cookieName, sess.ID))
	} else if err := d.sessions.Save(ctx, sess); err != nil {
		d.logger.Warn("Failed to save session",
			"error", err.Error(),
			slogutil.RequestIDKey, GetRequestID(ctx),
		)
	}

	body := []byte(out)
	hdr := w.Header()
	hdr.Set("Content-Type", "text/html")
	hdr.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// call invokes h, converting a panic into an error
func call(h router.Handler, sess *session.Session, p params.Params) (out string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if e, ok := rec.(*errors.Error); ok {
				err = e
				return
			}
			err = &panicError{value: rec, stack: debug.Stack()}
		}
	}()
	return h.Invoke(sess, p)
}

// resolveSession returns the session named by the request cookie, or a
// fresh unregistered one with an unused id.
func (d *Dispatcher) resolveSession(ctx context.Context, r *http.Request) (*session.Session, bool) {
	header := strings.Join(r.Header.Values("Cookie"), "; ")
	if id, ok := session.IDFromCookieHeader(header, d.cookieName); ok && id != "" {
		sess, err := d.sessions.Lookup(ctx, id)
		if err == nil {
			return sess, false
		}
		if !stderrors.Is(err, session.ErrNotFound) {
			d.logger.Warn("Session lookup failed",
				"error", err.Error(),
				slogutil.RequestIDKey, GetRequestID(ctx),
			)
		}
	}

	for {
		id := session.NewID()
		if _, err := d.sessions.Lookup(ctx, id); err != nil {
			return session.New(id), true
		}
	}
}

// serveStatic resolves path under the static root and streams it
func (d *Dispatcher) serveStatic(w *trackingWriter, r *http.Request, path string) {
	f, err := d.static.Resolve(path)
	if err != nil {
		d.fail(w, r, err)
		return
	}
	defer f.Close()

	if err := static.Serve(w, r, f); err != nil {
		d.fail(w, r, err)
	}
}

// fail maps err to an error page. Once headers are out the response can
// only be abandoned.
func (d *Dispatcher) fail(w *trackingWriter, r *http.Request, err error) {
	page := d.pageFor(err)
	reqID := GetRequestID(r.Context())

	if page.Code >= http.StatusInternalServerError {
		d.logger.Error("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", page.Code,
			"code", string(errors.CodeOf(err)),
			"error", err.Error(),
			slogutil.RequestIDKey, reqID,
		)
	} else {
		d.logger.Debug("Request rejected",
			"method", r.Method,
			"path", r.URL.Path,
			"status", page.Code,
			slogutil.RequestIDKey, reqID,
		)
	}

	if w.wroteHeader {
		return
	}
	writeErrorPage(w, page)
}

// pageFor builds the error page for err
func (d *Dispatcher) pageFor(err error) ErrorPage {
	var pe *panicError
	if stderrors.As(err, &pe) {
		explain := genericExplain
		if d.verbose {
			explain = fmt.Sprintf("%v\n\n%s", pe.value, pe.stack)
		}
		return newErrorPage(http.StatusInternalServerError, "", explain)
	}

	e, ok := errors.As(err)
	if !ok {
		explain := genericExplain
		if d.verbose {
			explain = err.Error()
		}
		return newErrorPage(http.StatusInternalServerError, "", explain)
	}

	switch {
	case e.IsClientError() || e.Code == errors.NotImplemented:
		explain := e.Detail
		if explain == "" && e.Message != http.StatusText(e.Status()) {
			explain = e.Message
		}
		return newErrorPage(e.Status(), "", explain)
	case e.Code == errors.MissingParameter:
		return newErrorPage(http.StatusInternalServerError, "", e.Error())
	default:
		explain := genericExplain
		if d.verbose {
			explain = err.Error()
		}
		return newErrorPage(e.Status(), "", explain)
	}
}

// trackingWriter records whether the status line has been written
type trackingWriter struct {
	http.ResponseWriter
	wroteHeader bool
}

func (w *trackingWriter) WriteHeader(code int) {
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *trackingWriter) Write(p []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(p)
}

// Unwrap lets http.ResponseController reach the underlying writer
func (w *trackingWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
