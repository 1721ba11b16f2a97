package httpd

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"
)

var errorPage = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html>
    <head>
        <meta http-equiv="Content-Type" content="text/html;charset=utf-8">
        <title>Error Page</title>
    </head>
    <body>
        <h1>{{.Code}} {{.Message}}</h1><p>Error code explanation: <b>{{.Code}}</b> </p>details: <br><pre>{{.Explain}}</pre>
    </body>
</html>
`))

// ErrorPage is the data rendered into the error template
type ErrorPage struct {
	Code    int
	Message string
	Explain string
}

// defaultExplain is used when an error carries no detail
var defaultExplain = map[int]string{
	http.StatusBadRequest:            "Bad request syntax or unsupported method",
	http.StatusForbidden:             "Request forbidden -- authorization will not help",
	http.StatusNotFound:              "Nothing matches the given URI",
	http.StatusRequestEntityTooLarge: "Entity is too large",
	http.StatusInternalServerError:   "Server got itself in trouble",
	http.StatusNotImplemented:        "Server does not support this operation",
}

// newErrorPage fills in the message and explanation defaults for code
func newErrorPage(code int, message, explain string) ErrorPage {
	if message == "" {
		message = http.StatusText(code)
	}
	if explain == "" {
		explain = defaultExplain[code]
	}
	return ErrorPage{Code: code, Message: message, Explain: explain}
}

// writeErrorPage renders page as a complete response
func writeErrorPage(w http.ResponseWriter, page ErrorPage) {
	var buf bytes.Buffer
	if err := errorPage.Execute(&buf, page); err != nil {
		buf.Reset()
		buf.WriteString(strconv.Itoa(page.Code) + " " + http.StatusText(page.Code))
	}

	h := w.Header()
	h.Set("Content-Type", "text/html;charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(buf.Len()))
	h.Set("Connection", "close")
	w.WriteHeader(page.Code)
	_, _ = w.Write(buf.Bytes())
}
