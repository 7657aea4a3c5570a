// Package logger records what a handler wrote so middleware can log it.
package logger

import "net/http"

// ResponseLogger wraps a ResponseWriter and remembers the status code and
// the number of body bytes written.
type ResponseLogger struct {
	w       http.ResponseWriter
	status  int
	written int
	wrote   bool
}

func New(w http.ResponseWriter) *ResponseLogger {
	return &ResponseLogger{w: w, status: http.StatusOK}
}

func (l *ResponseLogger) WriteHeader(code int) {
	if l.wrote {
		return
	}
	l.wrote = true
	l.status = code
	l.w.WriteHeader(code)
}

func (l *ResponseLogger) Write(b []byte) (int, error) {
	l.wrote = true
	n, err := l.w.Write(b)
	l.written += n
	return n, err
}

func (l *ResponseLogger) Header() http.Header {
	return l.w.Header()
}

func (l *ResponseLogger) Status() int {
	return l.status
}

// Bytes returns the number of body bytes written so far.
func (l *ResponseLogger) Bytes() int {
	return l.written
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (l *ResponseLogger) Unwrap() http.ResponseWriter {
	return l.w
}
