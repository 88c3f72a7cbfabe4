package server

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
)

// Logging logs one line per request with status, size and latency.
//
// The request carries its log entry, so [Recover] reports panics through the same logger.
func Logging(logger *log.Logger) Middleware {
	return middleware.RequestLogger(&logFormatter{logger: logger})
}

// Recover turns handler panics into 500 responses.
func Recover() Middleware {
	return middleware.Recoverer
}

// logFormatter adapts [log.Logger] to chi's [middleware.LogFormatter].
type logFormatter struct {
	logger *log.Logger
}

func (f *logFormatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	return &logEntry{
		logger: f.logger.With("method", r.Method, "path", r.URL.Path),
	}
}

type logEntry struct {
	logger *log.Logger
}

func (e *logEntry) Write(status, bytes int, header http.Header, elapsed time.Duration, extra any) {
	if status == 0 {
		status = http.StatusOK
	}
	e.logger.Debug("request", "status", status, "bytes", bytes, "elapsed", elapsed)
}

func (e *logEntry) Panic(v any, stack []byte) {
	e.logger.Error("handler panic", "panic", v, "stack", string(stack))
}
