package log

import (
	"net/http"
	"time"
)

type loggingHandler struct {
	handler http.Handler
	logger  Logger
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// NewLoggingHandler wraps handler and logs every request once it completes
func NewLoggingHandler(handler http.Handler, logger Logger) http.Handler {
	return &loggingHandler{handler: handler, logger: logger}
}

func (h *loggingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	h.handler.ServeHTTP(recorder, r)
	h.logger.Info("processed request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", recorder.status,
		"remoteAddr", r.RemoteAddr,
		"duration", time.Since(start))
}
