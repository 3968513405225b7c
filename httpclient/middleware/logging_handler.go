package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/kiotahttp/logger"
)

const (
	requestIDHeader  = "client-request-id"
	loggingComponent = "http-pipeline"
)

// LoggingHandler logs each exchange with a per-request id. Requests without
// a client-request-id header get a generated one.
type LoggingHandler struct {
	log *logger.Logger
}

// NewLoggingHandler creates the handler. A nil logger uses the one
// registered as "http-pipeline".
func NewLoggingHandler(log *logger.Logger) *LoggingHandler {
	if log == nil {
		return &LoggingHandler{log: logger.Get(loggingComponent)}
	}
	return &LoggingHandler{log: log.WithComponent(loggingComponent)}
}

// Intercept logs the request and its outcome.
func (h *LoggingHandler) Intercept(pipeline Pipeline, middlewareIndex int, req *http.Request) (*http.Response, error) {
	id := req.Header.Get(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
		req = req.Clone(req.Context())
		req.Header.Set(requestIDHeader, id)
	}

	fields := logger.Fields(
		logger.FieldRequestID, id,
		logger.FieldMethod, req.Method,
		logger.FieldURL, req.URL.Redacted(),
	)
	h.log.Debug("sending request", fields)

	start := time.Now()
	resp, err := pipeline.Next(req, middlewareIndex)
	done := logger.MergeWithDuration(fields, time.Since(start))
	if err != nil {
		done[logger.FieldError] = err.Error()
		h.log.Error("request failed", done)
		return resp, err
	}
	done[logger.FieldStatusCode] = resp.StatusCode
	if resp.StatusCode >= http.StatusBadRequest {
		h.log.Warn("request completed with error status", done)
	} else {
		h.log.Debug("request completed", done)
	}
	return resp, nil
}
