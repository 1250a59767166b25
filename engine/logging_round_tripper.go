package engine

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/use-agent/shelfscan/logging"
)

// LoggingRoundTripper implements http.RoundTripper and logs every outbound
// request at debug level. Bodies are not dumped: search pages run to
// hundreds of kilobytes.
type LoggingRoundTripper struct {
	next http.RoundTripper
}

// NewLoggingRoundTripper returns a new logging RoundTripper instance.
func NewLoggingRoundTripper(next http.RoundTripper) LoggingRoundTripper {
	return LoggingRoundTripper{next: next}
}

// RoundTrip implements http.RoundTripper interface.
func (rt LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	requestID := xid.New().String()

	slog.DebugContext(ctx, "outbound request",
		logging.FieldRequestID, requestID,
		logging.FieldHTTPMethod, req.Method,
		logging.FieldURL, req.URL.String(),
	)

	start := time.Now()

	resp, err := rt.next.RoundTrip(req)
	if err != nil {
		slog.DebugContext(ctx, "outbound request failed",
			logging.FieldRequestID, requestID,
			logging.FieldDurationMs, time.Since(start).Milliseconds(),
			logging.Err(err),
		)
		return nil, err
	}

	slog.DebugContext(ctx, "outbound response",
		logging.FieldRequestID, requestID,
		logging.FieldResponseStatus, resp.StatusCode,
		"content-encoding", resp.Header.Get("Content-Encoding"),
		logging.FieldDurationMs, time.Since(start).Milliseconds(),
	)

	return resp, nil
}
