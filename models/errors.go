package models

import "fmt"

// Error codes carried by pipeline failures. They feed logs and metrics;
// every one of them answers the client with the same 500 envelope.
const (
	ErrCodeFetch   = "FETCH_FAILED"
	ErrCodeParse   = "PARSE_FAILED"
	ErrCodeTimeout = "TIMEOUT"
)

// Messages surfaced to API clients.
const (
	MsgInvalidKeyword = "Keyword not provided or invalid"
	MsgScrapeFailed   = "Failed to get data from Amazon"
	MsgRateLimited    = "rate limit exceeded, please slow down"
	MsgScrapingFailed = "Scraping failed"
)

// ScrapeError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ScrapeError struct {
	Code    string
	Message string
	Err     error // wrapped cause
}

func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// NewScrapeError creates a new ScrapeError.
func NewScrapeError(code, message string, err error) *ScrapeError {
	return &ScrapeError{Code: code, Message: message, Err: err}
}

// ScrapingFailed wraps a fetch or parse failure the way API clients see it:
// "Scraping failed: <cause>".
func ScrapingFailed(code string, err error) *ScrapeError {
	return NewScrapeError(code, MsgScrapingFailed, err)
}
