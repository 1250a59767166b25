package engine

import (
	"context"
	"strconv"
)

// Engine is the interface that all fetch engines must implement.
type Engine interface {
	// Name returns the engine identifier ("http" or "browser").
	Name() string

	// Fetch retrieves the page content for the given request.
	Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error)

	// Close releases connections or processes held by the engine.
	Close() error
}

// FetchRequest contains everything an engine needs to fetch a page.
type FetchRequest struct {
	URL     string
	Headers map[string]string
}

// FetchResult is the output of a successful engine fetch.
type FetchResult struct {
	HTML       string
	Title      string
	StatusCode int
	FinalURL   string
	EngineName string
}

// StatusError is returned when the target answers with a 4xx/5xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return "Request failed with status code " + strconv.Itoa(e.StatusCode)
}
