package models

// SearchResponse is the 200 body for GET /api/scrape.
type SearchResponse struct {
	Success bool      `json:"success"`
	Data    []Product `json:"data"`
}

// ErrorResponse is the body for every non-2xx API response.
type ErrorResponse struct {
	// Error is the fixed, client-facing summary.
	Error string `json:"error"`

	// Message carries the underlying cause, when there is one.
	Message string `json:"message,omitempty"`
}

// HealthResponse is the response for GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Uptime  string `json:"uptime"`
	Engine  string `json:"engine"`
	Site    string `json:"site"`
	Version string `json:"version"`
}
