package http

// HealthResponse is the /health body.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
}

// ReadyResponse is the /ready body.
type ReadyResponse struct {
	Ready bool `json:"ready"`
}
