package models

import (
	"net/url"
	"strings"
)

const apiPrefix = "/api/v3"

// ServiceEndpoint identifies one upstream queue-management service.
// It is built once at startup and never mutated.
type ServiceEndpoint struct {
	Name    string // Label used in logs and reports (e.g. "sonarr")
	BaseURL string // Scheme, host and optional path prefix, no trailing slash
	APIKey  string // Sent as X-Api-Key on every request
}

// NewServiceEndpoint creates an endpoint, trimming any trailing slash from the base URL.
func NewServiceEndpoint(name, baseURL, apiKey string) ServiceEndpoint {
	return ServiceEndpoint{
		Name:    name,
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
	}
}

// QueueURL returns the queue collection URL.
func (e ServiceEndpoint) QueueURL() string {
	return e.BaseURL + apiPrefix + "/queue"
}

// EntryURL returns the URL of a single queue entry.
func (e ServiceEndpoint) EntryURL(id EntryID) string {
	return e.QueueURL() + "/" + url.PathEscape(string(id))
}

// String never includes the API key.
func (e ServiceEndpoint) String() string {
	return e.Name + " (" + e.BaseURL + ")"
}
