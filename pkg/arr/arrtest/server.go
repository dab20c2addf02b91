// Package arrtest provides an in-memory Sonarr/Radarr queue API for tests.
package arrtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
)

// Record is one raw queue record as the upstream would serialize it.
type Record map[string]any

// DeleteCall is one DELETE observed by the server.
type DeleteCall struct {
	ID    string
	Query url.Values
}

// Server fakes the /api/v3/queue endpoints. Records are served in order
// and are not removed by deletes, matching an upstream that keeps
// reporting an entry until its next refresh.
type Server struct {
	*httptest.Server

	APIKey string

	mu          sync.Mutex
	records     []Record
	queueStatus int
	failDeletes map[string]int
	gets        []url.Values
	deletes     []DeleteCall
}

// NewServer starts a fake upstream that requires apiKey and serves records.
func NewServer(apiKey string, records ...Record) *Server {
	s := &Server{
		APIKey:      apiKey,
		records:     records,
		failDeletes: make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// FailQueue makes queue GETs answer with status until reset with 0.
func (s *Server) FailQueue(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queueStatus = status
}

// FailDelete makes the DELETE of id answer with status.
func (s *Server) FailDelete(id string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failDeletes[id] = status
}

// Deletes returns the DELETE calls seen so far.
func (s *Server) Deletes() []DeleteCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]DeleteCall(nil), s.deletes...)
}

// DeletedIDs returns the ids of all DELETE calls in order.
func (s *Server) DeletedIDs() []string {
	calls := s.Deletes()
	ids := make([]string, 0, len(calls))
	for _, c := range calls {
		ids = append(ids, c.ID)
	}
	return ids
}

// Gets returns the query strings of all queue GETs seen so far.
func (s *Server) Gets() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.gets...)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Api-Key") != s.APIKey {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	const queuePath = "/api/v3/queue"
	switch {
	case r.Method == http.MethodGet && r.URL.Path == queuePath:
		s.serveQueue(w, r)
	case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, queuePath+"/"):
		s.serveDelete(w, r, strings.TrimPrefix(r.URL.Path, queuePath+"/"))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (s *Server) serveQueue(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.gets = append(s.gets, r.URL.Query())
	status := s.queueStatus
	records := s.records
	s.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}

	if records == nil {
		records = []Record{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"page":         1,
		"totalRecords": len(records),
		"records":      records,
	})
}

func (s *Server) serveDelete(w http.ResponseWriter, r *http.Request, id string) {
	s.mu.Lock()
	s.deletes = append(s.deletes, DeleteCall{ID: id, Query: r.URL.Query()})
	status := s.failDeletes[id]
	s.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}
	w.WriteHeader(http.StatusOK)
}
