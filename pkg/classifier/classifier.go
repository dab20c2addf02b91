// Package classifier decides whether a queue entry is stuck in a terminal
// or dangerous state.
//
// Matching is an exact, case-sensitive substring test against the
// configured signatures. Upstream wording that differs only in case will
// not match.
package classifier

import (
	"strings"

	"github.com/athulya-anil/queue-sweeper/pkg/models"
)

// NoMessage stands in for an absent errorMessage.
const NoMessage = "n/a"

// DefaultSignatures are the messages Sonarr and Radarr attach to downloads
// that will never import on their own.
var DefaultSignatures = Signatures{
	"Found potentially dangerous file",
	"reporting an error",
	"The download is stalled with no connections",
}

// Signatures is an immutable set of failure substrings.
type Signatures []string

// Match returns the first signature found in the entry's error message or
// in any of its status messages.
func (s Signatures) Match(entry models.QueueEntry) (string, bool) {
	msg := NoMessage
	if entry.ErrorMessage != nil {
		msg = *entry.ErrorMessage
	}
	if sig, ok := s.find(msg); ok {
		return sig, true
	}

	for _, group := range entry.StatusMessages {
		for _, m := range group.Messages {
			if sig, ok := s.find(m); ok {
				return sig, true
			}
		}
	}
	return "", false
}

func (s Signatures) find(text string) (string, bool) {
	for _, sig := range s {
		if strings.Contains(text, sig) {
			return sig, true
		}
	}
	return "", false
}

// IsFailing reports whether entry matches any of signatures.
func IsFailing(entry models.QueueEntry, signatures Signatures) bool {
	_, ok := signatures.Match(entry)
	return ok
}
