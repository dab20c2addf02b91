package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidEntry is returned by QueueEntry.Validate when required keys are missing.
var ErrInvalidEntry = errors.New("invalid queue entry")

// EntryID is the opaque key used to delete a queue entry. Upstreams send
// it as a JSON number, but strings are accepted too.
type EntryID string

// UnmarshalJSON accepts both numeric and string ids.
func (id *EntryID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = EntryID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("queue entry id: %w", err)
	}
	*id = EntryID(n.String())
	return nil
}

// StatusMessage is one group of messages attached to a queue entry.
// Sonarr and Radarr name the group key "title"; "source" is accepted as well.
type StatusMessage struct {
	Title    string   `json:"title,omitempty"`
	Source   string   `json:"source,omitempty"`
	Messages []string `json:"messages"`
}

// QueueEntry is one download in a service's queue. Required keys are
// pointers so that an absent key can be told apart from an empty value.
type QueueEntry struct {
	ID                    *EntryID        `json:"id"`
	Title                 *string         `json:"title"`
	Status                *string         `json:"status"`
	TrackedDownloadStatus *string         `json:"trackedDownloadStatus"`
	ErrorMessage          *string         `json:"errorMessage,omitempty"`
	StatusMessages        []StatusMessage `json:"statusMessages,omitempty"`
}

// Validate reports which required keys are missing.
func (e QueueEntry) Validate() error {
	var missing []string
	if e.ID == nil {
		missing = append(missing, "id")
	}
	if e.Title == nil {
		missing = append(missing, "title")
	}
	if e.Status == nil {
		missing = append(missing, "status")
	}
	if e.TrackedDownloadStatus == nil {
		missing = append(missing, "trackedDownloadStatus")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidEntry, strings.Join(missing, ", "))
	}
	return nil
}

// Identifier returns the entry id, or "" when absent.
func (e QueueEntry) Identifier() EntryID {
	if e.ID == nil {
		return ""
	}
	return *e.ID
}

// DisplayTitle returns the title, or "" when absent.
func (e QueueEntry) DisplayTitle() string {
	if e.Title == nil {
		return ""
	}
	return *e.Title
}

// QueueSnapshot is one decoded queue response. Records is nil when the
// response had no usable "records" key.
type QueueSnapshot struct {
	TotalRecords *int
	Records      []QueueEntry
}

type snapshotWire struct {
	TotalRecords *int              `json:"totalRecords"`
	Records      []json.RawMessage `json:"records"`
}

// DecodeSnapshot decodes a queue response. Records are decoded one by one;
// a record that does not decode becomes an empty QueueEntry, which fails
// Validate and is skipped by the caller instead of spoiling the whole page.
func DecodeSnapshot(data []byte) (*QueueSnapshot, error) {
	var wire snapshotWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("decode queue snapshot: %w", err)
	}

	snap := &QueueSnapshot{TotalRecords: wire.TotalRecords}
	if wire.Records == nil {
		return snap, nil
	}

	snap.Records = make([]QueueEntry, 0, len(wire.Records))
	for _, raw := range wire.Records {
		var entry QueueEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			entry = QueueEntry{}
		}
		snap.Records = append(snap.Records, entry)
	}
	return snap, nil
}
