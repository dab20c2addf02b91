package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSnapshot(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`{
		"totalRecords": 2,
		"records": [
			{"id": 17, "title": "Show.S01E01", "status": "warning", "trackedDownloadStatus": "warning",
			 "statusMessages": [{"title": "Show.S01E01", "messages": ["Found potentially dangerous file"]}]},
			{"id": "abc", "title": "Movie", "status": "downloading", "trackedDownloadStatus": "ok", "errorMessage": "ok"}
		]
	}`))
	require.NoError(t, err)
	require.NotNil(t, snap.TotalRecords)
	assert.Equal(t, 2, *snap.TotalRecords)
	require.Len(t, snap.Records, 2)

	assert.Equal(t, EntryID("17"), snap.Records[0].Identifier())
	assert.Equal(t, "Show.S01E01", snap.Records[0].DisplayTitle())
	assert.Equal(t, []string{"Found potentially dangerous file"}, snap.Records[0].StatusMessages[0].Messages)
	assert.Nil(t, snap.Records[0].ErrorMessage)

	assert.Equal(t, EntryID("abc"), snap.Records[1].Identifier())
	require.NotNil(t, snap.Records[1].ErrorMessage)
	assert.Equal(t, "ok", *snap.Records[1].ErrorMessage)
}

func TestDecodeSnapshot_NoRecordsKey(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`{"totalRecords": 4}`))
	require.NoError(t, err)
	assert.Nil(t, snap.Records)
}

func TestDecodeSnapshot_EmptyRecords(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`{"totalRecords": 0, "records": []}`))
	require.NoError(t, err)
	assert.NotNil(t, snap.Records)
	assert.Empty(t, snap.Records)
}

func TestDecodeSnapshot_BadRecordBecomesInvalid(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`{"records": [{"id": 1, "title": 42}]}`))
	require.NoError(t, err)
	require.Len(t, snap.Records, 1)
	assert.True(t, errors.Is(snap.Records[0].Validate(), ErrInvalidEntry))
}

func TestDecodeSnapshot_NotAnObject(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`[1, 2, 3]`))
	assert.Error(t, err)
}

func TestQueueEntryValidate(t *testing.T) {
	id := EntryID("1")
	s := "x"

	valid := QueueEntry{ID: &id, Title: &s, Status: &s, TrackedDownloadStatus: &s}
	assert.NoError(t, valid.Validate())

	missing := QueueEntry{ID: &id, Title: &s}
	err := missing.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidEntry)
	assert.Contains(t, err.Error(), "status, trackedDownloadStatus")

	// An empty string is present, not missing.
	empty := ""
	blank := QueueEntry{ID: &id, Title: &empty, Status: &empty, TrackedDownloadStatus: &empty}
	assert.NoError(t, blank.Validate())
}

func TestServiceEndpointURLs(t *testing.T) {
	ep := NewServiceEndpoint("sonarr", "http://sonarr:8989/", "secret")

	assert.Equal(t, "http://sonarr:8989/api/v3/queue", ep.QueueURL())
	assert.Equal(t, "http://sonarr:8989/api/v3/queue/42", ep.EntryURL("42"))
	assert.NotContains(t, ep.String(), "secret")
}
