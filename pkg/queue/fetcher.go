// Package queue reads the full download queue of one upstream service.
package queue

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/athulya-anil/queue-sweeper/pkg/models"
)

// Getter is the subset of arr.Client the fetcher needs.
type Getter interface {
	Get(ctx context.Context, rawURL, apiKey string, params url.Values) (json.RawMessage, error)
}

// Fetcher retrieves queue snapshots. The queue is assumed small enough to
// come back in a single page sized from a count pre-fetch.
type Fetcher struct {
	client Getter
	logger *zap.Logger
}

// NewFetcher creates a new fetcher
func NewFetcher(client Getter, logger *zap.Logger) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{client: client, logger: logger}
}

// FetchQueue returns the whole queue of ep, or false when either request
// fails or the page has no records collection. Failures were already
// logged by the client.
func (f *Fetcher) FetchQueue(ctx context.Context, ep models.ServiceEndpoint) (*models.QueueSnapshot, bool) {
	log := f.logger.With(zap.String("service", ep.Name))

	total, ok := f.countRecords(ctx, ep)
	if !ok {
		return nil, false
	}

	params := url.Values{"page": {"1"}}
	if total != nil {
		params.Set("pageSize", strconv.Itoa(*total))
	} else {
		log.Debug("queue count had no totalRecords, using server page size")
	}

	body, err := f.client.Get(ctx, ep.QueueURL(), ep.APIKey, params)
	if err != nil {
		return nil, false
	}

	snap, err := models.DecodeSnapshot(body)
	if err != nil {
		log.Warn("⚠️ Queue page could not be decoded", zap.Error(err))
		return nil, false
	}
	if snap.Records == nil {
		log.Debug("queue page has no records collection")
		return nil, false
	}
	return snap, true
}

// countRecords performs the unparameterized pre-fetch. The returned count
// is nil when the response carried no usable totalRecords.
func (f *Fetcher) countRecords(ctx context.Context, ep models.ServiceEndpoint) (*int, bool) {
	body, err := f.client.Get(ctx, ep.QueueURL(), ep.APIKey, nil)
	if err != nil {
		return nil, false
	}

	snap, err := models.DecodeSnapshot(body)
	if err != nil || snap.TotalRecords == nil || *snap.TotalRecords < 0 {
		return nil, true
	}
	return snap.TotalRecords, true
}
