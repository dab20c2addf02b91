// Package cleaner runs one cleanup cycle against one upstream service:
// fetch the queue, classify each entry, delete the failing ones.
package cleaner

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/athulya-anil/queue-sweeper/pkg/classifier"
	"github.com/athulya-anil/queue-sweeper/pkg/models"
)

// QueueFetcher returns the current queue, or false when it is unavailable.
type QueueFetcher interface {
	FetchQueue(ctx context.Context, ep models.ServiceEndpoint) (*models.QueueSnapshot, bool)
}

// Deleter removes a single queue entry.
type Deleter interface {
	Delete(ctx context.Context, rawURL, apiKey string, params url.Values) (json.RawMessage, error)
}

// Cleaner performs cleanup cycles. It holds no state between cycles.
type Cleaner struct {
	fetcher    QueueFetcher
	deleter    Deleter
	signatures classifier.Signatures
	logger     *zap.Logger
	metrics    *cycleMetrics
	now        func() time.Time
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// WithMeter records metrics on meter instead of the global MeterProvider.
func WithMeter(meter metric.Meter) Option {
	return func(c *Cleaner) { c.metrics = newCycleMetrics(meter) }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cleaner) { c.now = now }
}

// New creates a Cleaner.
func New(fetcher QueueFetcher, deleter Deleter, signatures classifier.Signatures, logger *zap.Logger, opts ...Option) *Cleaner {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cleaner{
		fetcher:    fetcher,
		deleter:    deleter,
		signatures: signatures,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = newCycleMetrics(defaultMeter())
	}
	return c
}

// deleteParams removes the download from the client and blocklists the release.
func deleteParams() url.Values {
	return url.Values{
		"removeFromClient": {"true"},
		"blocklist":        {"true"},
	}
}

// CleanOne runs a single cycle for ep. It never returns an error: an
// unavailable queue yields an empty report, a failed delete is counted
// and the remaining entries are still evaluated.
func (c *Cleaner) CleanOne(ctx context.Context, ep models.ServiceEndpoint) (report models.CycleReport) {
	report = models.CycleReport{
		Service:   ep.Name,
		CycleID:   uuid.NewString(),
		StartedAt: c.now(),
	}
	log := c.logger.With(
		zap.String("service", ep.Name),
		zap.String("cycle_id", report.CycleID),
	)
	defer func() {
		report.Duration = c.now().Sub(report.StartedAt)
		c.metrics.record(ctx, ep.Name, report.Fetched, report.Deleted, report.SkippedInvalid, report.Failed, report.Duration)
	}()

	log.Info("🔍 Checking queue")

	snap, ok := c.fetcher.FetchQueue(ctx, ep)
	if !ok {
		log.Warn("⚠️ Queue unavailable or missing records, nothing to do this cycle")
		return report
	}
	report.Fetched = true

	log.Info("📋 Processing queue", zap.Int("records", len(snap.Records)))

	for _, entry := range snap.Records {
		if err := entry.Validate(); err != nil {
			report.SkippedInvalid++
			log.Warn("Skipping queue entry", zap.Error(err))
			continue
		}

		entryLog := log.With(
			zap.String("entry_id", string(entry.Identifier())),
			zap.String("title", entry.DisplayTitle()),
		)
		entryLog.Debug("Checking entry", zap.String("status", *entry.Status))

		sig, failing := c.signatures.Match(entry)
		if !failing {
			continue
		}

		entryLog.Info("Removing download",
			zap.String("signature", sig),
			zap.String("error_message", errorMessage(entry)),
		)

		report.Attempted++
		if _, err := c.deleter.Delete(ctx, ep.EntryURL(entry.Identifier()), ep.APIKey, deleteParams()); err != nil {
			report.Failed++
			continue
		}
		report.Deleted++
	}

	log.Info("✅ Queue processed",
		zap.Int("attempted", report.Attempted),
		zap.Int("deleted", report.Deleted),
		zap.Int("failed", report.Failed),
		zap.Int("skipped_invalid", report.SkippedInvalid),
	)
	return report
}

func errorMessage(entry models.QueueEntry) string {
	if entry.ErrorMessage == nil {
		return "no error"
	}
	return *entry.ErrorMessage
}
