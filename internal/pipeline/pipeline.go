// Package pipeline orchestrates the per-message flow: extraction gate,
// duplicate suppression, temporal resolution, calendar encoding, delivery.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"chatcal/internal/dedup"
	"chatcal/internal/extract"
	"chatcal/internal/ics"
	"chatcal/internal/models"
	"chatcal/internal/publish"
	"chatcal/internal/temporal"
)

// Pipeline processes inbound chat messages into announced calendar events.
type Pipeline struct {
	logger     *slog.Logger
	extractor  extract.Extractor
	deduper    *dedup.Deduplicator
	publishers []publish.Publisher
	routes     map[string]string // channel ID -> audience; nil accepts everything
	civil      *time.Location
	dryRun     bool

	// Clock is the reference-instant source, overridable in tests.
	Clock func() time.Time
}

// New creates a Pipeline.
func New(logger *slog.Logger, extractor extract.Extractor, deduper *dedup.Deduplicator,
	publishers []publish.Publisher, routes map[string]string, civil *time.Location, dryRun bool) *Pipeline {
	return &Pipeline{
		logger:     logger,
		extractor:  extractor,
		deduper:    deduper,
		publishers: publishers,
		routes:     routes,
		civil:      civil,
		dryRun:     dryRun,
		Clock:      time.Now,
	}
}

// HandleMessage runs one message through the pipeline. Messages that carry
// no event, arrive on unwatched channels, or duplicate a recent announcement
// are dropped silently (logged, not errored). Extraction failures are the
// only error condition.
func (p *Pipeline) HandleMessage(ctx context.Context, msg models.Message) error {
	audience, ok := p.route(msg.Channel)
	if !ok {
		p.logger.Debug("Message from unwatched channel, skipping.", "channel", msg.Channel)
		return nil
	}

	now := p.Clock()
	candidate, isEvent, err := p.extractor.Extract(ctx, msg, now)
	if err != nil {
		return fmt.Errorf("extraction failed for message %s: %w", msg.ID, err)
	}
	if !isEvent {
		p.logger.Debug("No event in message.", "message_id", msg.ID)
		return nil
	}

	if !p.deduper.ShouldProcess(ctx, candidate.Title, candidate.DatePhrase, candidate.TimePhrase, candidate.Location) {
		p.logger.Info("Duplicate event suppressed.", "title", candidate.Title, "channel", msg.Channel)
		return nil
	}

	start, end := temporal.Resolve(candidate.DatePhrase, candidate.TimePhrase, now, p.civil)
	uid := ics.GenerateUID()
	rec := models.Record{
		UID:         uid,
		Audience:    audience,
		Summary:     candidate.Title,
		Description: candidate.Description,
		Location:    candidate.Location,
		Start:       start,
		End:         end,
		ICS:         ics.Encode(uid, candidate.Title, candidate.Description, candidate.Location, start, end, now),
	}

	if p.dryRun {
		p.logger.Info("[DRY RUN] Would announce event", "title", rec.Summary, "start", rec.Start, "audience", rec.Audience)
		return nil
	}

	for _, pub := range p.publishers {
		if err := pub.Publish(ctx, rec); err != nil {
			p.logger.Error("Failed to publish event", "publisher", pub.Name(), "title", rec.Summary, "error", err)
			// Continue with the next publisher even if one fails.
		}
	}

	p.logger.Info("Event announced.", "title", rec.Summary, "start", rec.Start, "audience", rec.Audience)
	return nil
}

// SweepCache purges expired dedup entries; wired to a periodic schedule by
// the caller.
func (p *Pipeline) SweepCache() {
	p.deduper.Sweep()
}

func (p *Pipeline) route(channel string) (string, bool) {
	if p.routes == nil {
		return "default", true
	}
	audience, ok := p.routes[channel]
	return audience, ok
}
