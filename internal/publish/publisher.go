// Package publish delivers announced events to the configured backends.
package publish

import (
	"context"
	"fmt"
	"io"

	"chatcal/internal/models"
)

// Publisher delivers one announced event. Implementations must be safe to
// call sequentially from the pipeline; failures are reported, never fatal.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, rec models.Record) error
}

// WriterPublisher writes the raw calendar record to an io.Writer. It backs
// dry runs and piping records into other tooling.
type WriterPublisher struct {
	w io.Writer
}

func NewWriterPublisher(w io.Writer) *WriterPublisher {
	return &WriterPublisher{w: w}
}

func (p *WriterPublisher) Name() string { return "writer" }

func (p *WriterPublisher) Publish(_ context.Context, rec models.Record) error {
	if _, err := io.WriteString(p.w, rec.ICS); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}
