package ingest

import (
	"context"
	"time"

	"github.com/JakeFAU/academic-radar/internal/listing"
	"github.com/JakeFAU/academic-radar/internal/paginator"
	"github.com/JakeFAU/academic-radar/internal/source"
)

// Paginator walks one adapter.
type Paginator interface {
	Run(ctx context.Context, adapter source.Adapter, known listing.IDSet) paginator.Result
}

// Recorder receives run metrics.
type Recorder interface {
	ObserveSource(source string, pages, candidates int, reason string)
	ObserveRun(outcome string, duration time.Duration, newCount, stored int, finished time.Time)
	ObservePublish(published, failed int)
	WriteTextfile(path string) error
}

// IDGenerator produces run identifiers.
type IDGenerator interface {
	NewID() (string, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
