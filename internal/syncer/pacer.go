package syncer

import (
	"context"

	"golang.org/x/time/rate"
)

// Pacer spaces batched destructive calls so the platform's rate limits are
// respected. Tests inject a no-op implementation to run without real timers.
type Pacer interface {
	Wait(ctx context.Context) error
}

func NewRatePacer(perSecond float64, burst int) Pacer {
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

type NopPacer struct{}

func (NopPacer) Wait(context.Context) error { return nil }
