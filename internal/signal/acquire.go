package signal

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"newsbot-go/internal/metrics"
)

// RunStatus is the remote analysis run state.
type RunStatus string

const (
	StatusPending   RunStatus = "pending"
	StatusCompleted RunStatus = "completed"
	StatusFailed    RunStatus = "failed"
	StatusCancelled RunStatus = "cancelled"
)

// Client is the remote signal service surface. Submit returns an opaque run
// handle; Cancel abandons an outstanding run.
type Client interface {
	Submit(ctx context.Context, text string) (string, error)
	Poll(ctx context.Context, handle string) (RunStatus, error)
	Fetch(ctx context.Context, handle string) (string, error)
	Cancel(ctx context.Context, handle string) error
}

// Acquirer drives one analysis request per accepted news item under a bounded
// wait. Invocations share no mutable state; an Acquirer is safe for concurrent
// use.
type Acquirer struct {
	client       Client
	pollInterval time.Duration
	timeout      time.Duration
	log          zerolog.Logger

	// Clock hooks, replaced in tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewAcquirer wires the client with real clock functions.
func NewAcquirer(client Client, pollInterval, timeout time.Duration, log zerolog.Logger) *Acquirer {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Acquirer{
		client:       client,
		pollInterval: pollInterval,
		timeout:      timeout,
		log:          log,
		now:          time.Now,
		sleep:        sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Acquire submits the title for analysis and waits for a terminal status,
// polling at the fixed interval. Timeouts cancel the outstanding run exactly
// once. Every failure mode degrades to "no signal"; nothing here is a hard
// error for the pipeline.
func (a *Acquirer) Acquire(ctx context.Context, title string) (Signal, bool) {
	handle, err := a.client.Submit(ctx, title)
	if err != nil {
		a.log.Warn().Err(err).Msg("assistant submit failed")
		return Signal{}, false
	}

	deadline := a.now().Add(a.timeout)
	for {
		status, err := a.client.Poll(ctx, handle)
		if err != nil {
			a.log.Warn().Err(err).Str("handle", handle).Msg("assistant poll failed")
			return Signal{}, false
		}

		switch status {
		case StatusCompleted:
			return a.fetch(ctx, handle)
		case StatusFailed, StatusCancelled:
			a.log.Warn().Str("handle", handle).Str("status", string(status)).Msg("assistant run ended without a result")
			return Signal{}, false
		}

		if a.now().After(deadline) {
			a.log.Warn().Str("handle", handle).Dur("timeout", a.timeout).Msg("assistant run timed out, cancelling")
			if err := a.client.Cancel(ctx, handle); err != nil {
				a.log.Warn().Err(err).Str("handle", handle).Msg("assistant cancel failed")
			}
			return Signal{}, false
		}
		if err := a.sleep(ctx, a.pollInterval); err != nil {
			return Signal{}, false
		}
	}
}

func (a *Acquirer) fetch(ctx context.Context, handle string) (Signal, bool) {
	response, err := a.client.Fetch(ctx, handle)
	if err != nil {
		a.log.Warn().Err(err).Str("handle", handle).Msg("assistant fetch failed")
		return Signal{}, false
	}
	sig, err := Parse(response)
	if err != nil {
		a.log.Warn().Err(err).Str("response", response).Msg("unparseable assistant response")
		return Signal{}, false
	}
	metrics.SignalsTotal.WithLabelValues(string(sig.Action)).Inc()
	return sig, true
}
