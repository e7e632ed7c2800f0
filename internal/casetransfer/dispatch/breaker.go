package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"casetransfer/internal/casetransfer/models"
	"casetransfer/internal/casetransfer/ports"
	"casetransfer/pkg/platform/circuit"
	"casetransfer/pkg/platform/sentinel"
)

// Guarded fails fast while the broker behind next keeps failing, so one outage
// does not cost every group member a full produce timeout.
type Guarded struct {
	next    ports.EventDispatcher
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// NewBreaker builds the breaker Guarded expects: it opens after threshold
// consecutive failures and closes on the first successful trial call.
func NewBreaker(name string, threshold int, cooldown time.Duration, opts ...circuit.Option) *circuit.Breaker {
	opts = append([]circuit.Option{
		circuit.WithFailureThreshold(threshold),
		circuit.WithSuccessThreshold(1),
		circuit.WithCooldown(cooldown),
	}, opts...)
	return circuit.New(name, opts...)
}

func NewGuarded(next ports.EventDispatcher, breaker *circuit.Breaker, logger *slog.Logger) *Guarded {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guarded{next: next, breaker: breaker, logger: logger}
}

func (g *Guarded) Dispatch(ctx context.Context, cred models.Credential, cmd models.DispatchCommand) error {
	if !g.breaker.Allow() {
		return fmt.Errorf("%s circuit open for case %s: %w", g.breaker.Name(), cmd.TargetReference, sentinel.ErrUnavailable)
	}

	err := g.next.Dispatch(ctx, cred, cmd)
	if err != nil {
		if _, change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "dispatch circuit opened",
				"breaker", g.breaker.Name(),
				"case_reference", cmd.TargetReference,
				"error", err,
			)
		}
		return err
	}
	if _, change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "dispatch circuit closed", "breaker", g.breaker.Name())
	}
	return nil
}
