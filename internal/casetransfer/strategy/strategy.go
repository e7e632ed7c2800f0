// Package strategy applies a validated transfer to a resolved group. Each
// strategy dispatches one operation per affected member, collects every
// failure without stopping, then mutates the in-memory source case.
package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"casetransfer/internal/casetransfer/models"
	"casetransfer/internal/casetransfer/ports"
)

// Request carries what a strategy needs besides the group itself.
type Request struct {
	// Source is the case the caller asked to transfer; it is a group member.
	Source            *models.Case
	DestinationOffice string
	DestinationFamily models.Family
	Reason            string
	Credential        models.Credential
	// Now stamps dispatch commands. Zero means time.Now.
	Now time.Time
}

// Strategy is one way of carrying out a transfer.
type Strategy interface {
	Scope() models.TransferScope
	// Apply returns one message per failed dispatch, in member order. It always
	// mutates req.Source once every dispatch has returned.
	Apply(ctx context.Context, group *models.TransferGroup, req Request) []string
}

// Observer receives the outcome of every dispatch call.
type Observer interface {
	ObserveDispatch(op models.Operation, err error, d time.Duration)
}

type Option func(*runner)

func WithLogger(logger *slog.Logger) Option {
	return func(r *runner) {
		r.logger = logger
	}
}

// WithConcurrency bounds in-flight dispatches per transfer. Values below one
// are treated as one.
func WithConcurrency(n int) Option {
	return func(r *runner) {
		if n < 1 {
			n = 1
		}
		r.concurrency = n
	}
}

// WithDispatchTimeout bounds each dispatch call so a stalled broker cannot hold
// a transfer open.
func WithDispatchTimeout(d time.Duration) Option {
	return func(r *runner) {
		r.timeout = d
	}
}

func WithObserver(observer Observer) Option {
	return func(r *runner) {
		r.observer = observer
	}
}

// Set holds both strategies over a shared dispatcher.
type Set struct {
	SameFamily  Strategy
	CrossFamily Strategy
}

func New(events ports.EventDispatcher, opts ...Option) (*Set, error) {
	if events == nil {
		return nil, fmt.Errorf("event dispatcher is required")
	}
	r := &runner{
		events:      events,
		logger:      slog.Default(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return &Set{
		SameFamily:  &SameFamily{runner: r},
		CrossFamily: &CrossFamily{runner: r},
	}, nil
}

// Select picks the strategy for a move from source to destination family.
func (s *Set) Select(source, destination models.Family) Strategy {
	return s.ForScope(models.ScopeFor(source, destination))
}

// ForScope returns the strategy for scope, or nil for an unknown scope.
func (s *Set) ForScope(scope models.TransferScope) Strategy {
	switch scope {
	case models.ScopeSameFamily:
		return s.SameFamily
	case models.ScopeCrossFamily:
		return s.CrossFamily
	default:
		return nil
	}
}

func (req Request) now() time.Time {
	if req.Now.IsZero() {
		return time.Now()
	}
	return req.Now
}

func (req Request) command(op models.Operation, target *models.Case) models.DispatchCommand {
	cmd := models.NewDispatchCommand(op, target, req.now())
	cmd.DestinationOffice = req.DestinationOffice
	cmd.Reason = req.Reason
	cmd.SourceReference = req.Source.Reference
	cmd.Actor = req.Credential.Actor
	return cmd
}
