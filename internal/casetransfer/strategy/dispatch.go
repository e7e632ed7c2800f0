package strategy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"casetransfer/internal/casetransfer/models"
	"casetransfer/internal/casetransfer/ports"
)

var tracer = otel.Tracer("casetransfer/strategy")

// runner fans commands out to the dispatcher and accumulates failures.
type runner struct {
	events      ports.EventDispatcher
	logger      *slog.Logger
	concurrency int
	observer    Observer
	// timeout bounds each Dispatch call; zero leaves only ctx's deadline.
	timeout time.Duration
}

// dispatchAll sends every command and returns failure messages in command
// order. A failed dispatch never cancels its siblings.
func (r *runner) dispatchAll(ctx context.Context, cmds []models.DispatchCommand, cred models.Credential) []string {
	if len(cmds) == 0 {
		return nil
	}
	ctx, span := tracer.Start(ctx, "casetransfer.dispatch",
		trace.WithAttributes(
			attribute.String("operation", string(cmds[0].Operation)),
			attribute.Int("dispatch_count", len(cmds)),
		),
	)
	defer span.End()

	failures := make([]string, len(cmds))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, cmd := range cmds {
		g.Go(func() error {
			if err := r.dispatch(ctx, cmd, cred); err != nil {
				failures[i] = failureMessage(cmd, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	var errs []string
	for _, msg := range failures {
		if msg != "" {
			errs = append(errs, msg)
		}
	}
	if len(errs) > 0 {
		span.SetAttributes(attribute.Int("dispatch_failures", len(errs)))
		span.SetStatus(codes.Error, "one or more dispatches failed")
	}
	return errs
}

func (r *runner) dispatch(ctx context.Context, cmd models.DispatchCommand, cred models.Credential) error {
	r.logger.InfoContext(ctx, "dispatching case transfer event",
		"case_reference", cmd.TargetReference,
		"operation", string(cmd.Operation),
		"destination_office", cmd.DestinationOffice,
		"source_reference", cmd.SourceReference,
		"command_id", cmd.ID.String(),
	)

	dctx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		dctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	err := r.events.Dispatch(dctx, cred, cmd)
	if r.observer != nil {
		r.observer.ObserveDispatch(cmd.Operation, err, time.Since(start))
	}
	if err != nil {
		r.logger.ErrorContext(ctx, "case transfer event failed",
			"case_reference", cmd.TargetReference,
			"operation", string(cmd.Operation),
			"command_id", cmd.ID.String(),
			"error", err,
		)
	}
	return err
}

func failureMessage(cmd models.DispatchCommand, err error) string {
	switch cmd.Operation {
	case models.OperationCreateInFamily:
		return fmt.Sprintf("Unable to create case %s in %s: %v", cmd.TargetReference, cmd.DestinationFamily, err)
	default:
		return fmt.Sprintf("Unable to transfer case %s to %s: %v", cmd.TargetReference, cmd.DestinationOffice, err)
	}
}
