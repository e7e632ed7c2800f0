package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"casetransfer/internal/casetransfer/models"
)

// Recorder is an in-process dispatcher that keeps every accepted command.
// Failures can be injected per target reference.
type Recorder struct {
	mu       sync.Mutex
	commands []models.DispatchCommand
	failures map[string]error
	logger   *slog.Logger
}

func NewRecorder(logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{failures: make(map[string]error), logger: logger}
}

func (r *Recorder) Dispatch(ctx context.Context, _ models.Credential, cmd models.DispatchCommand) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.failures[cmd.TargetReference]; ok {
		return fmt.Errorf("dispatch %s for case %s: %w", cmd.Operation, cmd.TargetReference, err)
	}
	r.commands = append(r.commands, cmd)
	r.logger.DebugContext(ctx, "recorded case transfer event",
		"case_reference", cmd.TargetReference,
		"operation", string(cmd.Operation),
	)
	return nil
}

// FailFor makes every later dispatch targeting reference return err.
func (r *Recorder) FailFor(reference string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures[reference] = err
}

// Commands returns the accepted commands in arrival order.
func (r *Recorder) Commands() []models.DispatchCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.DispatchCommand(nil), r.commands...)
}
