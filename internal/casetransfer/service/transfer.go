package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"casetransfer/internal/casetransfer/models"
	"casetransfer/internal/casetransfer/ports"
	"casetransfer/internal/casetransfer/strategy"
	"casetransfer/internal/casetransfer/validator"
	dErrors "casetransfer/pkg/domain-errors"
	"casetransfer/pkg/platform/audit"
	"casetransfer/pkg/platform/sentinel"
)

const (
	outcomeCompleted       = "completed"
	outcomeBlocked         = "blocked"
	outcomePartiallyFailed = "partially_failed"
	outcomeFailed          = "failed"
)

// TransferCase moves source and every case in its group to destinationOffice.
//
// A non-nil error means the group could not be resolved or the request was
// malformed; nothing was dispatched or mutated. Otherwise the returned slice
// lists validation failures (nothing dispatched, source untouched) or dispatch
// failures (source mutated regardless). An empty slice is full success.
func (s *Service) TransferCase(ctx context.Context, source *models.Case, destinationOffice, reason string, cred models.Credential) ([]string, error) {
	return s.transfer(ctx, source, destinationOffice, reason, "", cred)
}

// TransferCaseInScope is TransferCase restricted to one strategy. A destination
// outside scope is a validation error.
func (s *Service) TransferCaseInScope(ctx context.Context, source *models.Case, destinationOffice, reason string, scope models.TransferScope, cred models.Credential) ([]string, error) {
	if !scope.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown transfer scope %q", scope))
	}
	return s.transfer(ctx, source, destinationOffice, reason, scope, cred)
}

// Transfer loads the source case from the store and transfers it.
func (s *Service) Transfer(ctx context.Context, req TransferRequest, cred models.Credential) (*TransferResult, error) {
	if strings.TrimSpace(req.SourceReference) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "source case reference is required")
	}
	if !req.Family.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown case family %q", req.Family))
	}
	if req.Scope != "" && !req.Scope.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown transfer scope %q", req.Scope))
	}

	source, err := s.cases.Get(ctx, cred, req.Family, req.SourceReference)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, fmt.Sprintf("case %s not found", req.SourceReference))
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, fmt.Sprintf("failed to load case %s", req.SourceReference))
	}

	errs, err := s.transfer(ctx, source, req.DestinationOffice, req.Reason, req.Scope, cred)
	if err != nil {
		return nil, err
	}
	return &TransferResult{Case: source, Errors: errs}, nil
}

func (s *Service) transfer(ctx context.Context, source *models.Case, destinationOffice, reason string, scope models.TransferScope, cred models.Credential) ([]string, error) {
	start := time.Now()
	if source == nil || source.Reference == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "source case is required")
	}
	destinationOffice, reason = withPendingTransfer(source, destinationOffice, reason)

	destinationFamily, err := s.checkDestination(source, destinationOffice, scope)
	if err != nil {
		return nil, err
	}
	scope = models.ScopeFor(source.Family, destinationFamily)

	ctx, span := tracer.Start(ctx, "casetransfer.transfer",
		trace.WithAttributes(
			attribute.String("case_reference", source.Reference),
			attribute.String("source_family", string(source.Family)),
			attribute.String("destination_family", string(destinationFamily)),
			attribute.String("scope", string(scope)),
		),
	)
	defer span.End()
	defer func() {
		s.metrics.ObserveTransferLatency(time.Since(start))
	}()

	// Phase 1: resolve and gate. Nothing is mutated before this completes.
	group, err := s.resolve(ctx, source, cred)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "group resolution failed")
		s.metrics.IncrementTransfer(scope, outcomeFailed)
		return nil, err
	}
	s.metrics.ObserveGroupSize(group.Size())

	if failures := s.validate(ctx, group); len(failures) > 0 {
		span.SetStatus(codes.Error, "transfer blocked")
		s.metrics.IncrementTransfer(scope, outcomeBlocked)
		ports.LogAudit(ctx, s.logger, s.auditPublisher, audit.EventTransferBlocked,
			"case_reference", source.Reference,
			"destination_office", destinationOffice,
			"reason", reason,
			"detail", fmt.Sprintf("%d pre-condition failures", len(failures)),
			"actor", cred.Actor,
		)
		return validator.Messages(failures), nil
	}

	// Phase 2: every issued dispatch must be accounted for, so caller
	// cancellation no longer applies. The caller's deadline still does.
	phase2, cancel := detach(ctx)
	defer cancel()
	st := s.strategies.ForScope(scope)
	errs := st.Apply(phase2, group, strategy.Request{
		Source:            source,
		DestinationOffice: destinationOffice,
		DestinationFamily: destinationFamily,
		Reason:            reason,
		Credential:        cred,
		Now:               s.requestTime(ctx),
	})

	event, outcome := audit.EventTransferCompleted, outcomeCompleted
	if len(errs) > 0 {
		event, outcome = audit.EventTransferPartiallyFailed, outcomePartiallyFailed
		span.SetStatus(codes.Error, "dispatch failures")
	}
	s.metrics.IncrementTransfer(scope, outcome)
	ports.LogAudit(context.WithoutCancel(ctx), s.logger, s.auditPublisher, event,
		"case_reference", source.Reference,
		"destination_office", destinationOffice,
		"scope", string(scope),
		"reason", reason,
		"detail", fmt.Sprintf("%d of %d members failed", len(errs), group.Size()),
		"actor", cred.Actor,
	)

	if errs == nil {
		errs = []string{}
	}
	return errs, nil
}

// detach drops ctx's cancellation but keeps its values and deadline.
func detach(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if deadline, ok := ctx.Deadline(); ok {
		return context.WithDeadline(detached, deadline)
	}
	return detached, func() {}
}

func (s *Service) resolve(ctx context.Context, source *models.Case, cred models.Credential) (*models.TransferGroup, error) {
	ctx, span := tracer.Start(ctx, "casetransfer.resolve")
	defer span.End()

	group, err := s.resolver.Resolve(ctx, source, cred)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("group_size", group.Size()))
	return group, nil
}

func (s *Service) validate(ctx context.Context, group *models.TransferGroup) []validator.Failure {
	_, span := tracer.Start(ctx, "casetransfer.validate")
	defer span.End()

	failures := validator.CheckGroup(group)
	for _, f := range failures {
		s.metrics.IncrementValidationFailure(string(f.Rule))
	}
	span.SetAttributes(attribute.Int("validation_failures", len(failures)))
	return failures
}

// checkDestination returns the destination's family or a validation error.
func (s *Service) checkDestination(source *models.Case, office string, scope models.TransferScope) (models.Family, error) {
	if office == "" {
		return "", dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("no destination office given for case %s", source.Reference))
	}
	if !source.Family.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("case %s has unknown family %q", source.Reference, source.Family))
	}
	family, ok := s.offices.FamilyOf(office)
	if !ok {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown destination office %q", office))
	}

	selected := models.ScopeFor(source.Family, family)
	if scope != "" && selected != scope {
		return "", dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("%s is not a %s destination for case %s", office, scopeLabel(scope), source.Reference))
	}
	if selected == models.ScopeSameFamily && office == source.ManagingOffice {
		return "", dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("case %s is already managed by %s", source.Reference, office))
	}
	return family, nil
}

// withPendingTransfer fills a blank destination or reason from the transfer
// recorded on the case.
func withPendingTransfer(source *models.Case, office, reason string) (string, string) {
	office = strings.TrimSpace(office)
	if source.PendingTransfer == nil {
		return office, reason
	}
	if office == "" {
		office = strings.TrimSpace(source.PendingTransfer.DestinationOffice)
	}
	if reason == "" {
		reason = source.PendingTransfer.Reason
	}
	return office, reason
}

func scopeLabel(scope models.TransferScope) string {
	if scope == models.ScopeCrossFamily {
		return "cross-family"
	}
	return "same-family"
}
