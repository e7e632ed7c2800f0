// Package service coordinates case transfers: resolve the group, gate it on
// validation, then hand it to the strategy for the destination's family.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"casetransfer/internal/casetransfer/metrics"
	"casetransfer/internal/casetransfer/offices"
	"casetransfer/internal/casetransfer/ports"
	"casetransfer/internal/casetransfer/resolver"
	"casetransfer/internal/casetransfer/strategy"
	"casetransfer/pkg/requestcontext"
)

var tracer = otel.Tracer("casetransfer/service")

// Service is the transfer coordinator.
type Service struct {
	cases          ports.CaseRepository
	offices        *offices.Directory
	resolver       *resolver.Resolver
	strategies     *strategy.Set
	logger         *slog.Logger
	auditPublisher ports.AuditPublisher
	metrics        *metrics.Metrics
	concurrency    int
	timeout        time.Duration
	// now overrides the request-scoped time when set.
	now func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithDispatchConcurrency bounds concurrent dispatches within one transfer.
func WithDispatchConcurrency(n int) Option {
	return func(s *Service) {
		s.concurrency = n
	}
}

// WithDispatchTimeout bounds each dispatch call. Zero leaves dispatches bound
// only by the caller's deadline.
func WithDispatchTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.timeout = d
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(cases ports.CaseRepository, events ports.EventDispatcher, directory *offices.Directory, opts ...Option) (*Service, error) {
	if cases == nil {
		return nil, fmt.Errorf("case repository is required")
	}
	if events == nil {
		return nil, fmt.Errorf("event dispatcher is required")
	}
	if directory == nil {
		return nil, fmt.Errorf("office directory is required")
	}

	s := &Service{
		cases:       cases,
		offices:     directory,
		logger:      slog.Default(),
		concurrency: 1,
	}
	for _, opt := range opts {
		opt(s)
	}

	var err error
	s.resolver, err = resolver.New(cases, resolver.WithLogger(s.logger))
	if err != nil {
		return nil, err
	}
	strategyOpts := []strategy.Option{
		strategy.WithLogger(s.logger),
		strategy.WithConcurrency(s.concurrency),
		strategy.WithDispatchTimeout(s.timeout),
	}
	if s.metrics != nil {
		strategyOpts = append(strategyOpts, strategy.WithObserver(s.metrics))
	}
	s.strategies, err = strategy.New(events, strategyOpts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) requestTime(ctx context.Context) time.Time {
	if s.now != nil {
		return s.now()
	}
	return requestcontext.Now(ctx)
}
