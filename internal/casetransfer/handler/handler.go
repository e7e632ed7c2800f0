package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"casetransfer/internal/casetransfer/models"
	"casetransfer/internal/casetransfer/service"
	dErrors "casetransfer/pkg/domain-errors"
	"casetransfer/pkg/platform/httputil"
	"casetransfer/pkg/requestcontext"
)

// Service defines the case transfer operations the handler exposes.
type Service interface {
	TransferCase(ctx context.Context, source *models.Case, destinationOffice, reason string, cred models.Credential) ([]string, error)
	TransferCaseInScope(ctx context.Context, source *models.Case, destinationOffice, reason string, scope models.TransferScope, cred models.Credential) ([]string, error)
	Transfer(ctx context.Context, req service.TransferRequest, cred models.Credential) (*service.TransferResult, error)
	ApplyLinkedTransfer(ctx context.Context, target *models.Case, destinationOffice, reason string, cred models.Credential) error
	DestinationOffices(currentOffice string, scope models.TransferScope) ([]string, error)
}

// Handler wires the case transfer callbacks to the coordinator.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a case transfer handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the case transfer endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/case-transfer", func(r chi.Router) {
		r.Post("/", h.HandleTransfer)
		r.Post("/by-reference", h.HandleTransferByReference)
		r.Post("/same-family", h.handleTransferInScope(models.ScopeSameFamily))
		r.Post("/cross-family", h.handleTransferInScope(models.ScopeCrossFamily))
		r.Post("/linked-case", h.HandleLinkedCase)
		r.Get("/offices", h.HandleDestinationOffices)
	})
}

// HandleTransfer handles POST /case-transfer. The strategy follows the
// destination office's family.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	h.transfer(w, r, "")
}

func (h *Handler) handleTransferInScope(scope models.TransferScope) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.transfer(w, r, scope)
	}
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request, scope models.TransferScope) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	cred, ok := h.credential(w, r)
	if !ok {
		return
	}
	var req TransferCaseRequest
	if !h.decode(w, r, &req) {
		return
	}

	var (
		errs []string
		err  error
	)
	if scope == "" {
		errs, err = h.service.TransferCase(ctx, req.Case, req.DestinationOffice, req.Reason, cred)
	} else {
		errs, err = h.service.TransferCaseInScope(ctx, req.Case, req.DestinationOffice, req.Reason, scope, cred)
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "case transfer failed",
			"request_id", requestID,
			"case_reference", req.Case.Reference,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "case transfer handled",
		"request_id", requestID,
		"case_reference", req.Case.Reference,
		"error_count", len(errs),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, newCallbackResponse(req.Case, errs))
}

// HandleTransferByReference handles POST /case-transfer/by-reference.
func (h *Handler) HandleTransferByReference(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	cred, ok := h.credential(w, r)
	if !ok {
		return
	}
	var req TransferByReferenceRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Transfer(ctx, req.toService(), cred)
	if err != nil {
		h.logger.ErrorContext(ctx, "case transfer by reference failed",
			"request_id", requestID,
			"case_reference", req.Reference,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newCallbackResponse(result.Case, result.Errors))
}

// HandleLinkedCase handles POST /case-transfer/linked-case, the update event
// delivered to each counter-claim of a same-family transfer.
func (h *Handler) HandleLinkedCase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cred, ok := h.credential(w, r)
	if !ok {
		return
	}
	var req TransferCaseRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.ApplyLinkedTransfer(ctx, req.Case, req.DestinationOffice, req.Reason, cred); err != nil {
		h.logger.ErrorContext(ctx, "linked case update failed",
			"request_id", requestcontext.RequestID(ctx),
			"case_reference", req.Case.Reference,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, newCallbackResponse(req.Case, nil))
}

// HandleDestinationOffices handles GET /case-transfer/offices.
func (h *Handler) HandleDestinationOffices(w http.ResponseWriter, r *http.Request) {
	current := r.URL.Query().Get("current")
	scope := models.TransferScope(r.URL.Query().Get("scope"))
	if scope == "" {
		scope = models.ScopeSameFamily
	}

	offices, err := h.service.DestinationOffices(current, scope)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, OfficesResponse{
		Current: current,
		Scope:   string(scope),
		Offices: offices,
	})
}

func (h *Handler) credential(w http.ResponseWriter, r *http.Request) (models.Credential, bool) {
	ctx := r.Context()
	token := requestcontext.Token(ctx)
	if token == "" {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return models.Credential{}, false
	}
	return models.Credential{Token: token, Actor: requestcontext.Actor(ctx)}, true
}

type validatable interface {
	Validate() error
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst validatable) bool {
	ctx := r.Context()
	if err := httputil.DecodeJSON(r, dst); err != nil {
		h.logger.WarnContext(ctx, "failed to decode case transfer request",
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		httputil.WriteError(w, err)
		return false
	}
	if err := dst.Validate(); err != nil {
		httputil.WriteError(w, err)
		return false
	}
	return true
}
