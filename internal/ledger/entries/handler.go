package entries

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/massehanto/accounting-system/internal/ledger/shared"
	internalshared "github.com/massehanto/accounting-system/internal/shared"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service     *Service
	logger      *slog.Logger
	validate    *validator.Validate
	idempotency *internalshared.IdempotencyStore
}

func NewHandler(logger *slog.Logger, service *Service, idempotency *internalshared.IdempotencyStore) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:     service,
		logger:      logger,
		validate:    validator.New(),
		idempotency: idempotency,
	}
}

type lineRequest struct {
	AccountID    string          `json:"account_id" validate:"required,uuid"`
	Description  string          `json:"description"`
	DebitAmount  decimal.Decimal `json:"debit_amount"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
}

type createRequest struct {
	EntryDate   string        `json:"entry_date" validate:"required"`
	Description string        `json:"description"`
	Reference   string        `json:"reference"`
	Lines       []lineRequest `json:"lines" validate:"required,min=1,dive"`
}

type updateRequest struct {
	EntryDate   *string       `json:"entry_date"`
	Description *string       `json:"description"`
	Reference   *string       `json:"reference"`
	Lines       []lineRequest `json:"lines" validate:"omitempty,min=1,dive"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, company, ok := h.identity(w, r)
	if !ok {
		return
	}
	var req createRequest
	if !h.decode(w, r, &req) {
		return
	}
	entryDate, err := time.Parse(dateLayout, req.EntryDate)
	if err != nil {
		http.Error(w, "entry_date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	lines, err := toLines(req.Lines)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if key := r.Header.Get("Idempotency-Key"); key != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), key, "ledger.create"); err != nil {
			if errors.Is(err, internalshared.ErrIdempotencyConflict) {
				http.Error(w, err.Error(), http.StatusConflict)
				return
			}
			h.serverError(w, "idempotency check", err)
			return
		}
		defer func() {
			// Key stays only when the create went through.
			if err != nil {
				_ = h.idempotency.Delete(r.Context(), key, "ledger.create")
			}
		}()
	}

	var entry JournalEntry
	entry, err = h.service.Create(r.Context(), CreateInput{
		CompanyID:   company,
		EntryDate:   entryDate,
		Description: req.Description,
		Reference:   req.Reference,
		CreatedBy:   actor,
		Lines:       lines,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toEntryResponse(entry))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	_, company, ok := h.identity(w, r)
	if !ok {
		return
	}
	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return
	}
	entry, err := h.service.Get(r.Context(), company, entryID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	_, company, ok := h.identity(w, r)
	if !ok {
		return
	}
	filter := ListFilter{}
	q := r.URL.Query()
	if status := q.Get("status"); status != "" {
		filter.Status = EntryStatus(status)
		if !filter.Status.Valid() {
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}
	}
	filter.Limit = atoiDefault(q.Get("limit"), 0)
	filter.Offset = atoiDefault(q.Get("offset"), 0)
	list, err := h.service.List(r.Context(), company, filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]entryResponse, 0, len(list))
	for _, entry := range list {
		out = append(out, toEntryResponse(entry))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, company, ok := h.identity(w, r)
	if !ok {
		return
	}
	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return
	}
	var req updateRequest
	if !h.decode(w, r, &req) {
		return
	}
	input := UpdateInput{Description: req.Description, Reference: req.Reference}
	if req.EntryDate != nil {
		parsed, err := time.Parse(dateLayout, *req.EntryDate)
		if err != nil {
			http.Error(w, "entry_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		input.EntryDate = &parsed
	}
	if req.Lines != nil {
		lines, err := toLines(req.Lines)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		input.Lines = lines
	}
	entry, err := h.service.Update(r.Context(), company, entryID, actor, input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, company, ok := h.identity(w, r)
	if !ok {
		return
	}
	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return
	}
	if err := h.service.Delete(r.Context(), company, entryID, actor); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Submit)
}

func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Approve)
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Post)
}

func (h *Handler) Reopen(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.service.Reopen)
}

func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, company, ok := h.identity(w, r)
	if !ok {
		return
	}
	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return
	}
	var req cancelRequest
	if !h.decode(w, r, &req) {
		return
	}
	entry, err := h.service.Cancel(r.Context(), company, entryID, actor, req.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) lifecycle(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, companyID, entryID, actor uuid.UUID) (JournalEntry, error)) {
	actor, company, ok := h.identity(w, r)
	if !ok {
		return
	}
	entryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid entry id", http.StatusBadRequest)
		return
	}
	entry, err := op(r.Context(), company, entryID, actor)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toEntryResponse(entry))
}

func (h *Handler) identity(w http.ResponseWriter, r *http.Request) (actor, company uuid.UUID, ok bool) {
	actor = internalshared.ActorFromContext(r.Context())
	company = internalshared.CompanyFromContext(r.Context())
	if actor == uuid.Nil || company == uuid.Nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return uuid.Nil, uuid.Nil, false
	}
	return actor, company, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var invalid *shared.InvalidTransitionError
	switch {
	case errors.Is(err, shared.ErrEntryNotFound), errors.Is(err, shared.ErrAccountNotFound):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Kind: "NotFound"})
	case errors.Is(err, shared.ErrEmptyEntry),
		errors.Is(err, shared.ErrInvalidLineAmounts),
		errors.Is(err, shared.ErrInvalidAccountReference),
		errors.Is(err, shared.ErrInactiveAccount),
		errors.Is(err, shared.ErrImbalancedEntry):
		h.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Kind: "ValidationError"})
	case errors.As(err, &invalid):
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Kind: "InvalidStatusTransition", From: invalid.From, To: invalid.To})
	case errors.Is(err, shared.ErrAlreadyPosted),
		errors.Is(err, shared.ErrAlreadyCancelled),
		errors.Is(err, shared.ErrNotDeletable),
		errors.Is(err, shared.ErrNotEditable):
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Kind: "TransitionError"})
	case errors.Is(err, shared.ErrStaleVersion):
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Kind: "ConcurrencyError"})
	default:
		h.serverError(w, "ledger operation", err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response", slog.Any("error", err))
	}
}

func toLines(reqs []lineRequest) ([]LineInput, error) {
	lines := make([]LineInput, 0, len(reqs))
	for _, req := range reqs {
		accountID, err := uuid.Parse(req.AccountID)
		if err != nil {
			return nil, errors.New("invalid account_id in lines")
		}
		lines = append(lines, LineInput{
			AccountID:    accountID,
			Description:  req.Description,
			DebitAmount:  req.DebitAmount,
			CreditAmount: req.CreditAmount,
		})
	}
	return lines, nil
}

func atoiDefault(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	From  string `json:"from,omitempty"`
	To    string `json:"to,omitempty"`
}

type lineResponse struct {
	ID           uuid.UUID       `json:"id"`
	AccountID    uuid.UUID       `json:"account_id"`
	Description  string          `json:"description,omitempty"`
	DebitAmount  decimal.Decimal `json:"debit_amount"`
	CreditAmount decimal.Decimal `json:"credit_amount"`
	LineNumber   int32           `json:"line_number"`
}

type entryResponse struct {
	ID          uuid.UUID       `json:"id"`
	CompanyID   uuid.UUID       `json:"company_id"`
	EntryNumber string          `json:"entry_number"`
	EntryDate   string          `json:"entry_date"`
	Description string          `json:"description,omitempty"`
	Reference   string          `json:"reference,omitempty"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Status      EntryStatus     `json:"status"`
	IsPosted    bool            `json:"is_posted"`
	Version     int64           `json:"version"`
	CreatedBy   uuid.UUID       `json:"created_by"`
	ApprovedBy  *uuid.UUID      `json:"approved_by,omitempty"`
	PostedBy    *uuid.UUID      `json:"posted_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	ApprovedAt  *time.Time      `json:"approved_at,omitempty"`
	PostedAt    *time.Time      `json:"posted_at,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Lines       []lineResponse  `json:"lines,omitempty"`
}

func toEntryResponse(e JournalEntry) entryResponse {
	resp := entryResponse{
		ID:          e.ID,
		CompanyID:   e.CompanyID,
		EntryNumber: e.EntryNumber,
		EntryDate:   e.EntryDate.Format(dateLayout),
		Description: e.Description,
		Reference:   e.Reference,
		TotalDebit:  e.TotalDebit,
		TotalCredit: e.TotalCredit,
		Status:      e.Status,
		IsPosted:    e.IsPosted,
		Version:     e.Version,
		CreatedBy:   e.CreatedBy,
		ApprovedBy:  e.ApprovedBy,
		PostedBy:    e.PostedBy,
		CreatedAt:   e.CreatedAt,
		ApprovedAt:  e.ApprovedAt,
		PostedAt:    e.PostedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	for _, line := range e.Lines {
		resp.Lines = append(resp.Lines, lineResponse{
			ID:           line.ID,
			AccountID:    line.AccountID,
			Description:  line.Description,
			DebitAmount:  line.DebitAmount,
			CreditAmount: line.CreditAmount,
			LineNumber:   line.LineNumber,
		})
	}
	return resp
}
