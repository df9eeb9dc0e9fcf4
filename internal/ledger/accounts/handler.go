package accounts

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/massehanto/accounting-system/internal/ledger/shared"
	internalshared "github.com/massehanto/accounting-system/internal/shared"
)

type Handler struct {
	service  *Service
	logger   *slog.Logger
	validate *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger, validate: validator.New()}
}

type createRequest struct {
	Code     string  `json:"account_code" validate:"required"`
	Name     string  `json:"account_name" validate:"required"`
	Type     string  `json:"account_type" validate:"required"`
	ParentID *string `json:"parent_id" validate:"omitempty,uuid"`
}

type updateRequest struct {
	Name        *string `json:"account_name"`
	ParentID    *string `json:"parent_id" validate:"omitempty,uuid"`
	ClearParent bool    `json:"clear_parent"`
	IsActive    *bool   `json:"is_active"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	company := internalshared.CompanyFromContext(r.Context())
	if company == uuid.Nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	list, err := h.service.List(r.Context(), company)
	if err != nil {
		h.logger.Error("list accounts", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	company := internalshared.CompanyFromContext(r.Context())
	if company == uuid.Nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	input := CreateInput{
		CompanyID: company,
		Code:      req.Code,
		Name:      req.Name,
		Type:      AccountType(req.Type),
	}
	if req.ParentID != nil {
		parent, err := uuid.Parse(*req.ParentID)
		if err != nil {
			http.Error(w, "invalid parent_id", http.StatusBadRequest)
			return
		}
		input.ParentID = &parent
	}
	account, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, account)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	company := internalshared.CompanyFromContext(r.Context())
	if company == uuid.Nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	accountID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid account id", http.StatusBadRequest)
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	input := UpdateInput{Name: req.Name, ClearParent: req.ClearParent, IsActive: req.IsActive}
	if req.ParentID != nil {
		parent, err := uuid.Parse(*req.ParentID)
		if err != nil {
			http.Error(w, "invalid parent_id", http.StatusBadRequest)
			return
		}
		input.ParentID = &parent
	}
	account, err := h.service.Update(r.Context(), company, accountID, input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, account)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, shared.ErrAccountNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, shared.ErrAccountCycle):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		h.logger.Error("accounts operation", slog.Any("error", err))
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response", slog.Any("error", err))
	}
}
