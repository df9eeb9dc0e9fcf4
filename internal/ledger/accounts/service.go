package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/massehanto/accounting-system/internal/ledger/shared"
)

// Service manages the chart of accounts and resolves accounts for the
// posting engine. It never creates entries; the engine never creates
// accounts.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Resolve returns the account or shared.ErrAccountNotFound. The posting
// engine's account directory contract.
func (s *Service) Resolve(ctx context.Context, companyID, accountID uuid.UUID) (Account, error) {
	return s.repo.Get(ctx, companyID, accountID)
}

// List returns the full chart for a company ordered by code.
func (s *Service) List(ctx context.Context, companyID uuid.UUID) ([]Account, error) {
	return s.repo.List(ctx, companyID)
}

// CreateInput carries fields for a new account node.
type CreateInput struct {
	CompanyID uuid.UUID
	Code      string
	Name      string
	Type      AccountType
	ParentID  *uuid.UUID
}

// Create inserts an account after checking the parent chain.
func (s *Service) Create(ctx context.Context, in CreateInput) (Account, error) {
	code := strings.TrimSpace(in.Code)
	name := strings.TrimSpace(in.Name)
	if code == "" || name == "" {
		return Account{}, errors.New("accounts: code and name required")
	}
	if !in.Type.Valid() {
		return Account{}, errors.New("accounts: unknown account type")
	}
	id := uuid.New()
	if in.ParentID != nil {
		if err := s.checkParentChain(ctx, in.CompanyID, id, *in.ParentID); err != nil {
			return Account{}, err
		}
	}
	now := s.now()
	account := Account{
		ID:            id,
		CompanyID:     in.CompanyID,
		Code:          code,
		Name:          name,
		Type:          in.Type,
		NormalBalance: NormalBalanceFor(in.Type),
		ParentID:      in.ParentID,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Insert(ctx, account); err != nil {
		return Account{}, err
	}
	return account, nil
}

// UpdateInput patches mutable account fields. Nil leaves a field untouched.
type UpdateInput struct {
	Name        *string
	ParentID    *uuid.UUID
	ClearParent bool
	IsActive    *bool
}

// Update applies the patch, re-running cycle detection when the parent moves.
func (s *Service) Update(ctx context.Context, companyID, accountID uuid.UUID, in UpdateInput) (Account, error) {
	account, err := s.repo.Get(ctx, companyID, accountID)
	if err != nil {
		return Account{}, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Account{}, errors.New("accounts: name required")
		}
		account.Name = name
	}
	if in.ClearParent {
		account.ParentID = nil
	} else if in.ParentID != nil {
		if err := s.checkParentChain(ctx, companyID, accountID, *in.ParentID); err != nil {
			return Account{}, err
		}
		parent := *in.ParentID
		account.ParentID = &parent
	}
	if in.IsActive != nil {
		account.IsActive = *in.IsActive
	}
	account.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, account); err != nil {
		return Account{}, err
	}
	return account, nil
}

// checkParentChain walks the parent references over an id-indexed arena of
// the company's accounts and rejects chains that loop back to accountID.
func (s *Service) checkParentChain(ctx context.Context, companyID, accountID, parentID uuid.UUID) error {
	if parentID == accountID {
		return shared.ErrAccountCycle
	}
	all, err := s.repo.List(ctx, companyID)
	if err != nil {
		return err
	}
	arena := make(map[uuid.UUID]Account, len(all))
	for _, a := range all {
		arena[a.ID] = a
	}
	if _, ok := arena[parentID]; !ok {
		return shared.ErrAccountNotFound
	}
	seen := map[uuid.UUID]bool{accountID: true}
	cursor := parentID
	for {
		if seen[cursor] {
			return shared.ErrAccountCycle
		}
		seen[cursor] = true
		node, ok := arena[cursor]
		if !ok || node.ParentID == nil {
			return nil
		}
		cursor = *node.ParentID
	}
}
