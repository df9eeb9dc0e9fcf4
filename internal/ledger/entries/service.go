package entries

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/massehanto/accounting-system/internal/audit"
	"github.com/massehanto/accounting-system/internal/ledger/accounts"
	"github.com/massehanto/accounting-system/internal/ledger/numbering"
	"github.com/massehanto/accounting-system/internal/ledger/shared"
)

// AuditTable is the change-log table name for journal entries.
const AuditTable = "journal_entries"

// Directory resolves account references. The engine rejects entries whose
// accounts are missing or inactive; it never creates accounts itself.
type Directory interface {
	Resolve(ctx context.Context, companyID, accountID uuid.UUID) (accounts.Account, error)
}

// Metrics receives lifecycle counters. Optional.
type Metrics interface {
	EntryPosted()
	TransitionDenied(from, to string)
}

// Service orchestrates the journal entry lifecycle. Every mutating
// operation is atomic and emits exactly one audit record inside the same
// transaction, so a failed audit write rolls the mutation back.
type Service struct {
	repo      Repository
	directory Directory
	numbers   numbering.Generator
	logger    *slog.Logger
	metrics   Metrics
	now       func() time.Time
}

func NewService(repo Repository, directory Directory, numbers numbering.Generator, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, directory: directory, numbers: numbers, logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithMetrics attaches lifecycle counters.
func (s *Service) WithMetrics(m Metrics) {
	s.metrics = m
}

// Create allocates an entry number, validates the draft and persists it in
// DRAFT together with its lines.
func (s *Service) Create(ctx context.Context, in CreateInput) (JournalEntry, error) {
	if in.CompanyID == uuid.Nil || in.CreatedBy == uuid.Nil {
		return JournalEntry{}, errors.New("entries: company and creator required")
	}
	if in.EntryDate.IsZero() {
		return JournalEntry{}, errors.New("entries: entry date required")
	}
	states, err := s.resolveAccounts(ctx, in.CompanyID, in.Lines)
	if err != nil {
		return JournalEntry{}, err
	}
	if err := Validate(in.Lines, states); err != nil {
		return JournalEntry{}, err
	}
	number, err := s.numbers.Next(ctx, in.CompanyID, in.EntryDate.Year())
	if err != nil {
		return JournalEntry{}, err
	}

	debit, credit := Totals(in.Lines)
	now := s.now().UTC()
	entry := JournalEntry{
		ID:          uuid.New(),
		CompanyID:   in.CompanyID,
		EntryNumber: number,
		EntryDate:   in.EntryDate,
		Description: in.Description,
		Reference:   in.Reference,
		TotalDebit:  debit,
		TotalCredit: credit,
		Status:      StatusDraft,
		Version:     1,
		CreatedBy:   in.CreatedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	entry.Lines = buildLines(entry.ID, in.Lines)

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.InsertEntry(ctx, entry); err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, entry.Lines); err != nil {
			return err
		}
		after, err := audit.Snapshot(entry)
		if err != nil {
			return err
		}
		return audit.NewRecorder(tx.Audit()).Record(ctx, audit.Record{
			TableName: AuditTable,
			RecordID:  entry.ID,
			Action:    audit.ActionCreate,
			NewValues: after,
			ActorID:   in.CreatedBy,
		})
	})
	if err != nil {
		return JournalEntry{}, err
	}
	s.logger.Info("journal entry created",
		slog.String("entry_number", entry.EntryNumber),
		slog.String("company_id", entry.CompanyID.String()),
		slog.String("created_by", in.CreatedBy.String()))
	return entry, nil
}

// Update patches a DRAFT or PENDING_APPROVAL entry. Replacing lines
// re-runs the validator and recomputes totals.
func (s *Service) Update(ctx context.Context, companyID, entryID, actor uuid.UUID, in UpdateInput) (JournalEntry, error) {
	var updated JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := s.loadForUpdate(ctx, tx, companyID, entryID)
		if err != nil {
			return err
		}
		switch current.Status {
		case StatusDraft, StatusPendingApproval:
		case StatusPosted:
			return shared.ErrAlreadyPosted
		case StatusCancelled:
			return shared.ErrAlreadyCancelled
		default:
			return shared.ErrNotEditable
		}
		before, err := audit.Snapshot(current)
		if err != nil {
			return err
		}

		next := current
		if in.EntryDate != nil {
			next.EntryDate = *in.EntryDate
		}
		if in.Description != nil {
			next.Description = *in.Description
		}
		if in.Reference != nil {
			next.Reference = *in.Reference
		}
		if in.Lines != nil {
			states, err := s.resolveAccounts(ctx, companyID, in.Lines)
			if err != nil {
				return err
			}
			if err := Validate(in.Lines, states); err != nil {
				return err
			}
			next.TotalDebit, next.TotalCredit = Totals(in.Lines)
			next.Lines = buildLines(next.ID, in.Lines)
			if err := tx.ReplaceLines(ctx, next.ID, next.Lines); err != nil {
				return err
			}
		}
		next.UpdatedAt = s.now().UTC()
		if err := tx.UpdateEntry(ctx, next, current.Version); err != nil {
			return err
		}
		next.Version = current.Version + 1

		after, err := audit.Snapshot(next)
		if err != nil {
			return err
		}
		if err := audit.NewRecorder(tx.Audit()).Record(ctx, audit.Record{
			TableName: AuditTable,
			RecordID:  next.ID,
			Action:    audit.ActionUpdate,
			OldValues: before,
			NewValues: after,
			ActorID:   actor,
		}); err != nil {
			return err
		}
		updated = next
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	return updated, nil
}

// Submit moves a DRAFT entry to PENDING_APPROVAL. Submitting an entry that
// already awaits approval is a no-op. Lines are re-validated so nothing
// structurally broken reaches an approver.
func (s *Service) Submit(ctx context.Context, companyID, entryID, actor uuid.UUID) (JournalEntry, error) {
	return s.transition(ctx, companyID, entryID, actor, transitionSpec{
		target:     StatusPendingApproval,
		action:     audit.ActionSubmit,
		idempotent: true,
		revalidate: true,
		apply: func(e *JournalEntry) {
			e.ApprovedBy = nil
			e.ApprovedAt = nil
		},
	})
}

// Approve moves PENDING_APPROVAL to APPROVED and records the approver.
func (s *Service) Approve(ctx context.Context, companyID, entryID, actor uuid.UUID) (JournalEntry, error) {
	return s.transition(ctx, companyID, entryID, actor, transitionSpec{
		target: StatusApproved,
		action: audit.ActionApprove,
		apply: func(e *JournalEntry) {
			approver := actor
			at := s.now().UTC()
			e.ApprovedBy = &approver
			e.ApprovedAt = &at
		},
	})
}

// Post finalizes an APPROVED entry. From here the entry and its lines are
// frozen and downstream reporting may treat the figures as final.
func (s *Service) Post(ctx context.Context, companyID, entryID, actor uuid.UUID) (JournalEntry, error) {
	return s.transition(ctx, companyID, entryID, actor, transitionSpec{
		target:     StatusPosted,
		action:     audit.ActionPost,
		revalidate: true,
		apply: func(e *JournalEntry) {
			poster := actor
			e.IsPosted = true
			e.PostedBy = &poster
			if e.PostedAt == nil {
				at := s.now().UTC()
				e.PostedAt = &at
			}
		},
	})
}

// Reopen moves PENDING_APPROVAL back to DRAFT, clearing any approval
// metadata so a prior approval cannot survive the round trip.
func (s *Service) Reopen(ctx context.Context, companyID, entryID, actor uuid.UUID) (JournalEntry, error) {
	return s.transition(ctx, companyID, entryID, actor, transitionSpec{
		target: StatusDraft,
		action: audit.ActionUpdate,
		apply: func(e *JournalEntry) {
			e.ApprovedBy = nil
			e.ApprovedAt = nil
		},
	})
}

// Cancel terminates an entry from any non-terminal state. The reason is
// kept on the audit record.
func (s *Service) Cancel(ctx context.Context, companyID, entryID, actor uuid.UUID, reason string) (JournalEntry, error) {
	return s.transition(ctx, companyID, entryID, actor, transitionSpec{
		target: StatusCancelled,
		action: audit.ActionCancel,
		reason: reason,
	})
}

// Delete removes a DRAFT entry and its lines.
func (s *Service) Delete(ctx context.Context, companyID, entryID, actor uuid.UUID) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := s.loadForUpdate(ctx, tx, companyID, entryID)
		if err != nil {
			return err
		}
		if current.Status != StatusDraft {
			return shared.ErrNotDeletable
		}
		before, err := audit.Snapshot(current)
		if err != nil {
			return err
		}
		if err := tx.DeleteEntry(ctx, companyID, entryID); err != nil {
			return err
		}
		return audit.NewRecorder(tx.Audit()).Record(ctx, audit.Record{
			TableName: AuditTable,
			RecordID:  entryID,
			Action:    audit.ActionDelete,
			OldValues: before,
			ActorID:   actor,
		})
	})
}

// Get returns an entry with its lines.
func (s *Service) Get(ctx context.Context, companyID, entryID uuid.UUID) (JournalEntry, error) {
	entry, err := s.repo.Get(ctx, companyID, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	if err := checkIntegrity(entry); err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

// List returns entries for a company, newest first.
func (s *Service) List(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]JournalEntry, error) {
	list, err := s.repo.List(ctx, companyID, filter.normalize())
	if err != nil {
		return nil, err
	}
	for _, entry := range list {
		if err := checkIntegrity(entry); err != nil {
			return nil, err
		}
	}
	return list, nil
}

type transitionSpec struct {
	target     EntryStatus
	action     string
	reason     string
	idempotent bool
	revalidate bool
	apply      func(*JournalEntry)
}

func (s *Service) transition(ctx context.Context, companyID, entryID, actor uuid.UUID, spec transitionSpec) (JournalEntry, error) {
	if actor == uuid.Nil {
		return JournalEntry{}, errors.New("entries: actor required")
	}
	var result JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := s.loadForUpdate(ctx, tx, companyID, entryID)
		if err != nil {
			return err
		}
		if spec.idempotent && current.Status == spec.target {
			result = current
			return nil
		}
		if err := CheckTransition(current.Status, spec.target); err != nil {
			if s.metrics != nil {
				s.metrics.TransitionDenied(string(current.Status), string(spec.target))
			}
			return err
		}
		if spec.revalidate {
			lineInputs := toLineInputs(current.Lines)
			states, err := s.resolveAccounts(ctx, companyID, lineInputs)
			if err != nil {
				return err
			}
			if err := Validate(lineInputs, states); err != nil {
				return err
			}
		}
		before, err := audit.Snapshot(current)
		if err != nil {
			return err
		}

		next := current
		next.Status = spec.target
		if spec.apply != nil {
			spec.apply(&next)
		}
		next.UpdatedAt = s.now().UTC()
		if err := tx.UpdateEntry(ctx, next, current.Version); err != nil {
			return err
		}
		next.Version = current.Version + 1

		after, err := audit.Snapshot(next)
		if err != nil {
			return err
		}
		rec := audit.Record{
			TableName: AuditTable,
			RecordID:  next.ID,
			Action:    spec.action,
			OldValues: before,
			NewValues: after,
			ActorID:   actor,
		}
		if spec.reason != "" {
			meta, err := audit.Snapshot(map[string]any{"entry": next, "reason": spec.reason})
			if err != nil {
				return err
			}
			rec.NewValues = meta
		}
		if err := audit.NewRecorder(tx.Audit()).Record(ctx, rec); err != nil {
			return err
		}
		result = next
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if spec.target == StatusPosted && s.metrics != nil {
		s.metrics.EntryPosted()
	}
	s.logger.Info("journal entry transition",
		slog.String("entry_number", result.EntryNumber),
		slog.String("status", string(result.Status)),
		slog.String("actor", actor.String()))
	return result, nil
}

func (s *Service) loadForUpdate(ctx context.Context, tx TxRepository, companyID, entryID uuid.UUID) (JournalEntry, error) {
	entry, err := tx.GetForUpdate(ctx, companyID, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	if err := checkIntegrity(entry); err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (s *Service) resolveAccounts(ctx context.Context, companyID uuid.UUID, lines []LineInput) (map[uuid.UUID]AccountState, error) {
	states := make(map[uuid.UUID]AccountState, len(lines))
	for _, line := range lines {
		if line.AccountID == uuid.Nil {
			continue
		}
		if _, done := states[line.AccountID]; done {
			continue
		}
		account, err := s.directory.Resolve(ctx, companyID, line.AccountID)
		if err != nil {
			if errors.Is(err, shared.ErrAccountNotFound) {
				states[line.AccountID] = AccountState{}
				continue
			}
			return nil, err
		}
		states[line.AccountID] = AccountState{Known: true, Active: account.IsActive}
	}
	return states, nil
}

// checkIntegrity treats a status/is_posted mismatch as a fatal data fault,
// never something to repair in place.
func checkIntegrity(e JournalEntry) error {
	if e.IsPosted != (e.Status == StatusPosted) {
		return fmt.Errorf("%w: entry %s status=%s is_posted=%t", shared.ErrIntegrityFault, e.ID, e.Status, e.IsPosted)
	}
	return nil
}

func buildLines(entryID uuid.UUID, inputs []LineInput) []JournalEntryLine {
	lines := make([]JournalEntryLine, 0, len(inputs))
	for idx, in := range inputs {
		lines = append(lines, JournalEntryLine{
			ID:           uuid.New(),
			EntryID:      entryID,
			AccountID:    in.AccountID,
			Description:  in.Description,
			DebitAmount:  in.DebitAmount.Round(2),
			CreditAmount: in.CreditAmount.Round(2),
			LineNumber:   int32(idx + 1),
		})
	}
	return lines
}

func toLineInputs(lines []JournalEntryLine) []LineInput {
	out := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		out = append(out, LineInput{
			AccountID:    line.AccountID,
			Description:  line.Description,
			DebitAmount:  line.DebitAmount,
			CreditAmount: line.CreditAmount,
		})
	}
	return out
}
