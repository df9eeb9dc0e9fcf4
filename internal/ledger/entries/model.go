package entries

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryStatus enumerates journal lifecycle values.
type EntryStatus string

const (
	StatusDraft           EntryStatus = "DRAFT"
	StatusPendingApproval EntryStatus = "PENDING_APPROVAL"
	StatusApproved        EntryStatus = "APPROVED"
	StatusPosted          EntryStatus = "POSTED"
	StatusCancelled       EntryStatus = "CANCELLED"
)

// Valid reports whether the value belongs to the closed status set.
func (s EntryStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingApproval, StatusApproved, StatusPosted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no outgoing transition exists.
func (s EntryStatus) Terminal() bool {
	return s == StatusPosted || s == StatusCancelled
}

// JournalEntry captures one balanced ledger event and its lifecycle metadata.
type JournalEntry struct {
	ID          uuid.UUID
	CompanyID   uuid.UUID
	EntryNumber string
	EntryDate   time.Time
	Description string
	Reference   string
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
	Status      EntryStatus
	IsPosted    bool
	Version     int64
	CreatedBy   uuid.UUID
	ApprovedBy  *uuid.UUID
	PostedBy    *uuid.UUID
	CreatedAt   time.Time
	ApprovedAt  *time.Time
	PostedAt    *time.Time
	UpdatedAt   time.Time
	Lines       []JournalEntryLine
}

// JournalEntryLine carries a single debit or credit against an account.
type JournalEntryLine struct {
	ID           uuid.UUID
	EntryID      uuid.UUID
	AccountID    uuid.UUID
	Description  string
	DebitAmount  decimal.Decimal
	CreditAmount decimal.Decimal
	LineNumber   int32
}

// FiscalYear returns the numbering scope derived from the entry date.
func (e JournalEntry) FiscalYear() int {
	return e.EntryDate.Year()
}
