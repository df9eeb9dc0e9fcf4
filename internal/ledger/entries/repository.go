package entries

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/massehanto/accounting-system/internal/audit"
	"github.com/massehanto/accounting-system/internal/ledger/shared"
)

// Repository encapsulates DB operations for journal entries.
type Repository interface {
	Get(ctx context.Context, companyID, entryID uuid.UUID) (JournalEntry, error)
	List(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]JournalEntry, error)
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes methods available within a transaction. Audit
// writes share the transaction so a failed append rolls everything back.
type TxRepository interface {
	GetForUpdate(ctx context.Context, companyID, entryID uuid.UUID) (JournalEntry, error)
	InsertEntry(ctx context.Context, entry JournalEntry) error
	InsertLines(ctx context.Context, lines []JournalEntryLine) error
	ReplaceLines(ctx context.Context, entryID uuid.UUID, lines []JournalEntryLine) error
	UpdateEntry(ctx context.Context, entry JournalEntry, expectedVersion int64) error
	DeleteEntry(ctx context.Context, companyID, entryID uuid.UUID) error
	Audit() audit.Store
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const entryColumns = `id, company_id, entry_number, entry_date, description, reference, total_debit, total_credit, status, is_posted, version, created_by, approved_by, posted_by, created_at, approved_at, posted_at, updated_at`

func (r *repository) Get(ctx context.Context, companyID, entryID uuid.UUID) (JournalEntry, error) {
	row := r.db.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 AND company_id=$2`, entryID, companyID)
	entry, err := scanEntry(row)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines, err = fetchLines(ctx, r.db, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *repository) List(ctx context.Context, companyID uuid.UUID, filter ListFilter) ([]JournalEntry, error) {
	rows, err := r.db.Query(ctx, `SELECT `+entryColumns+` FROM journal_entries
WHERE company_id=$1 AND ($2::text IS NULL OR status=$2)
ORDER BY entry_date DESC, entry_number DESC
LIMIT $3 OFFSET $4`, companyID, nullStatus(filter.Status), filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	wrapper := &txRepository{tx: tx}
	if err := fn(ctx, wrapper); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) GetForUpdate(ctx context.Context, companyID, entryID uuid.UUID) (JournalEntry, error) {
	row := r.tx.QueryRow(ctx, `SELECT `+entryColumns+` FROM journal_entries WHERE id=$1 AND company_id=$2 FOR UPDATE`, entryID, companyID)
	entry, err := scanEntry(row)
	if err != nil {
		return JournalEntry{}, err
	}
	entry.Lines, err = fetchLines(ctx, r.tx, entryID)
	if err != nil {
		return JournalEntry{}, err
	}
	return entry, nil
}

func (r *txRepository) InsertEntry(ctx context.Context, e JournalEntry) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO journal_entries
(id, company_id, entry_number, entry_date, description, reference, total_debit, total_credit, status, is_posted, version, created_by, approved_by, posted_by, created_at, approved_at, posted_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`,
		e.ID, e.CompanyID, e.EntryNumber, e.EntryDate, e.Description, e.Reference, e.TotalDebit, e.TotalCredit,
		e.Status, e.IsPosted, e.Version, e.CreatedBy, e.ApprovedBy, e.PostedBy, e.CreatedAt, e.ApprovedAt, e.PostedAt, e.UpdatedAt)
	return err
}

func (r *txRepository) InsertLines(ctx context.Context, lines []JournalEntryLine) error {
	for _, line := range lines {
		if _, err := r.tx.Exec(ctx, `INSERT INTO journal_entry_lines
(id, entry_id, account_id, description, debit_amount, credit_amount, line_number)
VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			line.ID, line.EntryID, line.AccountID, line.Description, line.DebitAmount, line.CreditAmount, line.LineNumber); err != nil {
			return err
		}
	}
	return nil
}

func (r *txRepository) ReplaceLines(ctx context.Context, entryID uuid.UUID, lines []JournalEntryLine) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_entry_lines WHERE entry_id=$1`, entryID); err != nil {
		return err
	}
	return r.InsertLines(ctx, lines)
}

func (r *txRepository) UpdateEntry(ctx context.Context, e JournalEntry, expectedVersion int64) error {
	cmd, err := r.tx.Exec(ctx, `UPDATE journal_entries SET
entry_date=$3, description=$4, reference=$5, total_debit=$6, total_credit=$7, status=$8, is_posted=$9,
version=version+1, approved_by=$10, posted_by=$11, approved_at=$12, posted_at=$13, updated_at=$14
WHERE id=$1 AND company_id=$2 AND version=$15`,
		e.ID, e.CompanyID, e.EntryDate, e.Description, e.Reference, e.TotalDebit, e.TotalCredit, e.Status, e.IsPosted,
		e.ApprovedBy, e.PostedBy, e.ApprovedAt, e.PostedAt, e.UpdatedAt, expectedVersion)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := r.tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM journal_entries WHERE id=$1 AND company_id=$2)`, e.ID, e.CompanyID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return shared.ErrEntryNotFound
		}
		return shared.ErrStaleVersion
	}
	return nil
}

func (r *txRepository) DeleteEntry(ctx context.Context, companyID, entryID uuid.UUID) error {
	if _, err := r.tx.Exec(ctx, `DELETE FROM journal_entry_lines WHERE entry_id=$1`, entryID); err != nil {
		return err
	}
	cmd, err := r.tx.Exec(ctx, `DELETE FROM journal_entries WHERE id=$1 AND company_id=$2`, entryID, companyID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrEntryNotFound
	}
	return nil
}

func (r *txRepository) Audit() audit.Store {
	return audit.NewPgStore(r.tx)
}

type queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func fetchLines(ctx context.Context, q queryer, entryID uuid.UUID) ([]JournalEntryLine, error) {
	rows, err := q.Query(ctx, `SELECT id, entry_id, account_id, description, debit_amount, credit_amount, line_number
FROM journal_entry_lines WHERE entry_id=$1 ORDER BY line_number ASC`, entryID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lines []JournalEntryLine
	for rows.Next() {
		var line JournalEntryLine
		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountID, &line.Description, &line.DebitAmount, &line.CreditAmount, &line.LineNumber); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanEntry(row pgx.Row) (JournalEntry, error) {
	var e JournalEntry
	err := row.Scan(&e.ID, &e.CompanyID, &e.EntryNumber, &e.EntryDate, &e.Description, &e.Reference,
		&e.TotalDebit, &e.TotalCredit, &e.Status, &e.IsPosted, &e.Version,
		&e.CreatedBy, &e.ApprovedBy, &e.PostedBy, &e.CreatedAt, &e.ApprovedAt, &e.PostedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return JournalEntry{}, shared.ErrEntryNotFound
		}
		return JournalEntry{}, err
	}
	return e, nil
}

func nullStatus(s EntryStatus) any {
	if s == "" {
		return nil
	}
	return string(s)
}
