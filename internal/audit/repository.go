package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is the transaction-scoped persistence for audit records.
type PgStore struct {
	tx pgx.Tx
}

func NewPgStore(tx pgx.Tx) *PgStore {
	return &PgStore{tx: tx}
}

func (s *PgStore) LastChainHash(ctx context.Context, table string, recordID uuid.UUID) ([]byte, error) {
	var hash []byte
	err := s.tx.QueryRow(ctx, `SELECT chain_hash FROM audit_logs
WHERE table_name=$1 AND record_id=$2 ORDER BY occurred_at DESC, id DESC LIMIT 1`, table, recordID).Scan(&hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return hash, nil
}

func (s *PgStore) Append(ctx context.Context, r Record) error {
	_, err := s.tx.Exec(ctx, `INSERT INTO audit_logs (id, table_name, record_id, action, old_values, new_values, actor_id, chain_hash, occurred_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`, r.ID, r.TableName, r.RecordID, r.Action, r.OldValues, r.NewValues, r.ActorID, r.ChainHash, r.OccurredAt)
	return err
}

// ReadRepository melayani pembacaan audit trail untuk timeline dan ekspor.
type ReadRepository interface {
	Window(ctx context.Context, f TimelineFilters, limit, offset int) ([]Record, error)
	All(ctx context.Context, f TimelineFilters) ([]Record, error)
	Chain(ctx context.Context, table string, recordID uuid.UUID) ([]Record, error)
}

type readRepository struct {
	db *pgxpool.Pool
}

func NewReadRepository(db *pgxpool.Pool) ReadRepository {
	return &readRepository{db: db}
}

const auditColumns = `id, table_name, record_id, action, old_values, new_values, actor_id, chain_hash, occurred_at`

func (r *readRepository) Window(ctx context.Context, f TimelineFilters, limit, offset int) ([]Record, error) {
	rows, err := r.db.Query(ctx, `SELECT `+auditColumns+` FROM audit_logs
WHERE ($1::timestamptz IS NULL OR occurred_at >= $1)
  AND ($2::timestamptz IS NULL OR occurred_at <= $2)
  AND ($3::text IS NULL OR table_name = $3)
  AND ($4::text IS NULL OR action = $4)
  AND ($5::uuid IS NULL OR actor_id = $5)
ORDER BY occurred_at DESC, id DESC
LIMIT $6 OFFSET $7`,
		nullTime(f.From), nullTime(f.To), nullText(f.Table), nullText(f.Action), nullUUID(f.ActorID), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (r *readRepository) All(ctx context.Context, f TimelineFilters) ([]Record, error) {
	rows, err := r.db.Query(ctx, `SELECT `+auditColumns+` FROM audit_logs
WHERE ($1::timestamptz IS NULL OR occurred_at >= $1)
  AND ($2::timestamptz IS NULL OR occurred_at <= $2)
  AND ($3::text IS NULL OR table_name = $3)
  AND ($4::text IS NULL OR action = $4)
  AND ($5::uuid IS NULL OR actor_id = $5)
ORDER BY occurred_at ASC, id ASC`,
		nullTime(f.From), nullTime(f.To), nullText(f.Table), nullText(f.Action), nullUUID(f.ActorID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func (r *readRepository) Chain(ctx context.Context, table string, recordID uuid.UUID) ([]Record, error) {
	rows, err := r.db.Query(ctx, `SELECT `+auditColumns+` FROM audit_logs
WHERE table_name=$1 AND record_id=$2 ORDER BY occurred_at ASC, id ASC`, table, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]Record, error) {
	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.TableName, &rec.RecordID, &rec.Action, &rec.OldValues, &rec.NewValues, &rec.ActorID, &rec.ChainHash, &rec.OccurredAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullText(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullUUID(id uuid.UUID) any {
	if id == uuid.Nil {
		return nil
	}
	return id
}
