package numbering

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresGenerator reserves numbers through a dedicated counter row per
// (company, fiscal_year). The single-statement upsert takes a row lock, so
// concurrent callers serialize on the key and never see the same counter.
type PostgresGenerator struct {
	db *pgxpool.Pool
}

func NewPostgresGenerator(db *pgxpool.Pool) *PostgresGenerator {
	return &PostgresGenerator{db: db}
}

func (g *PostgresGenerator) Next(ctx context.Context, companyID uuid.UUID, fiscalYear int) (string, error) {
	var counter int64
	err := g.db.QueryRow(ctx, `INSERT INTO entry_sequences (company_id, fiscal_year, counter)
VALUES ($1, $2, 1)
ON CONFLICT (company_id, fiscal_year)
DO UPDATE SET counter = entry_sequences.counter + 1
RETURNING counter`, companyID, fiscalYear).Scan(&counter)
	if err != nil {
		return "", fmt.Errorf("numbering: reserve %s/%d: %w", companyID, fiscalYear, err)
	}
	return Format(fiscalYear, counter), nil
}
