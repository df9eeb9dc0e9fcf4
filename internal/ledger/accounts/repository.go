package accounts

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/massehanto/accounting-system/internal/ledger/shared"
)

// Repository encapsulates DB operations for the chart of accounts.
type Repository interface {
	Get(ctx context.Context, companyID, accountID uuid.UUID) (Account, error)
	List(ctx context.Context, companyID uuid.UUID) ([]Account, error)
	Insert(ctx context.Context, account Account) error
	Update(ctx context.Context, account Account) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const accountColumns = `id, company_id, account_code, account_name, account_type, normal_balance, parent_id, is_active, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Type, &a.NormalBalance, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return a, nil
}

func (r *repository) Get(ctx context.Context, companyID, accountID uuid.UUID) (Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1 AND company_id=$2`, accountID, companyID)
	return scanAccount(row)
}

func (r *repository) List(ctx context.Context, companyID uuid.UUID) ([]Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts WHERE company_id=$1 ORDER BY account_code ASC`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Type, &a.NormalBalance, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *repository) Insert(ctx context.Context, a Account) error {
	_, err := r.db.Exec(ctx, `INSERT INTO accounts (id, company_id, account_code, account_name, account_type, normal_balance, parent_id, is_active, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`, a.ID, a.CompanyID, a.Code, a.Name, a.Type, a.NormalBalance, a.ParentID, a.IsActive, a.CreatedAt, a.UpdatedAt)
	return err
}

func (r *repository) Update(ctx context.Context, a Account) error {
	cmd, err := r.db.Exec(ctx, `UPDATE accounts SET account_name=$3, parent_id=$4, is_active=$5, updated_at=$6 WHERE id=$1 AND company_id=$2`,
		a.ID, a.CompanyID, a.Name, a.ParentID, a.IsActive, a.UpdatedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}
