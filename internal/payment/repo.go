// Package payment records payments against orders and reconciles them with
// the card processor.
package payment

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("payment not found")

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	GetByID(ctx context.Context, id string) (*Payment, error)
	GetByExternalRef(ctx context.Context, ref string) (*Payment, error)
	ListByOrder(ctx context.Context, orderID string) ([]Payment, error)
	SetIntent(ctx context.Context, id, externalRef, clientSecret string) error
	SetStatus(ctx context.Context, id string, status Status) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const paymentColumns = `id, order_id, provider, external_ref, amount_cents, currency, status, client_secret, created_at, updated_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment
	if err := row.Scan(&p.ID, &p.OrderID, &p.Provider, &p.ExternalRef, &p.AmountCents, &p.Currency,
		&p.Status, &p.ClientSecret, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepo) Create(ctx context.Context, p *Payment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return r.db.QueryRow(ctx, `
		INSERT INTO payments (id, order_id, provider, external_ref, amount_cents, currency, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW())
		RETURNING created_at, updated_at
	`, p.ID, p.OrderID, p.Provider, p.ExternalRef, p.AmountCents, p.Currency, p.Status).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id))
}

func (r *PGRepo) GetByExternalRef(ctx context.Context, ref string) (*Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scanPayment(r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE external_ref=$1 AND external_ref <> ''`, ref))
}

func (r *PGRepo) ListByOrder(ctx context.Context, orderID string) ([]Payment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id=$1 ORDER BY created_at`, orderID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Payment, error) {
		p, err := scanPayment(row)
		if err != nil {
			return Payment{}, err
		}
		return *p, nil
	})
}

func (r *PGRepo) exec(ctx context.Context, sql string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) SetIntent(ctx context.Context, id, externalRef, clientSecret string) error {
	return r.exec(ctx, `UPDATE payments SET external_ref=$2, client_secret=$3, updated_at=NOW() WHERE id=$1`,
		id, externalRef, clientSecret)
}

func (r *PGRepo) SetStatus(ctx context.Context, id string, status Status) error {
	return r.exec(ctx, `UPDATE payments SET status=$2, updated_at=NOW() WHERE id=$1`, id, status)
}
