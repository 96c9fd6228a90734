// Package inventory tracks the stock on hand for each product.
package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/db"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/product"
)

var (
	ErrNotFound          = errors.New("inventory not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrStockLimit means the result would exceed product.MaxStock.
	ErrStockLimit = errors.New("stock limit exceeded")
)

type Level struct {
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetStockRequest payload of absolute stock update.
// swagger:model SetStockRequest
type SetStockRequest struct {
	Quantity *int `json:"quantity" binding:"required,min=0,max=2147483647" example:"25"`
}

// AdjustStockRequest payload of relative stock update.
// swagger:model AdjustStockRequest
type AdjustStockRequest struct {
	Delta int `json:"delta" binding:"required,min=-2147483647,max=2147483647" example:"-2"`
}

type Repository interface {
	Get(ctx context.Context, productID string) (*Level, error)
	Set(ctx context.Context, productID string, qty int) (*Level, error)
	// Adjust applies delta atomically and fails with ErrInsufficientStock
	// rather than going below zero, or ErrStockLimit above product.MaxStock.
	Adjust(ctx context.Context, productID string, delta int) (*Level, error)
}

// Querier is satisfied by both *pgxpool.Pool and pgx.Tx, so the same
// statements run standalone or inside a caller's transaction.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Get(ctx context.Context, productID string) (*Level, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var l Level
	err := r.db.QueryRow(ctx, `SELECT product_id, quantity, updated_at FROM inventory WHERE product_id=$1`, productID).
		Scan(&l.ProductID, &l.Quantity, &l.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *PGRepo) Set(ctx context.Context, productID string, qty int) (*Level, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	l := Level{ProductID: productID}
	err := r.db.QueryRow(ctx, `
		INSERT INTO inventory (product_id, quantity, updated_at) VALUES ($1,$2,NOW())
		ON CONFLICT (product_id) DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = NOW()
		RETURNING quantity, updated_at
	`, productID, qty).Scan(&l.Quantity, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *PGRepo) Adjust(ctx context.Context, productID string, delta int) (*Level, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return AdjustIn(ctx, r.db, productID, delta)
}

// AdjustIn is Adjust against q, typically a checkout or cancel transaction.
// The bounds are checked in bigint so the INTEGER column never overflows.
func AdjustIn(ctx context.Context, q Querier, productID string, delta int) (*Level, error) {
	l := Level{ProductID: productID}
	err := q.QueryRow(ctx, `
		UPDATE inventory SET quantity = quantity + $2::bigint, updated_at = NOW()
		WHERE product_id = $1 AND quantity + $2::bigint BETWEEN 0 AND $3::bigint
		RETURNING quantity, updated_at
	`, productID, int64(delta), int64(product.MaxStock)).Scan(&l.Quantity, &l.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		var current int64
		err := q.QueryRow(ctx, `SELECT quantity FROM inventory WHERE product_id=$1`, productID).Scan(&current)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}
		return nil, boundsErr(current + int64(delta))
	case db.IsCheckViolation(err):
		return nil, ErrInsufficientStock
	case err != nil:
		return nil, err
	}
	return &l, nil
}

// boundsErr classifies a quantity that fell outside [0, MaxStock].
func boundsErr(qty int64) error {
	if qty < 0 {
		return ErrInsufficientStock
	}
	return ErrStockLimit
}

// Check reports whether qty is a storable stock level.
func Check(qty int64) error {
	if qty < 0 || qty > product.MaxStock {
		return boundsErr(qty)
	}
	return nil
}
