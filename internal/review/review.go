// Package review holds verified-purchase product reviews.
package review

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/db"
)

var (
	ErrNotFound     = errors.New("review not found")
	ErrAlreadyExist = errors.New("review already exists")
)

type Review struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"order_id"`
	ProductID   string     `json:"product_id"`
	CustomerID  string     `json:"customer_id"`
	Rating      int        `json:"rating"`
	Comment     string     `json:"comment,omitempty"`
	VendorReply string     `json:"vendor_reply,omitempty"`
	RepliedAt   *time.Time `json:"replied_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Summary aggregates a product's ratings.
type Summary struct {
	Count   int     `json:"count"`
	Average float64 `json:"average"`
}

// CreateReviewRequest payload of review creation.
// swagger:model CreateReviewRequest
type CreateReviewRequest struct {
	OrderID   string `json:"order_id"   binding:"required,uuid"`
	ProductID string `json:"product_id" binding:"required,uuid"`
	Rating    int    `json:"rating"     binding:"required,min=1,max=5" example:"5"`
	Comment   string `json:"comment"    binding:"max=2000"             example:"Beautiful stitching"`
}

// ReplyRequest payload of vendor reply.
// swagger:model ReplyRequest
type ReplyRequest struct {
	Reply string `json:"reply" binding:"required,max=2000" example:"Thank you!"`
}

type Repository interface {
	Create(ctx context.Context, r *Review) error
	GetByID(ctx context.Context, id string) (*Review, error)
	ListForProduct(ctx context.Context, productID string, limit, offset int) ([]Review, Summary, error)
	SetReply(ctx context.Context, id, reply string) error
	Delete(ctx context.Context, id string) (bool, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const reviewColumns = `id, order_id, product_id, customer_id, rating, comment, vendor_reply, replied_at, created_at`

func scanReview(row pgx.Row) (*Review, error) {
	var r Review
	if err := row.Scan(&r.ID, &r.OrderID, &r.ProductID, &r.CustomerID, &r.Rating, &r.Comment,
		&r.VendorReply, &r.RepliedAt, &r.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &r, nil
}

func (p *PGRepo) Create(ctx context.Context, r *Review) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := p.db.QueryRow(ctx, `
		INSERT INTO reviews (id, order_id, product_id, customer_id, rating, comment, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW()) RETURNING created_at
	`, r.ID, r.OrderID, r.ProductID, r.CustomerID, r.Rating, r.Comment).Scan(&r.CreatedAt)
	if db.IsUniqueViolation(err) {
		return ErrAlreadyExist
	}
	return err
}

func (p *PGRepo) GetByID(ctx context.Context, id string) (*Review, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scanReview(p.db.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id=$1`, id))
}

func (p *PGRepo) ListForProduct(ctx context.Context, productID string, limit, offset int) ([]Review, Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var sum Summary
	if err := p.db.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(AVG(rating), 0)::float8 FROM reviews WHERE product_id=$1
	`, productID).Scan(&sum.Count, &sum.Average); err != nil {
		return nil, sum, err
	}
	rows, err := p.db.Query(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE product_id=$1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, productID, limit, offset)
	if err != nil {
		return nil, sum, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Review, error) {
		r, err := scanReview(row)
		if err != nil {
			return Review{}, err
		}
		return *r, nil
	})
	return out, sum, err
}

func (p *PGRepo) SetReply(ctx context.Context, id, reply string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := p.db.Exec(ctx, `UPDATE reviews SET vendor_reply=$2, replied_at=NOW() WHERE id=$1`, id, reply)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := p.db.Exec(ctx, `DELETE FROM reviews WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
