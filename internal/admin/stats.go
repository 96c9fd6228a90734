// Package admin provides marketplace-wide reporting for administrators.
package admin

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/apperr"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/money"
)

// Stats is a point-in-time snapshot of the marketplace.
// swagger:model Stats
type Stats struct {
	Users            int            `json:"users"`
	BannedUsers      int            `json:"banned_users"`
	VendorsByStatus  map[string]int `json:"vendors_by_status"`
	Products         int            `json:"products"`
	ActiveProducts   int            `json:"active_products"`
	OrdersByStatus   map[string]int `json:"orders_by_status"`
	PaidRevenueCents int64          `json:"paid_revenue_cents"`
	PaidRevenue      string         `json:"paid_revenue"`
}

type Repository interface {
	Stats(ctx context.Context) (*Stats, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Stats(ctx context.Context) (*Stats, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s := &Stats{VendorsByStatus: map[string]int{}, OrdersByStatus: map[string]int{}}
	if err := r.db.QueryRow(ctx, `
		SELECT (SELECT COUNT(*) FROM users),
		       (SELECT COUNT(*) FROM users WHERE is_banned),
		       (SELECT COUNT(*) FROM products),
		       (SELECT COUNT(*) FROM products WHERE status = 'ACTIVE'),
		       (SELECT COALESCE(SUM(amount_cents), 0) FROM payments WHERE status = 'PAID')
	`).Scan(&s.Users, &s.BannedUsers, &s.Products, &s.ActiveProducts, &s.PaidRevenueCents); err != nil {
		return nil, err
	}
	if err := r.groupCount(ctx, `SELECT status, COUNT(*) FROM vendors GROUP BY status`, s.VendorsByStatus); err != nil {
		return nil, err
	}
	if err := r.groupCount(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`, s.OrdersByStatus); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *PGRepo) groupCount(ctx context.Context, sql string, into map[string]int) error {
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var k string
		var n int
		if err := rows.Scan(&k, &n); err != nil {
			return err
		}
		into[k] = n
	}
	return rows.Err()
}

type Service struct{ repo Repository }

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	st, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	st.PaidRevenue = money.Format(st.PaidRevenueCents)
	return st, nil
}
