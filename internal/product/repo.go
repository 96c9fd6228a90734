// Package product provides the catalog: products, their categories and the
// repository backing both.
package product

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/db"
)

var (
	ErrNotFound         = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrCategoryExists   = errors.New("category already exists")
)

type Repository interface {
	// Create inserts the product and its inventory row in one transaction.
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id string) (*Product, error)
	List(ctx context.Context, q Query) ([]Product, int, error)
	Update(ctx context.Context, id string, p Patch) error
	Delete(ctx context.Context, id string) (bool, error)

	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, id string) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	DeleteCategory(ctx context.Context, id string) (bool, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const productColumns = `p.id, p.vendor_id, p.category_id, p.name, p.slug, p.description, p.sku,
	p.price_cents, p.status, p.image_url, COALESCE(i.quantity, 0), p.created_at, p.updated_at`

const productFrom = ` FROM products p LEFT JOIN inventory i ON i.product_id = p.id`

func scanProduct(row pgx.Row) (*Product, error) {
	var p Product
	if err := row.Scan(&p.ID, &p.VendorID, &p.CategoryID, &p.Name, &p.Slug, &p.Description, &p.SKU,
		&p.PriceCents, &p.Status, &p.ImageURL, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *PGRepo) Create(ctx context.Context, p *Product) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, `
		INSERT INTO products (id, vendor_id, category_id, name, slug, description, sku, price_cents, status, image_url, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW())
		RETURNING created_at, updated_at
	`, p.ID, p.VendorID, p.CategoryID, p.Name, p.Slug, p.Description, p.SKU, p.PriceCents, p.Status, p.ImageURL).
		Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO inventory (product_id, quantity, updated_at) VALUES ($1,$2,NOW())
	`, p.ID, p.Stock); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Product, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scanProduct(r.db.QueryRow(ctx, `SELECT `+productColumns+productFrom+` WHERE p.id=$1`, id))
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Product, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	const where = `
		WHERE ($1 = '' OR p.name ILIKE '%'||$1||'%' OR p.description ILIKE '%'||$1||'%')
		  AND ($2 = '' OR p.vendor_id::text = $2)
		  AND ($3 = '' OR p.category_id::text = $3)
		  AND ($4 = '' OR p.status = $4)
		  AND ($5::bigint IS NULL OR p.price_cents >= $5)
		  AND ($6::bigint IS NULL OR p.price_cents <= $6)`
	args := []any{strings.TrimSpace(q.Q), q.VendorID, q.CategoryID, string(q.Status), q.MinPrice, q.MaxPrice}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*)`+productFrom+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+productFrom+where+`
		ORDER BY p.created_at DESC LIMIT $7 OFFSET $8`, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, id string, p Patch) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var status *string
	if s, ok := p.Status.Get(); ok {
		v := string(s)
		status = &v
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET name        = COALESCE($2, name),
		    description = COALESCE($3, description),
		    sku         = COALESCE($4, sku),
		    price_cents = COALESCE($5, price_cents),
		    status      = COALESCE($6, status),
		    image_url   = COALESCE($7, image_url),
		    category_id = COALESCE($8::uuid, category_id),
		    updated_at  = NOW()
		WHERE id = $1
	`, id, p.Name.ToPointer(), p.Description.ToPointer(), p.SKU.ToPointer(), p.PriceCents.ToPointer(),
		status, p.ImageURL.ToPointer(), p.CategoryID.ToPointer())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) Delete(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM products WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *PGRepo) CreateCategory(ctx context.Context, c *Category) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO categories (id, name, slug, created_at) VALUES ($1,$2,$3,NOW()) RETURNING created_at
	`, c.ID, c.Name, c.Slug).Scan(&c.CreatedAt)
	if db.IsUniqueViolation(err) {
		return ErrCategoryExists
	}
	return err
}

func (r *PGRepo) GetCategory(ctx context.Context, id string) (*Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var c Category
	err := r.db.QueryRow(ctx, `SELECT id, name, slug, created_at FROM categories WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *PGRepo) ListCategories(ctx context.Context) ([]Category, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT id, name, slug, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Category, error) {
		var c Category
		err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt)
		return c, err
	})
}

func (r *PGRepo) DeleteCategory(ctx context.Context, id string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cmd, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}
