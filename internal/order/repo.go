// Package order implements checkout and the order lifecycle.
package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/db"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/inventory"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrStatusChanged means the order left the expected status before the
	// update landed.
	ErrStatusChanged     = errors.New("order status changed concurrently")
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrConflict means Postgres aborted the transaction for a deadlock or
	// serialization failure; the caller may retry.
	ErrConflict = errors.New("order write conflict")
)

// StockError names the product that could not be reserved.
type StockError struct{ ProductID string }

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s", e.ProductID)
}

func (e *StockError) Unwrap() error { return ErrInsufficientStock }

type Repository interface {
	// CreateCheckout writes the orders, their items, the stock decrements and
	// the pending payments atomically.
	CreateCheckout(ctx context.Context, orders []*Order, payments []PendingPayment) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, q Query) ([]Order, int, error)
	// UpdateStatus moves the order from -> to and applies move to the item
	// quantities in the same transaction.
	UpdateStatus(ctx context.Context, id string, from, to Status, move StockMove) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

// conflictOr maps deadlocks and serialization failures to ErrConflict.
func conflictOr(err error) error {
	if db.IsConflict(err) {
		return ErrConflict
	}
	return err
}

// stockLine is a product's total quantity within one write.
type stockLine struct {
	productID string
	qty       int
}

// lockOrder sorts lines by product id, the order every writer locks
// inventory rows in, so concurrent checkouts cannot deadlock each other.
func lockOrder(lines []stockLine) []stockLine {
	sort.Slice(lines, func(i, j int) bool { return lines[i].productID < lines[j].productID })
	return lines
}

// adjustStock applies sign*qty to each line.
func adjustStock(ctx context.Context, tx pgx.Tx, lines []stockLine, sign int) error {
	for _, l := range lockOrder(lines) {
		_, err := inventory.AdjustIn(ctx, tx, l.productID, sign*l.qty)
		switch {
		case err == nil:
		case sign > 0 && errors.Is(err, inventory.ErrNotFound):
			// A product deleted since checkout has no inventory to restore.
		case errors.Is(err, inventory.ErrInsufficientStock), errors.Is(err, inventory.ErrNotFound):
			return &StockError{ProductID: l.productID}
		default:
			return err
		}
	}
	return nil
}

func (r *PGRepo) CreateCheckout(ctx context.Context, orders []*Order, payments []PendingPayment) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return conflictOr(r.createCheckout(ctx, orders, payments))
}

func (r *PGRepo) createCheckout(ctx context.Context, orders []*Order, payments []PendingPayment) error {

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	need := map[string]int{}
	for _, o := range orders {
		if err := tx.QueryRow(ctx, `
			INSERT INTO orders (id, customer_id, vendor_id, status, subtotal_cents, shipping_cents, tax_cents,
			                    shipping_address, payment_method, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW())
			RETURNING total_cents, created_at, updated_at
		`, o.ID, o.CustomerID, o.VendorID, o.Status, o.SubtotalCents, o.ShippingCents, o.TaxCents,
			o.ShippingAddress, o.PaymentMethod).Scan(&o.TotalCents, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return err
		}
		for _, it := range o.Items {
			if _, err := tx.Exec(ctx, `
				INSERT INTO order_items (id, order_id, product_id, product_name, sku, unit_price_cents, quantity, line_total_cents)
				VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			`, it.ID, o.ID, it.ProductID, it.ProductName, it.SKU, it.UnitPriceCents, it.Quantity, it.LineTotalCents); err != nil {
				return err
			}
			need[*it.ProductID] += it.Quantity
		}
	}
	lines := lo.MapToSlice(need, func(id string, qty int) stockLine { return stockLine{productID: id, qty: qty} })
	if err := adjustStock(ctx, tx, lines, -1); err != nil {
		return err
	}
	for _, p := range payments {
		if _, err := tx.Exec(ctx, `
			INSERT INTO payments (id, order_id, provider, amount_cents, currency, status, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,'PENDING',NOW(),NOW())
		`, p.ID, p.OrderID, p.Provider, p.AmountCents, p.Currency); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

const orderColumns = `id, customer_id, vendor_id, status, subtotal_cents, shipping_cents, tax_cents, total_cents,
	shipping_address, payment_method, created_at, updated_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	if err := row.Scan(&o.ID, &o.CustomerID, &o.VendorID, &o.Status, &o.SubtotalCents, &o.ShippingCents,
		&o.TaxCents, &o.TotalCents, &o.ShippingAddress, &o.PaymentMethod, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if err != nil {
		return nil, err
	}
	items, err := r.items(ctx, []string{o.ID})
	if err != nil {
		return nil, err
	}
	o.Items = items[o.ID]
	return o, nil
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Order, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	const where = `
		WHERE ($1 = '' OR customer_id::text = $1)
		  AND ($2 = '' OR vendor_id::text = $2)
		  AND ($3 = '' OR status = $3)`
	args := []any{q.CustomerID, q.VendorID, string(q.Status)}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+orderColumns+` FROM orders`+where+`
		ORDER BY created_at DESC LIMIT $4 OFFSET $5`, append(args, q.Limit, q.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	items, err := r.items(ctx, lo.Map(out, func(o Order, _ int) string { return o.ID }))
	if err != nil {
		return nil, 0, err
	}
	for i := range out {
		out[i].Items = items[out[i].ID]
	}
	return out, total, nil
}

// items loads the line items of several orders in one query.
func (r *PGRepo) items(ctx context.Context, orderIDs []string) (map[string][]Item, error) {
	out := make(map[string][]Item, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, order_id, product_id, product_name, sku, unit_price_cents, quantity, line_total_cents
		FROM order_items WHERE order_id = ANY($1::uuid[])
		ORDER BY product_name
	`, orderIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.SKU,
			&it.UnitPriceCents, &it.Quantity, &it.LineTotalCents); err != nil {
			return nil, err
		}
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, rows.Err()
}

func (r *PGRepo) UpdateStatus(ctx context.Context, id string, from, to Status, move StockMove) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return conflictOr(r.updateStatus(ctx, id, from, to, move))
}

func (r *PGRepo) updateStatus(ctx context.Context, id string, from, to Status, move StockMove) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `
		UPDATE orders SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrStatusChanged
	}

	if move != StockKeep {
		rows, err := tx.Query(ctx, `
			SELECT product_id, SUM(quantity)::int FROM order_items
			WHERE order_id = $1 AND product_id IS NOT NULL
			GROUP BY product_id
		`, id)
		if err != nil {
			return err
		}
		lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (stockLine, error) {
			var l stockLine
			err := row.Scan(&l.productID, &l.qty)
			return l, err
		})
		if err != nil {
			return err
		}
		sign := 1
		if move == StockReserve {
			sign = -1
		}
		if err := adjustStock(ctx, tx, lines, sign); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
