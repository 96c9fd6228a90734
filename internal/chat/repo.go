// Package chat implements customer to vendor conversations.
package chat

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("conversation not found")

type Repository interface {
	// GetOrCreate returns the conversation keyed by (customer, vendor,
	// product-or-nil), creating it on first use.
	GetOrCreate(ctx context.Context, c *Conversation) (*Conversation, error)
	GetByID(ctx context.Context, id string) (*Conversation, error)
	// ListForUser returns conversations where userID is the customer or
	// owns vendorID, most recent activity first.
	ListForUser(ctx context.Context, userID, vendorID string, limit, offset int) ([]Conversation, int, error)
	// AddMessage appends m and bumps the conversation's last_message_at.
	AddMessage(ctx context.Context, m *Message) error
	Messages(ctx context.Context, conversationID string, limit, offset int) ([]Message, int, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const convColumns = `id, customer_id, vendor_id, product_id, created_at, last_message_at`

func scanConv(row pgx.Row) (*Conversation, error) {
	var c Conversation
	if err := row.Scan(&c.ID, &c.CustomerID, &c.VendorID, &c.ProductID, &c.CreatedAt, &c.LastMessageAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *PGRepo) GetOrCreate(ctx context.Context, c *Conversation) (*Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// The no-op update makes RETURNING yield the existing row on conflict.
	return scanConv(r.db.QueryRow(ctx, `
		INSERT INTO conversations (id, customer_id, vendor_id, product_id, created_at, last_message_at)
		VALUES ($1,$2,$3,$4,NOW(),NOW())
		ON CONFLICT (customer_id, vendor_id, COALESCE(product_id, '00000000-0000-0000-0000-000000000000'::uuid))
		DO UPDATE SET customer_id = EXCLUDED.customer_id
		RETURNING `+convColumns, c.ID, c.CustomerID, c.VendorID, c.ProductID))
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Conversation, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scanConv(r.db.QueryRow(ctx, `SELECT `+convColumns+` FROM conversations WHERE id=$1`, id))
}

func (r *PGRepo) ListForUser(ctx context.Context, userID, vendorID string, limit, offset int) ([]Conversation, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	const where = ` WHERE customer_id::text = $1 OR ($2 <> '' AND vendor_id::text = $2)`
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM conversations`+where, userID, vendorID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+convColumns+` FROM conversations`+where+`
		ORDER BY last_message_at DESC LIMIT $3 OFFSET $4`, userID, vendorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Conversation, error) {
		c, err := scanConv(row)
		if err != nil {
			return Conversation{}, err
		}
		return *c, nil
	})
	return out, total, err
}

func (r *PGRepo) AddMessage(ctx context.Context, m *Message) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := tx.QueryRow(ctx, `
		INSERT INTO messages (id, conversation_id, sender_id, body, created_at)
		VALUES ($1,$2,$3,$4,NOW()) RETURNING created_at
	`, m.ID, m.ConversationID, m.SenderID, m.Body).Scan(&m.CreatedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `UPDATE conversations SET last_message_at=$2 WHERE id=$1`, m.ConversationID, m.CreatedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PGRepo) Messages(ctx context.Context, conversationID string, limit, offset int) ([]Message, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE conversation_id=$1`, conversationID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, conversation_id, sender_id, body, created_at FROM messages
		WHERE conversation_id=$1 ORDER BY created_at, id LIMIT $2 OFFSET $3
	`, conversationID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	out, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Message])
	return out, total, err
}
