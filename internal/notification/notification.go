// Package notification stores per-user notifications and pushes new ones to
// connected clients.
package notification

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("notification not found")

type Notification struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Body      string          `json:"body,omitempty"`
	Data      json.RawMessage `json:"data,omitempty" swaggertype:"object"`
	IsRead    bool            `json:"is_read"`
	CreatedAt time.Time       `json:"created_at"`
}

type Query struct {
	UserID     string
	UnreadOnly bool
	Limit      int
	Offset     int
}

// BroadcastRequest payload of admin broadcast.
// swagger:model BroadcastRequest
type BroadcastRequest struct {
	Role  string `json:"role"  binding:"omitempty,oneof=ADMIN VENDOR CUSTOMER" example:"VENDOR"`
	Title string `json:"title" binding:"required,max=200"                    example:"Festival sale"`
	Body  string `json:"body"  binding:"max=2000"`
}

type Repository interface {
	Create(ctx context.Context, n *Notification) error
	List(ctx context.Context, q Query) ([]Notification, int, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	// MarkRead only touches notifications owned by userID.
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, n *Notification) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	data := n.Data
	if len(data) == 0 {
		data = json.RawMessage(`{}`)
	}
	return r.db.QueryRow(ctx, `
		INSERT INTO notifications (id, user_id, type, title, body, data, is_read, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,FALSE,NOW())
		RETURNING created_at
	`, n.ID, n.UserID, n.Type, n.Title, n.Body, []byte(data)).Scan(&n.CreatedAt)
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]Notification, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	const where = ` WHERE user_id = $1 AND (NOT $2 OR NOT is_read)`
	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications`+where, q.UserID, q.UnreadOnly).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, user_id, type, title, body, data, is_read, created_at FROM notifications`+where+`
		ORDER BY created_at DESC LIMIT $3 OFFSET $4
	`, q.UserID, q.UnreadOnly, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, err
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Notification, error) {
		var n Notification
		var data []byte
		err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &data, &n.IsRead, &n.CreatedAt)
		n.Data = data
		return n, err
	})
	return out, total, err
}

func (r *PGRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND NOT is_read`, userID).Scan(&n)
	return n, err
}

func (r *PGRepo) MarkRead(ctx context.Context, userID, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE notifications SET is_read=TRUE WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) MarkAllRead(ctx context.Context, userID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `UPDATE notifications SET is_read=TRUE WHERE user_id=$1 AND NOT is_read`, userID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
