package user

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Apples890/Craftmandu-Updated-sub000/internal/auth"
	"github.com/Apples890/Craftmandu-Updated-sub000/internal/db"
)

var (
	ErrNotFound     = errors.New("user not found")
	ErrAlreadyExist = errors.New("user already exists")
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, id string, p Patch) error
	List(ctx context.Context, q Query) ([]User, int, error)
	SetBanned(ctx context.Context, id string, banned bool) error
	SetCapabilities(ctx context.Context, id string, c Capabilities) error
	SetRole(ctx context.Context, id string, role auth.Role) error
	ListIDsByRole(ctx context.Context, role auth.Role) ([]string, error)
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const userColumns = `id, email, password_hash, full_name, phone, avatar_url, role,
	is_banned, can_chat, can_order, can_review, created_at, updated_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	if err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FullName, &u.Phone, &u.AvatarURL, &u.Role,
		&u.IsBanned, &u.CanChat, &u.CanOrder, &u.CanReview, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *PGRepo) Create(ctx context.Context, u *User) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := r.db.QueryRow(ctx, `
		INSERT INTO users (id, email, password_hash, full_name, role, can_chat, can_order, can_review, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,NOW(),NOW())
		RETURNING created_at, updated_at
	`, u.ID, u.Email, u.PasswordHash, u.FullName, u.Role, u.CanChat, u.CanOrder, u.CanReview).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if db.IsUniqueViolation(err) {
		return ErrAlreadyExist
	}
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (r *PGRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, email))
}

func (r *PGRepo) Update(ctx context.Context, id string, p Patch) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET full_name     = COALESCE($2, full_name),
		    phone         = COALESCE($3, phone),
		    avatar_url    = COALESCE($4, avatar_url),
		    password_hash = COALESCE($5, password_hash),
		    updated_at    = NOW()
		WHERE id = $1
	`, id, p.FullName.ToPointer(), p.Phone.ToPointer(), p.AvatarURL.ToPointer(), p.PasswordHash.ToPointer())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) List(ctx context.Context, q Query) ([]User, int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	const where = `
		WHERE ($1 = '' OR email ILIKE '%'||$1||'%' OR full_name ILIKE '%'||$1||'%')
		  AND ($2 = '' OR role = $2)`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, q.Q, string(q.Role)).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users`+where+`
		ORDER BY created_at DESC LIMIT $3 OFFSET $4`, q.Q, string(q.Role), q.Limit, q.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *u)
	}
	return out, total, rows.Err()
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

func (r *PGRepo) SetBanned(ctx context.Context, id string, banned bool) error {
	return r.exec(ctx, `UPDATE users SET is_banned=$2, updated_at=NOW() WHERE id=$1`, id, banned)
}

func (r *PGRepo) SetCapabilities(ctx context.Context, id string, c Capabilities) error {
	return r.exec(ctx, `
		UPDATE users
		SET can_chat   = COALESCE($2, can_chat),
		    can_order  = COALESCE($3, can_order),
		    can_review = COALESCE($4, can_review),
		    updated_at = NOW()
		WHERE id = $1
	`, id, c.CanChat.ToPointer(), c.CanOrder.ToPointer(), c.CanReview.ToPointer())
}

func (r *PGRepo) SetRole(ctx context.Context, id string, role auth.Role) error {
	return r.exec(ctx, `UPDATE users SET role=$2, updated_at=NOW() WHERE id=$1`, id, role)
}

func (r *PGRepo) ListIDsByRole(ctx context.Context, role auth.Role) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT id FROM users WHERE ($1 = '' OR role = $1) AND NOT is_banned`, string(role))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
