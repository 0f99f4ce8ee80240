package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Likhilrcs/Online-Event-Booking-and-Management/internal/model"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, email, password_hash, role, phone, is_active,
	total_bookings, total_spent, events_created, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.Phone, &u.IsActive,
		&u.Stats.TotalBookings, &u.Stats.TotalSpent, &u.Stats.EventsCreated,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func getUser(ctx context.Context, q querier, clause string, arg any) (*model.User, error) {
	u, err := scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users `+clause, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", classify(err))
	}
	return u, nil
}

func saveUserStats(ctx context.Context, q querier, u *model.User) error {
	tag, err := q.Exec(ctx,
		`UPDATE users SET total_bookings = $2, total_spent = $3, events_created = $4, updated_at = $5
		 WHERE id = $1`,
		u.ID, u.Stats.TotalBookings, u.Stats.TotalSpent, u.Stats.EventsCreated, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user stats: %w", classify(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateUser inserts a new account. A taken email yields ErrConflict.
func (r *Postgres) CreateUser(ctx context.Context, u *model.User) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.Phone, u.IsActive,
		u.Stats.TotalBookings, u.Stats.TotalSpent, u.Stats.EventsCreated,
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", classify(err))
	}
	return nil
}

// GetUser returns a single user or ErrNotFound.
func (r *Postgres) GetUser(ctx context.Context, id string) (*model.User, error) {
	return getUser(ctx, r.db, `WHERE id = $1`, id)
}

// GetUserByEmail looks a user up by normalized email.
func (r *Postgres) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return getUser(ctx, r.db, `WHERE email = $1`, email)
}

// UpdateProfile writes the self-editable profile fields.
func (r *Postgres) UpdateProfile(ctx context.Context, u *model.User) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE users SET name = $2, phone = $3, updated_at = $4 WHERE id = $1`,
		u.ID, u.Name, u.Phone, u.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", classify(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUsers returns all users, newest first.
func (r *Postgres) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// DeleteUser removes an account.
func (r *Postgres) DeleteUser(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
