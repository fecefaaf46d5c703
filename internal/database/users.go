// Cotswold Cycling Adventures - Tour Booking Platform
// Copyright 2026 arko8919
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/arko8919/cotswold-cycling-adventures

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/arko8919/cotswold-cycling-adventures/internal/database/query"
	"github.com/arko8919/cotswold-cycling-adventures/internal/models"
)

const userColumns = `id, name, email, photo, role, password, password_changed_at,
	password_reset_token, password_reset_expires, active, created_at`

type userRow struct {
	ID                   string         `db:"id"`
	Name                 string         `db:"name"`
	Email                string         `db:"email"`
	Photo                string         `db:"photo"`
	Role                 string         `db:"role"`
	Password             string         `db:"password"`
	PasswordChangedAt    sql.NullTime   `db:"password_changed_at"`
	PasswordResetToken   sql.NullString `db:"password_reset_token"`
	PasswordResetExpires sql.NullTime   `db:"password_reset_expires"`
	Active               bool           `db:"active"`
	CreatedAt            time.Time      `db:"created_at"`
}

func (r *userRow) toModel() models.User {
	return models.User{
		ID:                   r.ID,
		Name:                 r.Name,
		Email:                r.Email,
		Photo:                r.Photo,
		Role:                 r.Role,
		Password:             r.Password,
		PasswordChangedAt:    timePtr(r.PasswordChangedAt),
		PasswordResetToken:   r.PasswordResetToken.String,
		PasswordResetExpires: timePtr(r.PasswordResetExpires),
		Active:               r.Active,
		CreatedAt:            r.CreatedAt.UTC(),
	}
}

// CreateUser inserts a user. Password must already be hashed. The email is
// stored lowercased; photo and role fall back to their defaults.
func (db *DB) CreateUser(ctx context.Context, u *models.User) (created *models.User, err error) {
	defer db.observe("create_user", time.Now(), &err)

	user := *u
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Photo == "" {
		user.Photo = models.DefaultPhoto
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.Active = true
	user.CreatedAt = db.now().UTC()

	_, err = db.x.ExecContext(ctx, `
		INSERT INTO users (id, name, email, photo, role, password, password_changed_at, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, true, ?)`,
		user.ID, user.Name, user.Email, user.Photo, user.Role, user.Password,
		nullTime(user.PasswordChangedAt), user.CreatedAt)
	if err != nil {
		return nil, translateError(fmt.Errorf("insert user: %w", err))
	}
	return &user, nil
}

func getUserRow(ctx context.Context, q sqlx.QueryerContext, where string, args ...interface{}) (*userRow, error) {
	var row userRow
	err := sqlx.GetContext(ctx, q, &row,
		"SELECT "+userColumns+" FROM users WHERE active = true AND "+where, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &row, nil
}

// GetUser returns an active user by id.
func (db *DB) GetUser(ctx context.Context, id string) (u *models.User, err error) {
	defer db.observe("get_user", time.Now(), &err)

	row, err := getUserRow(ctx, db.x, "id = ?", id)
	if err != nil {
		return nil, err
	}
	user := row.toModel()
	return &user, nil
}

// GetUserByEmail returns an active user including the password hash.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (u *models.User, err error) {
	defer db.observe("get_user_by_email", time.Now(), &err)

	row, err := getUserRow(ctx, db.x, "email = ?", strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	user := row.toModel()
	return &user, nil
}

// GetUserByResetToken returns the user holding the hashed reset token if it
// has not expired at now.
func (db *DB) GetUserByResetToken(ctx context.Context, hashed string, now time.Time) (u *models.User, err error) {
	defer db.observe("get_user_by_reset_token", time.Now(), &err)

	row, err := getUserRow(ctx, db.x, "password_reset_token = ? AND password_reset_expires > ?", hashed, now.UTC())
	if err != nil {
		return nil, err
	}
	user := row.toModel()
	return &user, nil
}

// ListUsers returns active users matching f.
func (db *DB) ListUsers(ctx context.Context, f *query.Features) (users []models.User, err error) {
	defer db.observe("list_users", time.Now(), &err)

	where, args, orderBy, limit, offset := f.Build(query.NewWhereBuilder().AddClause("active = true"))
	q := fmt.Sprintf("SELECT %s FROM users WHERE %s ORDER BY %s LIMIT %d OFFSET %d",
		userColumns, where, orderBy, limit, offset)

	var rows []userRow
	if err := db.x.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	users = make([]models.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].toModel())
	}
	return users, nil
}

// loadUserSummaries returns summaries of the active users among ids.
func loadUserSummaries(ctx context.Context, q sqlx.QueryerContext, ids []string) (map[string]models.UserSummary, error) {
	out := make(map[string]models.UserSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	stmt, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE active = true AND id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("build user query: %w", err)
	}
	var rows []userRow
	if err := sqlx.SelectContext(ctx, q, &rows, stmt, args...); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for i := range rows {
		u := rows[i].toModel()
		out[u.ID] = u.Summary()
	}
	return out, nil
}

// UpdateUser lets apply change name, email, photo and role of an active user.
func (db *DB) UpdateUser(ctx context.Context, id string, apply func(*models.User) error) (updated *models.User, err error) {
	defer db.observe("update_user", time.Now(), &err)

	var user models.User
	err = db.retryOnConflict(ctx, func() error {
		return db.withTx(ctx, func(tx *sqlx.Tx) error {
			row, err := getUserRow(ctx, tx, "id = ?", id)
			if err != nil {
				return err
			}
			user = row.toModel()
			if err := apply(&user); err != nil {
				return err
			}
			user.Email = strings.ToLower(strings.TrimSpace(user.Email))

			sets := []string{"name = ?", "photo = ?", "role = ?"}
			args := []interface{}{user.Name, user.Photo, user.Role}
			if user.Email != row.Email {
				sets = append(sets, "email = ?")
				args = append(args, user.Email)
			}
			args = append(args, id)

			res, err := tx.ExecContext(ctx, "UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
			if err != nil {
				return fmt.Errorf("update user: %w", err)
			}
			return requireRow(res)
		})
	})
	if err != nil {
		return nil, translateError(err)
	}
	return &user, nil
}

// UpdateMe applies the self-service fields. Empty values are left alone.
func (db *DB) UpdateMe(ctx context.Context, id, name, email, photo string) (*models.User, error) {
	return db.UpdateUser(ctx, id, func(u *models.User) error {
		if name != "" {
			u.Name = name
		}
		if email != "" {
			u.Email = email
		}
		if photo != "" {
			u.Photo = photo
		}
		return nil
	})
}

// SetPassword stores a new hash and clears any reset token. The change time
// is backdated one second so a token issued right after still validates.
func (db *DB) SetPassword(ctx context.Context, id, hash string) (u *models.User, err error) {
	defer db.observe("set_password", time.Now(), &err)

	changedAt := db.now().Add(-time.Second).UTC()
	err = db.execOne(ctx, `UPDATE users SET password = ?, password_changed_at = ?,
		password_reset_token = NULL, password_reset_expires = NULL
		WHERE id = ? AND active = true`, hash, changedAt, id)
	if err != nil {
		return nil, err
	}
	return db.GetUser(ctx, id)
}

// SetResetToken stores the hashed reset token and its expiry.
func (db *DB) SetResetToken(ctx context.Context, id, hashed string, expires time.Time) (err error) {
	defer db.observe("set_reset_token", time.Now(), &err)

	return db.execOne(ctx, `UPDATE users SET password_reset_token = ?, password_reset_expires = ?
		WHERE id = ? AND active = true`, hashed, expires.UTC(), id)
}

// ClearResetToken removes a pending reset token.
func (db *DB) ClearResetToken(ctx context.Context, id string) (err error) {
	defer db.observe("clear_reset_token", time.Now(), &err)

	return db.execOne(ctx, `UPDATE users SET password_reset_token = NULL, password_reset_expires = NULL
		WHERE id = ?`, id)
}

// DeactivateUser hides the user from every read.
func (db *DB) DeactivateUser(ctx context.Context, id string) (err error) {
	defer db.observe("deactivate_user", time.Now(), &err)

	return db.execOne(ctx, `UPDATE users SET active = false WHERE id = ? AND active = true`, id)
}

// DeleteUser removes the user row.
func (db *DB) DeleteUser(ctx context.Context, id string) (err error) {
	defer db.observe("delete_user", time.Now(), &err)

	return db.execOne(ctx, `DELETE FROM users WHERE id = ?`, id)
}

// execOne runs a statement that must touch at least one row.
func (db *DB) execOne(ctx context.Context, stmt string, args ...interface{}) error {
	return db.retryOnConflict(ctx, func() error {
		res, err := db.x.ExecContext(ctx, stmt, args...)
		if err != nil {
			return translateError(err)
		}
		return requireRow(res)
	})
}
