package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/kislikjeka/userdir/internal/platform/user"
)

// UserRepository implements user.Repository on SQLite.
// Every call runs in its own transaction.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository wraps an open database handle
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func nowMillis() int64 {
	return time.Now().UTC().UnixMilli()
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		now := nowMillis()
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, username, age, location, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, uuid.NewString(), u.Username, nullInt(u.Age), nullString(u.Location), now, now)
		if err != nil {
			if isUniqueViolation(err) {
				return user.ErrUserAlreadyExists
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	var u *user.User
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT username, age, location
			FROM users
			WHERE username = ?
		`, username)

		var err error
		u, err = scanUser(row)
		if errors.Is(err, sql.ErrNoRows) {
			return user.ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("get user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// List returns up to limit users in insertion order
func (r *UserRepository) List(ctx context.Context, limit int) ([]*user.User, error) {
	users := make([]*user.User, 0)
	if limit <= 0 {
		return users, nil
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT username, age, location
			FROM users
			ORDER BY rowid
			LIMIT ?
		`, limit)
		if err != nil {
			return fmt.Errorf("list users: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return fmt.Errorf("scan user: %w", err)
			}
			users = append(users, u)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}

// Update overwrites age and location of an existing user
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE users
			SET age = ?, location = ?, updated_at = ?
			WHERE username = ?
		`, nullInt(u.Age), nullString(u.Location), nowMillis(), u.Username)
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		return requireRow(result)
	})
}

// Patch overwrites only the supplied columns in a single statement
func (r *UserRepository) Patch(ctx context.Context, p *user.Patch) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE users
			SET age = CASE WHEN ? THEN ? ELSE age END,
			    location = CASE WHEN ? THEN ? ELSE location END,
			    updated_at = ?
			WHERE username = ?
		`, p.Age.Present, nullInt(p.Age.Value), p.Location.Present, nullString(p.Location.Value), nowMillis(), p.Username)
		if err != nil {
			return fmt.Errorf("patch user: %w", err)
		}
		return requireRow(result)
	})
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, username string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
		if err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		return requireRow(result)
	})
}

// Ping checks the database handle
func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// withTx runs fn in a transaction, committing on success and rolling back
// on every other exit path.
func (r *UserRepository) withTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) && err == nil {
			err = fmt.Errorf("rollback transaction: %w", rbErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return user.ErrUserNotFound
	}
	return nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*user.User, error) {
	var (
		u        user.User
		age      sql.NullInt64
		location sql.NullString
	)
	if err := row.Scan(&u.Username, &age, &location); err != nil {
		return nil, err
	}
	if age.Valid {
		a := int(age.Int64)
		u.Age = &a
	}
	if location.Valid {
		u.Location = &location.String
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var _ user.Repository = (*UserRepository)(nil)
