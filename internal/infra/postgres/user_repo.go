package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kislikjeka/userdir/internal/platform/user"
)

// uniqueViolation is the SQLSTATE for unique_violation
const uniqueViolation = "23505"

// UserRepository implements user.Repository on PostgreSQL.
// Every call runs in its own transaction.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO users (id, username, age, location)
			VALUES ($1, $2, $3, $4)
		`, uuid.New(), u.Username, u.Age, u.Location)
		if err != nil {
			if isUniqueViolation(err) {
				return user.ErrUserAlreadyExists
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	var u *user.User
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			SELECT username, age, location
			FROM users
			WHERE username = $1
		`, username)

		var err error
		u, err = scanUser(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return user.ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// List returns up to limit users ordered by creation time
func (r *UserRepository) List(ctx context.Context, limit int) ([]*user.User, error) {
	users := make([]*user.User, 0)
	if limit <= 0 {
		return users, nil
	}
	err := r.withTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `
			SELECT username, age, location
			FROM users
			ORDER BY created_at, id
			LIMIT $1
		`, limit)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return fmt.Errorf("failed to scan user: %w", err)
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
	return r.withTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE users
			SET age = $2, location = $3, updated_at = NOW()
			WHERE username = $1
		`, u.Username, u.Age, u.Location)
		if err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		if result.RowsAffected() == 0 {
			return user.ErrUserNotFound
		}
		return nil
	})
}

// Patch overwrites only the supplied columns in a single statement
func (r *UserRepository) Patch(ctx context.Context, p *user.Patch) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `
			UPDATE users
			SET age = CASE WHEN $2::boolean THEN $3::integer ELSE age END,
			    location = CASE WHEN $4::boolean THEN $5::text ELSE location END,
			    updated_at = NOW()
			WHERE username = $1
		`, p.Username, p.Age.Present, p.Age.Value, p.Location.Present, p.Location.Value)
		if err != nil {
			return fmt.Errorf("failed to patch user: %w", err)
		}
		if result.RowsAffected() == 0 {
			return user.ErrUserNotFound
		}
		return nil
	})
}

// Delete deletes a user
func (r *UserRepository) Delete(ctx context.Context, username string) error {
	return r.withTx(ctx, func(tx pgx.Tx) error {
		result, err := tx.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		if result.RowsAffected() == 0 {
			return user.ErrUserNotFound
		}
		return nil
	})
}

// Ping checks the database connection
func (r *UserRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// withTx runs fn in a transaction. The transaction is committed when fn
// succeeds and rolled back on every other exit path, including panics.
func (r *UserRepository) withTx(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// Rollback after a successful commit returns ErrTxClosed
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) && err == nil {
			err = fmt.Errorf("failed to rollback transaction: %w", rbErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*user.User, error) {
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

// isUniqueViolation checks if the error is a unique constraint violation
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

var _ user.Repository = (*UserRepository)(nil)
