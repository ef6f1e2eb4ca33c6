package user

import "context"

// Repository defines the persistence contract every backend must honor.
// Each method is atomic with respect to a single record.
type Repository interface {
	// Create inserts a new record, returning ErrUserAlreadyExists on a duplicate username
	Create(ctx context.Context, u *User) error

	// GetByUsername retrieves a record, returning ErrUserNotFound if absent
	GetByUsername(ctx context.Context, username string) (*User, error)

	// List returns at most limit records in the backend's native order
	List(ctx context.Context, limit int) ([]*User, error)

	// Update overwrites every mutable field of an existing record
	Update(ctx context.Context, u *User) error

	// Patch overwrites only the fields present in p
	Patch(ctx context.Context, p *Patch) error

	// Delete removes a record, returning ErrUserNotFound if absent
	Delete(ctx context.Context, username string) error
}
