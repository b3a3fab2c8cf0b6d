package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
)

// Access tiers. Paid accounts get live scans; free accounts are served from
// the pooled audio sessions.
const (
	TierFree = "free"
	TierPaid = "paid"
)

// Account represents a listener account.
type Account struct {
	ID           int        `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"` // Never expose password hash in JSON
	Tier         string     `json:"tier"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

var (
	// ErrAccountNotFound is returned when an account cannot be found
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists is returned when trying to create an account that already exists
	ErrAccountExists = errors.New("account already exists")
)

// AccountRepository provides methods for account database operations.
type AccountRepository struct {
	db *DB
}

// NewAccountRepository creates a new account repository.
func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create creates a new account in the database.
func (r *AccountRepository) Create(ctx context.Context, account *Account) error {
	query := `
		INSERT INTO accounts (username, email, password_hash, tier, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(
		ctx,
		query,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Tier,
		account.IsActive,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrAccountExists
		}
		return err
	}

	return nil
}

// GetByID retrieves an account by its ID.
func (r *AccountRepository) GetByID(ctx context.Context, id int) (*Account, error) {
	query := `
		SELECT id, username, email, password_hash, tier, is_active,
		       created_at, updated_at, last_login
		FROM accounts
		WHERE id = $1
	`

	account := &Account{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Tier,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
		&account.LastLogin,
	)

	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	return account, nil
}

// GetByUsername retrieves an account by its username.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*Account, error) {
	query := `
		SELECT id, username, email, password_hash, tier, is_active,
		       created_at, updated_at, last_login
		FROM accounts
		WHERE username = $1
	`

	account := &Account{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Tier,
		&account.IsActive,
		&account.CreatedAt,
		&account.UpdatedAt,
		&account.LastLogin,
	)

	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}

	return account, nil
}

// UpdateLastLogin updates the last login timestamp for an account.
func (r *AccountRepository) UpdateLastLogin(ctx context.Context, accountID int) error {
	query := `
		UPDATE accounts
		SET last_login = NOW()
		WHERE id = $1
	`

	_, err := r.db.ExecContext(ctx, query, accountID)
	return err
}

// UpdateTier changes an account's access tier.
func (r *AccountRepository) UpdateTier(ctx context.Context, accountID int, tier string) error {
	query := `
		UPDATE accounts
		SET tier = $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.db.ExecContext(ctx, query, tier, accountID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// Deactivate disables an account without deleting its history.
func (r *AccountRepository) Deactivate(ctx context.Context, accountID int) error {
	query := `
		UPDATE accounts
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, accountID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// isUniqueViolation checks if an error is a unique constraint violation.
// PostgreSQL reports these with SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
