package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vbonduro/perfumery/internal/domain"
)

const userColumns = `id, email, password, name, yob, gender, is_admin, is_blocked,
	block_reason, blocked_at, blocked_by, created_at, updated_at`

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, u *domain.User) (*domain.User, error) {
	var blockedAt sql.NullTime
	if u.BlockedAt != nil {
		blockedAt = sql.NullTime{Time: u.BlockedAt.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, u.ID, u.Email, u.PasswordHash, u.Name, u.YOB, u.Gender, u.IsAdmin, u.IsBlocked,
		u.BlockReason, blockedAt, u.BlockedBy, u.CreatedAt.UTC(), u.UpdatedAt.UTC())
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("user email %w", ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.GetByID(ctx, u.ID)
}

func (s *UserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByEmail matches the email case-insensitively.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email)
	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (s *UserStore) List(ctx context.Context) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer closeRows(rows)

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

func (s *UserStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (s *UserStore) UpdateProfile(ctx context.Context, id, name, email string, yob int, gender string, updatedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET name = ?, email = ?, yob = ?, gender = ?, updated_at = ? WHERE id = ?
	`, name, email, yob, gender, updatedAt.UTC(), id)
	if isUniqueViolation(err) {
		return fmt.Errorf("user email %w", ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return expectOneRow(result, "user")
}

// Block marks the user blocked and records who blocked them and why.
func (s *UserStore) Block(ctx context.Context, id, reason, blockedBy string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET is_blocked = 1, block_reason = ?, blocked_at = ?, blocked_by = ?, updated_at = ?
		WHERE id = ?
	`, reason, at.UTC(), blockedBy, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to block user: %w", err)
	}

	return expectOneRow(result, "user")
}

// Unblock clears the blocked flag and every block detail.
func (s *UserStore) Unblock(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users SET is_blocked = 0, block_reason = '', blocked_at = NULL, blocked_by = '', updated_at = ?
		WHERE id = ?
	`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to unblock user: %w", err)
	}

	return expectOneRow(result, "user")
}

func scanUser(row rowScanner) (*domain.User, error) {
	u := &domain.User{}
	var blockedAt sql.NullTime
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.YOB, &u.Gender, &u.IsAdmin, &u.IsBlocked,
		&u.BlockReason, &blockedAt, &u.BlockedBy, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if blockedAt.Valid {
		t := blockedAt.Time
		u.BlockedAt = &t
	}
	return u, nil
}
