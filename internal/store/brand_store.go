package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vbonduro/perfumery/internal/domain"
)

type BrandStore struct {
	db *sql.DB
}

func NewBrandStore(db *sql.DB) *BrandStore {
	return &BrandStore{db: db}
}

func (s *BrandStore) Create(ctx context.Context, brand *domain.Brand) (*domain.Brand, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO brands (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)
	`, brand.ID, brand.Name, brand.CreatedAt.UTC(), brand.UpdatedAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create brand: %w", err)
	}

	return s.GetByID(ctx, brand.ID)
}

func (s *BrandStore) GetByID(ctx context.Context, id string) (*domain.Brand, error) {
	brand := &domain.Brand{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at FROM brands WHERE id = ?
	`, id).Scan(&brand.ID, &brand.Name, &brand.CreatedAt, &brand.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brand: %w", err)
	}

	return brand, nil
}

// List returns brands in insertion order.
func (s *BrandStore) List(ctx context.Context) ([]*domain.Brand, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, created_at, updated_at FROM brands ORDER BY created_at ASC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	defer closeRows(rows)

	var brands []*domain.Brand
	for rows.Next() {
		brand := &domain.Brand{}
		if err := rows.Scan(&brand.ID, &brand.Name, &brand.CreatedAt, &brand.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan brand: %w", err)
		}
		brands = append(brands, brand)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating brands: %w", err)
	}

	return brands, nil
}

func (s *BrandStore) Update(ctx context.Context, id, name string, updatedAt time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE brands SET name = ?, updated_at = ? WHERE id = ?
	`, name, updatedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update brand: %w", err)
	}

	return expectOneRow(result, "brand")
}

// Delete removes the brand. Perfumes referencing it keep existing with no
// brand.
func (s *BrandStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM brands WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete brand: %w", err)
	}

	return expectOneRow(result, "brand")
}
