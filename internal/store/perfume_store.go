package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/vbonduro/perfumery/internal/domain"
)

const perfumeColumns = `p.id, p.name, p.uri, p.price, p.concentration, p.description, p.volume,
	p.target_audience, p.brand_id, p.image_url, p.image_key, p.category, p.created_at, p.updated_at`

type PerfumeStore struct {
	db *sql.DB
}

func NewPerfumeStore(db *sql.DB) *PerfumeStore {
	return &PerfumeStore{db: db}
}

// Create inserts the perfume and its ingredients in one transaction.
func (s *PerfumeStore) Create(ctx context.Context, p *domain.Perfume) (*domain.Perfume, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO perfumes (id, name, uri, price, concentration, description, volume,
			target_audience, brand_id, image_url, image_key, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.URI, p.Price, p.Concentration, p.Description, p.Volume,
		p.TargetAudience, nullString(p.BrandID), p.ImageURL, p.ImageKey, p.Category,
		p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create perfume: %w", err)
	}

	if err := insertIngredients(ctx, tx, p.ID, p.Ingredients); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit perfume: %w", err)
	}

	return s.GetByID(ctx, p.ID)
}

func (s *PerfumeStore) GetByID(ctx context.Context, id string) (*domain.Perfume, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+perfumeColumns+` FROM perfumes p WHERE p.id = ?`, id)
	perfume, err := scanPerfume(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get perfume: %w", err)
	}

	ingredients, err := s.ingredients(ctx, id)
	if err != nil {
		return nil, err
	}
	perfume.Ingredients = ingredients[id]

	return perfume, nil
}

// List returns every perfume in insertion order.
func (s *PerfumeStore) List(ctx context.Context) ([]*domain.Perfume, error) {
	return s.query(ctx, `SELECT `+perfumeColumns+` FROM perfumes p ORDER BY p.created_at ASC, p.rowid ASC`)
}

// Search matches query case-insensitively against the perfume name, its URI
// slug, and the brand name. Wildcard characters in query match literally.
func (s *PerfumeStore) Search(ctx context.Context, query string) ([]*domain.Perfume, error) {
	pattern := containsPattern(query)
	return s.query(ctx, `
		SELECT `+perfumeColumns+` FROM perfumes p
		LEFT JOIN brands b ON b.id = p.brand_id
		WHERE LOWER(p.name) LIKE ? ESCAPE '\'
			OR LOWER(p.uri) LIKE ? ESCAPE '\'
			OR LOWER(COALESCE(b.name, '')) LIKE ? ESCAPE '\'
		ORDER BY p.name ASC
	`, pattern, pattern, pattern)
}

// Update overwrites every mutable field and replaces the ingredient list.
func (s *PerfumeStore) Update(ctx context.Context, p *domain.Perfume) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	result, err := tx.ExecContext(ctx, `
		UPDATE perfumes SET name = ?, uri = ?, price = ?, concentration = ?, description = ?,
			volume = ?, target_audience = ?, brand_id = ?, image_url = ?, image_key = ?,
			category = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.URI, p.Price, p.Concentration, p.Description, p.Volume, p.TargetAudience,
		nullString(p.BrandID), p.ImageURL, p.ImageKey, p.Category, p.UpdatedAt.UTC(), p.ID)
	if err != nil {
		return fmt.Errorf("failed to update perfume: %w", err)
	}
	if err := expectOneRow(result, "perfume"); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM perfume_ingredients WHERE perfume_id = ?`, p.ID); err != nil {
		return fmt.Errorf("failed to clear ingredients: %w", err)
	}
	if err := insertIngredients(ctx, tx, p.ID, p.Ingredients); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit perfume: %w", err)
	}
	return nil
}

func (s *PerfumeStore) Delete(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM perfumes WHERE id = ?
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete perfume: %w", err)
	}

	return expectOneRow(result, "perfume")
}

func (s *PerfumeStore) query(ctx context.Context, q string, args ...any) ([]*domain.Perfume, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list perfumes: %w", err)
	}

	var perfumes []*domain.Perfume
	for rows.Next() {
		perfume, err := scanPerfume(rows)
		if err != nil {
			closeRows(rows)
			return nil, fmt.Errorf("failed to scan perfume: %w", err)
		}
		perfumes = append(perfumes, perfume)
	}
	if err := rows.Err(); err != nil {
		closeRows(rows)
		return nil, fmt.Errorf("error iterating perfumes: %w", err)
	}
	// Rows must be released before the ingredient query; in-memory databases
	// run on a single connection.
	closeRows(rows)

	if len(perfumes) == 0 {
		return perfumes, nil
	}

	ingredients, err := s.ingredients(ctx, "")
	if err != nil {
		return nil, err
	}
	for _, p := range perfumes {
		p.Ingredients = ingredients[p.ID]
	}

	return perfumes, nil
}

// ingredients loads ingredient lists keyed by perfume id. An empty id loads
// every perfume's ingredients.
func (s *PerfumeStore) ingredients(ctx context.Context, id string) (map[string][]string, error) {
	q := `SELECT perfume_id, name FROM perfume_ingredients ORDER BY perfume_id, position`
	var args []any
	if id != "" {
		q = `SELECT perfume_id, name FROM perfume_ingredients WHERE perfume_id = ? ORDER BY position`
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}
	defer closeRows(rows)

	out := make(map[string][]string)
	for rows.Next() {
		var perfumeID, name string
		if err := rows.Scan(&perfumeID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan ingredient: %w", err)
		}
		out[perfumeID] = append(out[perfumeID], name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ingredients: %w", err)
	}

	return out, nil
}

func insertIngredients(ctx context.Context, tx *sql.Tx, perfumeID string, ingredients []string) error {
	for i, name := range ingredients {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO perfume_ingredients (perfume_id, position, name) VALUES (?, ?, ?)
		`, perfumeID, i, name); err != nil {
			return fmt.Errorf("failed to insert ingredient %q: %w", name, err)
		}
	}
	return nil
}

func scanPerfume(row rowScanner) (*domain.Perfume, error) {
	p := &domain.Perfume{}
	var brandID sql.NullString
	err := row.Scan(&p.ID, &p.Name, &p.URI, &p.Price, &p.Concentration, &p.Description, &p.Volume,
		&p.TargetAudience, &brandID, &p.ImageURL, &p.ImageKey, &p.Category, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.BrandID = brandID.String
	return p, nil
}

func rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
		slog.Error("failed to roll back transaction", "error", err)
	}
}
