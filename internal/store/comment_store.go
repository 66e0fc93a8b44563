package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vbonduro/perfumery/internal/domain"
)

type CommentStore struct {
	db *sql.DB
}

func NewCommentStore(db *sql.DB) *CommentStore {
	return &CommentStore{db: db}
}

func (s *CommentStore) Create(ctx context.Context, c *domain.Comment) (*domain.Comment, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, perfume_id, user_id, content, rating, created_at) VALUES (?, ?, ?, ?, ?, ?)
	`, c.ID, c.PerfumeID, c.UserID, c.Content, c.Rating, c.CreatedAt.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	return s.GetByID(ctx, c.ID)
}

func (s *CommentStore) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	c := &domain.Comment{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, perfume_id, user_id, content, rating, created_at FROM comments WHERE id = ?
	`, id).Scan(&c.ID, &c.PerfumeID, &c.UserID, &c.Content, &c.Rating, &c.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return c, nil
}

// ListByPerfumeID returns the perfume's comments oldest first.
func (s *CommentStore) ListByPerfumeID(ctx context.Context, perfumeID string) ([]*domain.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, perfume_id, user_id, content, rating, created_at FROM comments
		WHERE perfume_id = ? ORDER BY created_at ASC, rowid ASC
	`, perfumeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer closeRows(rows)

	var comments []*domain.Comment
	for rows.Next() {
		c := &domain.Comment{}
		if err := rows.Scan(&c.ID, &c.PerfumeID, &c.UserID, &c.Content, &c.Rating, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return comments, nil
}

// CountByPerfume returns the number of comments per perfume id. Perfumes
// without comments are absent from the map.
func (s *CommentStore) CountByPerfume(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT perfume_id, COUNT(*) FROM comments GROUP BY perfume_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count comments: %w", err)
	}
	defer closeRows(rows)

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan comment count: %w", err)
		}
		counts[id] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comment counts: %w", err)
	}

	return counts, nil
}
