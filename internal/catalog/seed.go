// Package catalog holds the fixed catalog every fresh database starts from:
// the demo accounts, the brands, and the perfumes with their reviews.
package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vbonduro/perfumery/internal/auth"
	"github.com/vbonduro/perfumery/internal/domain"
)

//go:embed seed.yaml
var seedYAML []byte

type Seed struct {
	Users    []SeedUser    `yaml:"users"`
	Brands   []SeedBrand   `yaml:"brands"`
	Perfumes []SeedPerfume `yaml:"perfumes"`
}

// SeedUser carries a plaintext password; it is hashed on insert.
type SeedUser struct {
	ID          string     `yaml:"id"`
	Email       string     `yaml:"email"`
	Password    string     `yaml:"password"`
	Name        string     `yaml:"name"`
	YOB         int        `yaml:"yob"`
	Gender      string     `yaml:"gender"`
	IsAdmin     bool       `yaml:"isAdmin"`
	IsBlocked   bool       `yaml:"isBlocked"`
	BlockReason string     `yaml:"blockReason"`
	BlockedAt   *time.Time `yaml:"blockedAt"`
	BlockedBy   string     `yaml:"blockedBy"`
	CreatedAt   time.Time  `yaml:"createdAt"`
	UpdatedAt   time.Time  `yaml:"updatedAt"`
}

type SeedBrand struct {
	ID        string    `yaml:"id"`
	Name      string    `yaml:"name"`
	CreatedAt time.Time `yaml:"createdAt"`
	UpdatedAt time.Time `yaml:"updatedAt"`
}

type SeedPerfume struct {
	ID             string        `yaml:"id"`
	Name           string        `yaml:"name"`
	URI            string        `yaml:"uri"`
	Price          float64       `yaml:"price"`
	Concentration  string        `yaml:"concentration"`
	Description    string        `yaml:"description"`
	Ingredients    []string      `yaml:"ingredients"`
	Volume         int           `yaml:"volume"`
	TargetAudience string        `yaml:"targetAudience"`
	Brand          string        `yaml:"brand"`
	ImageURL       string        `yaml:"imageUrl"`
	Category       string        `yaml:"category"`
	CreatedAt      time.Time     `yaml:"createdAt"`
	UpdatedAt      time.Time     `yaml:"updatedAt"`
	Comments       []SeedComment `yaml:"comments"`
}

type SeedComment struct {
	ID        string    `yaml:"id"`
	User      string    `yaml:"user"`
	Content   string    `yaml:"content"`
	Rating    int       `yaml:"rating"`
	CreatedAt time.Time `yaml:"createdAt"`
}

// Load parses the embedded seed.
func Load() (*Seed, error) {
	return Parse(bytes.NewReader(seedYAML))
}

// Parse decodes a seed document and checks its references.
func Parse(r io.Reader) (*Seed, error) {
	var s Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode seed: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Seed) validate() error {
	users := make(map[string]bool, len(s.Users))
	for _, u := range s.Users {
		if u.ID == "" || u.Email == "" {
			return fmt.Errorf("seed user %q: id and email are required", u.ID)
		}
		users[u.ID] = true
	}
	brands := make(map[string]bool, len(s.Brands))
	for _, b := range s.Brands {
		if b.ID == "" || b.Name == "" {
			return fmt.Errorf("seed brand %q: id and name are required", b.ID)
		}
		brands[b.ID] = true
	}
	for _, p := range s.Perfumes {
		if p.Brand != "" && !brands[p.Brand] {
			return fmt.Errorf("seed perfume %q: unknown brand %q", p.ID, p.Brand)
		}
		for _, c := range p.Comments {
			if !users[c.User] {
				return fmt.Errorf("seed comment %q: unknown user %q", c.ID, c.User)
			}
			if c.Rating < 1 || c.Rating > 5 {
				return fmt.Errorf("seed comment %q: rating %d out of range", c.ID, c.Rating)
			}
		}
	}
	return nil
}

type userRepository interface {
	Count(ctx context.Context) (int, error)
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
}

type brandRepository interface {
	Create(ctx context.Context, b *domain.Brand) (*domain.Brand, error)
}

type perfumeRepository interface {
	Create(ctx context.Context, p *domain.Perfume) (*domain.Perfume, error)
}

type commentRepository interface {
	Create(ctx context.Context, c *domain.Comment) (*domain.Comment, error)
}

// Repositories groups the stores Apply writes to.
type Repositories struct {
	Users    userRepository
	Brands   brandRepository
	Perfumes perfumeRepository
	Comments commentRepository
}

// Apply inserts the seed unless the database already has users. It reports
// whether anything was inserted.
func (s *Seed) Apply(ctx context.Context, repos Repositories, logger *slog.Logger) (bool, error) {
	n, err := repos.Users.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		logger.Debug("catalog already seeded", "users", n)
		return false, nil
	}

	for _, u := range s.Users {
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return false, fmt.Errorf("seed user %s: %w", u.ID, err)
		}
		if _, err := repos.Users.Create(ctx, &domain.User{
			ID:           u.ID,
			Email:        u.Email,
			PasswordHash: hash,
			Name:         u.Name,
			YOB:          u.YOB,
			Gender:       u.Gender,
			IsAdmin:      u.IsAdmin,
			IsBlocked:    u.IsBlocked,
			BlockReason:  u.BlockReason,
			BlockedAt:    u.BlockedAt,
			BlockedBy:    u.BlockedBy,
			CreatedAt:    u.CreatedAt,
			UpdatedAt:    u.UpdatedAt,
		}); err != nil {
			return false, fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}

	for _, b := range s.Brands {
		if _, err := repos.Brands.Create(ctx, &domain.Brand{
			ID: b.ID, Name: b.Name, CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt,
		}); err != nil {
			return false, fmt.Errorf("seed brand %s: %w", b.ID, err)
		}
	}

	comments := 0
	for _, p := range s.Perfumes {
		if _, err := repos.Perfumes.Create(ctx, &domain.Perfume{
			ID:             p.ID,
			Name:           p.Name,
			URI:            p.URI,
			Price:          p.Price,
			Concentration:  p.Concentration,
			Description:    p.Description,
			Ingredients:    p.Ingredients,
			Volume:         p.Volume,
			TargetAudience: p.TargetAudience,
			BrandID:        p.Brand,
			ImageURL:       p.ImageURL,
			Category:       p.Category,
			CreatedAt:      p.CreatedAt,
			UpdatedAt:      p.UpdatedAt,
		}); err != nil {
			return false, fmt.Errorf("seed perfume %s: %w", p.ID, err)
		}
		for _, c := range p.Comments {
			if _, err := repos.Comments.Create(ctx, &domain.Comment{
				ID:        c.ID,
				PerfumeID: p.ID,
				UserID:    c.User,
				Content:   c.Content,
				Rating:    c.Rating,
				CreatedAt: c.CreatedAt,
			}); err != nil {
				return false, fmt.Errorf("seed comment %s: %w", c.ID, err)
			}
			comments++
		}
	}

	logger.Info("catalog seeded",
		"users", len(s.Users),
		"brands", len(s.Brands),
		"perfumes", len(s.Perfumes),
		"comments", comments,
	)
	return true, nil
}
