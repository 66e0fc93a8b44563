package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vbonduro/perfumery/internal/db"
	"github.com/vbonduro/perfumery/internal/domain"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func createBrand(t *testing.T, d *sql.DB, id, name string) *domain.Brand {
	t.Helper()
	b, err := NewBrandStore(d).Create(context.Background(), &domain.Brand{ID: id, Name: name, CreatedAt: t0, UpdatedAt: t0})
	require.NoError(t, err)
	return b
}

func createUser(t *testing.T, d *sql.DB, id, email string) *domain.User {
	t.Helper()
	u, err := NewUserStore(d).Create(context.Background(), createUserFixture(id, email))
	require.NoError(t, err)
	return u
}

func createUserFixture(id, email string) *domain.User {
	return &domain.User{
		ID: id, Email: email, PasswordHash: "hash", Name: "User " + id,
		YOB: 1990, Gender: "Other", CreatedAt: t0, UpdatedAt: t0,
	}
}

func createPerfume(t *testing.T, d *sql.DB, id, name, brandID string, ingredients ...string) *domain.Perfume {
	t.Helper()
	p, err := NewPerfumeStore(d).Create(context.Background(), &domain.Perfume{
		ID: id, Name: name, URI: id, Price: 120, Concentration: "Eau de Toilette",
		Volume: 100, TargetAudience: "Men", BrandID: brandID, Category: "Woody",
		Ingredients: ingredients, CreatedAt: t0, UpdatedAt: t0,
	})
	require.NoError(t, err)
	return p
}

func createPerfumeFixture(id, brandID string) *domain.Perfume {
	return &domain.Perfume{ID: id, Name: "Fixture", BrandID: brandID, CreatedAt: t0, UpdatedAt: t0}
}

func commentFixture(id, perfumeID, userID string, rating int) *domain.Comment {
	return &domain.Comment{
		ID: id, PerfumeID: perfumeID, UserID: userID,
		Content: "Great scent, lasts all day!", Rating: rating, CreatedAt: t0,
	}
}
