package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vbonduro/perfumery/internal/catalog"
	"github.com/vbonduro/perfumery/internal/copywriter"
	"github.com/vbonduro/perfumery/internal/db"
	"github.com/vbonduro/perfumery/internal/domain"
	"github.com/vbonduro/perfumery/internal/imagestore/memory"
	"github.com/vbonduro/perfumery/internal/store"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// stubWriter is a minimal copywriter.Writer for tests.
type stubWriter struct {
	brief copywriter.Brief
	text  string
	err   error
}

func (w *stubWriter) Describe(_ context.Context, b copywriter.Brief) (string, error) {
	w.brief = b
	return w.text, w.err
}

type testEnv struct {
	catalog  *CatalogService
	accounts *AccountService
	images   *memory.MemoryImageStore
	users    *store.UserStore
}

// newTestEnv opens a fresh database with the demo catalog applied.
func newTestEnv(t *testing.T, writer copywriter.Writer) *testEnv {
	t.Helper()
	d, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	users := store.NewUserStore(d)
	brands := store.NewBrandStore(d)
	perfumes := store.NewPerfumeStore(d)
	comments := store.NewCommentStore(d)

	seed, err := catalog.Load()
	require.NoError(t, err)
	_, err = seed.Apply(context.Background(), catalog.Repositories{
		Users: users, Brands: brands, Perfumes: perfumes, Comments: comments,
	}, slog.Default())
	require.NoError(t, err)

	images := memory.NewMemoryImageStore()
	cs := NewCatalogService(brands, perfumes, comments, users, images, writer, slog.Default())
	cs.now = func() time.Time { return fixedNow }
	as := NewAccountService(users, slog.Default())
	as.now = func() time.Time { return fixedNow }

	return &testEnv{catalog: cs, accounts: as, images: images, users: users}
}

func (e *testEnv) user(t *testing.T, id string) *domain.User {
	t.Helper()
	u, err := e.users.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, u)
	return u
}

func validationMessage(t *testing.T, err error) string {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
	return verr.Message
}
