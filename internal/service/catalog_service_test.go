package service

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/perfumery/internal/domain"
)

func TestListPerfumesJoinsBrandAndReviewCount(t *testing.T) {
	env := newTestEnv(t, nil)

	cards, err := env.catalog.ListPerfumes(context.Background())
	require.NoError(t, err)
	require.Len(t, cards, 2)

	byName := map[string]*PerfumeCard{}
	for _, c := range cards {
		byName[c.Name] = c
	}
	assert.Equal(t, "Dior", byName["Sauvage"].BrandName)
	assert.Equal(t, 1, byName["Sauvage"].ReviewCount)
	assert.Equal(t, 0, byName["J'adore"].ReviewCount)
}

func TestSearchPerfumes(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	cards, err := env.catalog.SearchPerfumes(ctx, "jad")
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "perfume2", cards[0].ID)

	cards, err = env.catalog.SearchPerfumes(ctx, "dior")
	require.NoError(t, err)
	assert.Len(t, cards, 2)
}

func TestGetPerfumeDetail(t *testing.T) {
	env := newTestEnv(t, nil)

	detail, err := env.catalog.GetPerfume(context.Background(), "perfume1")
	require.NoError(t, err)
	assert.Equal(t, "Sauvage", detail.Name)
	assert.Equal(t, "Dior", detail.BrandName)
	require.Len(t, detail.Comments, 1)
	assert.Equal(t, "Member One", detail.Comments[0].AuthorName)
	assert.Equal(t, "5.0", detail.RatingLabel())
}

func TestGetPerfumeWithoutComments(t *testing.T) {
	env := newTestEnv(t, nil)

	detail, err := env.catalog.GetPerfume(context.Background(), "perfume2")
	require.NoError(t, err)
	assert.Empty(t, detail.Comments)
	assert.Equal(t, "0.0", detail.RatingLabel())
}

func TestRatingLabelRoundsHalfUp(t *testing.T) {
	tests := []struct {
		ratings []int
		want    string
	}{
		{nil, "0.0"},
		{[]int{5}, "5.0"},
		{[]int{5, 2}, "3.5"},
		{[]int{5, 5, 4, 3}, "4.3"},
		{[]int{5, 4, 2, 2}, "3.3"},
		{[]int{5, 4, 4}, "4.3"},
		{[]int{1, 1, 2}, "1.3"},
	}
	for _, tt := range tests {
		var comments []*domain.Comment
		for _, r := range tt.ratings {
			comments = append(comments, &domain.Comment{Rating: r})
		}
		detail := &PerfumeDetail{AverageRating: AverageRating(comments)}
		assert.Equal(t, tt.want, detail.RatingLabel(), "ratings %v", tt.ratings)
	}
}

func TestGetPerfumeNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.catalog.GetPerfume(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddComment(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	admin := env.user(t, "user1")

	view, err := env.catalog.AddComment(ctx, admin, "perfume1", CommentInput{Content: "  Smoky  ", Rating: 2})
	require.NoError(t, err)
	assert.Equal(t, "Smoky", view.Content)
	assert.Equal(t, "Admin User", view.AuthorName)

	detail, err := env.catalog.GetPerfume(ctx, "perfume1")
	require.NoError(t, err)
	require.Len(t, detail.Comments, 2)
	assert.Equal(t, "3.5", detail.RatingLabel())
}

func TestAddCommentRejections(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	admin := env.user(t, "user1")

	_, err := env.catalog.AddComment(ctx, nil, "perfume1", CommentInput{Content: "hi", Rating: 5})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.catalog.AddComment(ctx, env.user(t, "user2"), "perfume1", CommentInput{Content: "hi", Rating: 5})
	assert.ErrorIs(t, err, ErrBlocked)

	_, err = env.catalog.AddComment(ctx, admin, "perfume1", CommentInput{Content: "   ", Rating: 5})
	assert.Equal(t, "Review cannot be empty", validationMessage(t, err))

	_, err = env.catalog.AddComment(ctx, admin, "perfume1", CommentInput{Content: "hi", Rating: 6})
	assert.Equal(t, "Rating must be between 1 and 5", validationMessage(t, err))

	_, err = env.catalog.AddComment(ctx, admin, "missing", CommentInput{Content: "hi", Rating: 5})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBrandLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	brand, err := env.catalog.CreateBrand(ctx, BrandInput{Name: " Guerlain "})
	require.NoError(t, err)
	assert.Equal(t, "Guerlain", brand.Name)
	assert.Contains(t, brand.ID, "brand_")

	updated, err := env.catalog.UpdateBrand(ctx, brand.ID, BrandInput{Name: "Maison Guerlain"})
	require.NoError(t, err)
	assert.Equal(t, "Maison Guerlain", updated.Name)

	require.NoError(t, env.catalog.DeleteBrand(ctx, brand.ID))
	_, err = env.catalog.GetBrand(ctx, brand.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, env.catalog.DeleteBrand(ctx, brand.ID), ErrNotFound)
}

func TestCreateBrandRequiresName(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.catalog.CreateBrand(context.Background(), BrandInput{Name: "  "})
	assert.Equal(t, "Name is required", validationMessage(t, err))
}

func TestDeleteBrandLeavesPerfumesUnknown(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	require.NoError(t, env.catalog.DeleteBrand(ctx, "brand1"))

	detail, err := env.catalog.GetPerfume(ctx, "perfume1")
	require.NoError(t, err)
	assert.Empty(t, detail.BrandID)
	assert.Equal(t, UnknownBrand, detail.BrandName)
}

func TestCreatePerfume(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	perfume, err := env.catalog.CreatePerfume(ctx, PerfumeInput{
		Name:        "Bleu de Chanel",
		BrandID:     "brand2",
		Price:       135,
		Ingredients: ParseIngredients("Citrus, Incense, ,Ginger"),
		Volume:      100,
	})
	require.NoError(t, err)
	assert.Contains(t, perfume.ID, "perfume_")
	assert.Equal(t, "bleu-de-chanel", perfume.URI)
	assert.Equal(t, []string{"Citrus", "Incense", "Ginger"}, perfume.Ingredients)

	cards, err := env.catalog.ListPerfumes(ctx)
	require.NoError(t, err)
	assert.Len(t, cards, 3)
}

func TestCreatePerfumeValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		in   PerfumeInput
		want string
	}{
		{"missing name", PerfumeInput{BrandID: "brand1"}, "Name is required"},
		{"negative price", PerfumeInput{Name: "X", Price: -1}, "Price cannot be negative"},
		{"bad image url", PerfumeInput{Name: "X", ImageURL: "not a url"}, "Image URL must be a valid URL"},
		{"unknown brand", PerfumeInput{Name: "X", BrandID: "brand9"}, "Unknown brand"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.catalog.CreatePerfume(ctx, tt.in)
			assert.Equal(t, tt.want, validationMessage(t, err))
		})
	}
}

func TestUpdatePerfumeKeepsIdentity(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	perfume, err := env.catalog.UpdatePerfume(ctx, "perfume1", PerfumeInput{
		Name:        "Sauvage Elixir",
		BrandID:     "brand1",
		Price:       160,
		Ingredients: []string{"Cinnamon"},
	})
	require.NoError(t, err)
	assert.Equal(t, "perfume1", perfume.ID)
	assert.Equal(t, "sauvage", perfume.URI)
	assert.Equal(t, "Sauvage Elixir", perfume.Name)
	assert.Equal(t, []string{"Cinnamon"}, perfume.Ingredients)
	assert.True(t, perfume.UpdatedAt.Equal(fixedNow))

	_, err = env.catalog.UpdatePerfume(ctx, "missing", PerfumeInput{Name: "X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPerfumeImageLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	_, _, err := env.catalog.PerfumeImage(ctx, "perfume1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.catalog.SetPerfumeImage(ctx, "perfume1", []byte("first"), "image/png")
	require.NoError(t, err)
	perfume, err := env.catalog.SetPerfumeImage(ctx, "perfume1", []byte("second"), "image/jpeg")
	require.NoError(t, err)
	assert.NotEmpty(t, perfume.ImageKey)
	assert.Equal(t, 1, env.images.Len(), "replaced image is deleted")

	r, mimeType, err := env.catalog.PerfumeImage(ctx, "perfume1")
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, r.Close())
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
	assert.Equal(t, "image/jpeg", mimeType)

	require.NoError(t, env.catalog.DeletePerfume(ctx, "perfume1"))
	assert.Zero(t, env.images.Len())
	_, err = env.catalog.GetPerfume(ctx, "perfume1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetPerfumeImageNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	_, err := env.catalog.SetPerfumeImage(context.Background(), "missing", []byte("x"), "image/png")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, env.images.Len())
}

func TestDescribePerfume(t *testing.T) {
	writer := &stubWriter{text: "A bright citrus opening."}
	env := newTestEnv(t, writer)
	assert.True(t, env.catalog.CanDescribe())

	desc, err := env.catalog.DescribePerfume(context.Background(), PerfumeInput{
		Name: "Aventus", BrandID: "brand4", Ingredients: []string{"Pineapple"},
	})
	require.NoError(t, err)
	assert.Equal(t, "A bright citrus opening.", desc)
	assert.Equal(t, "Creed", writer.brief.Brand)
	assert.Equal(t, []string{"Pineapple"}, writer.brief.Ingredients)
}

func TestDescribePerfumeErrors(t *testing.T) {
	ctx := context.Background()

	disabled := newTestEnv(t, nil)
	assert.False(t, disabled.catalog.CanDescribe())
	_, err := disabled.catalog.DescribePerfume(ctx, PerfumeInput{Name: "X"})
	assert.ErrorIs(t, err, ErrCopywriterDisabled)

	failing := newTestEnv(t, &stubWriter{err: errors.New("boom")})
	_, err = failing.catalog.DescribePerfume(ctx, PerfumeInput{Name: "X"})
	assert.ErrorContains(t, err, "boom")

	_, err = failing.catalog.DescribePerfume(ctx, PerfumeInput{})
	assert.Equal(t, "Name is required", validationMessage(t, err))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "jadore", Slugify("J'adore"))
	assert.Equal(t, "no-5", Slugify("No. 5"))
	assert.Equal(t, "tom-ford-oud-wood", Slugify("  Tom Ford -- Oud Wood! "))
	assert.Equal(t, "eclat-darpege", Slugify("Éclat d'Arpège"))
	assert.Equal(t, "hermes-terre", Slugify("Hermès Terre"))
	assert.Equal(t, "chloe-nomade", Slugify("Chloé Nomade"))
}
