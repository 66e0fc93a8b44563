package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vbonduro/perfumery/internal/copywriter"
	"github.com/vbonduro/perfumery/internal/domain"
	"github.com/vbonduro/perfumery/internal/imagestore"
	"github.com/vbonduro/perfumery/internal/store"
)

// UnknownBrand is shown for perfumes whose brand no longer exists.
const UnknownBrand = "Unknown"

// DefaultRating is preselected on the review form.
const DefaultRating = 5

// blockedReason is recorded when an admin blocks a user from the dashboard.
const blockedReason = "Administrative action"

// brandRepository is the subset of store.BrandStore that CatalogService requires.
type brandRepository interface {
	Create(ctx context.Context, brand *domain.Brand) (*domain.Brand, error)
	GetByID(ctx context.Context, id string) (*domain.Brand, error)
	List(ctx context.Context) ([]*domain.Brand, error)
	Update(ctx context.Context, id, name string, updatedAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// perfumeRepository is the subset of store.PerfumeStore that CatalogService requires.
type perfumeRepository interface {
	Create(ctx context.Context, p *domain.Perfume) (*domain.Perfume, error)
	GetByID(ctx context.Context, id string) (*domain.Perfume, error)
	List(ctx context.Context) ([]*domain.Perfume, error)
	Search(ctx context.Context, query string) ([]*domain.Perfume, error)
	Update(ctx context.Context, p *domain.Perfume) error
	Delete(ctx context.Context, id string) error
}

// commentRepository is the subset of store.CommentStore that CatalogService requires.
type commentRepository interface {
	Create(ctx context.Context, c *domain.Comment) (*domain.Comment, error)
	ListByPerfumeID(ctx context.Context, perfumeID string) ([]*domain.Comment, error)
	CountByPerfume(ctx context.Context) (map[string]int, error)
}

// userLookup is the subset of store.UserStore needed to name comment authors.
type userLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

type CatalogService struct {
	brandStore   brandRepository
	perfumeStore perfumeRepository
	commentStore commentRepository
	userStore    userLookup
	images       imagestore.ImageStore
	writer       copywriter.Writer
	logger       *slog.Logger
	now          func() time.Time
}

// NewCatalogService wires the catalog. writer may be nil, which disables
// description drafting.
func NewCatalogService(
	brandStore brandRepository,
	perfumeStore perfumeRepository,
	commentStore commentRepository,
	userStore userLookup,
	images imagestore.ImageStore,
	writer copywriter.Writer,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		brandStore:   brandStore,
		perfumeStore: perfumeStore,
		commentStore: commentStore,
		userStore:    userStore,
		images:       images,
		writer:       writer,
		logger:       logger,
		now:          time.Now,
	}
}

// PerfumeCard is a perfume as listed on the home page and admin table.
type PerfumeCard struct {
	*domain.Perfume
	BrandName   string
	ReviewCount int
}

// CommentView is a comment with its author's display name.
type CommentView struct {
	*domain.Comment
	AuthorName string
}

// PerfumeDetail is everything shown on a perfume's page.
type PerfumeDetail struct {
	*domain.Perfume
	BrandName     string
	Comments      []*CommentView
	AverageRating float64
}

// RatingLabel formats the average rating with one decimal place, rounding
// halves up (4.25 is "4.3").
func (d *PerfumeDetail) RatingLabel() string {
	return fmt.Sprintf("%.1f", math.Floor(d.AverageRating*10+0.5)/10)
}

// AverageRating returns the mean rating of comments, or 0 when there are none.
func AverageRating(comments []*domain.Comment) float64 {
	if len(comments) == 0 {
		return 0
	}
	sum := 0
	for _, c := range comments {
		sum += c.Rating
	}
	return float64(sum) / float64(len(comments))
}

func (s *CatalogService) ListPerfumes(ctx context.Context) ([]*PerfumeCard, error) {
	perfumes, err := s.perfumeStore.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.cards(ctx, perfumes)
}

func (s *CatalogService) SearchPerfumes(ctx context.Context, query string) ([]*PerfumeCard, error) {
	perfumes, err := s.perfumeStore.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.cards(ctx, perfumes)
}

func (s *CatalogService) cards(ctx context.Context, perfumes []*domain.Perfume) ([]*PerfumeCard, error) {
	names, err := s.brandNames(ctx)
	if err != nil {
		return nil, err
	}
	counts, err := s.commentStore.CountByPerfume(ctx)
	if err != nil {
		return nil, err
	}

	cards := make([]*PerfumeCard, 0, len(perfumes))
	for _, p := range perfumes {
		cards = append(cards, &PerfumeCard{
			Perfume:     p,
			BrandName:   brandName(names, p.BrandID),
			ReviewCount: counts[p.ID],
		})
	}
	return cards, nil
}

func (s *CatalogService) brandNames(ctx context.Context) (map[string]string, error) {
	brands, err := s.brandStore.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	names := make(map[string]string, len(brands))
	for _, b := range brands {
		names[b.ID] = b.Name
	}
	return names, nil
}

func brandName(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return UnknownBrand
}

// GetPerfume returns the perfume's detail view, or ErrNotFound.
func (s *CatalogService) GetPerfume(ctx context.Context, id string) (*PerfumeDetail, error) {
	perfume, err := s.perfumeStore.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get perfume: %w", err)
	}
	if perfume == nil {
		return nil, ErrNotFound
	}

	detail := &PerfumeDetail{Perfume: perfume, BrandName: UnknownBrand}
	if perfume.BrandID != "" {
		brand, err := s.brandStore.GetByID(ctx, perfume.BrandID)
		if err != nil {
			return nil, fmt.Errorf("failed to get brand: %w", err)
		}
		if brand != nil {
			detail.BrandName = brand.Name
		}
	}

	comments, err := s.commentStore.ListByPerfumeID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	detail.AverageRating = AverageRating(comments)

	authors := make(map[string]string)
	for _, c := range comments {
		name, ok := authors[c.UserID]
		if !ok {
			name = "Former member"
			user, err := s.userStore.GetByID(ctx, c.UserID)
			if err != nil {
				return nil, fmt.Errorf("failed to get comment author: %w", err)
			}
			if user != nil {
				name = user.Name
			}
			authors[c.UserID] = name
		}
		detail.Comments = append(detail.Comments, &CommentView{Comment: c, AuthorName: name})
	}

	return detail, nil
}

// AddComment posts a review as user. Anonymous users get ErrForbidden and
// blocked users ErrBlocked.
func (s *CatalogService) AddComment(ctx context.Context, user *domain.User, perfumeID string, in CommentInput) (*CommentView, error) {
	if user == nil {
		return nil, ErrForbidden
	}
	if user.IsBlocked {
		return nil, ErrBlocked
	}

	in.Content = strings.TrimSpace(in.Content)
	if in.Content == "" {
		return nil, invalid("Review cannot be empty")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	perfume, err := s.perfumeStore.GetByID(ctx, perfumeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get perfume: %w", err)
	}
	if perfume == nil {
		return nil, ErrNotFound
	}

	comment, err := s.commentStore.Create(ctx, &domain.Comment{
		ID:        newID("comment"),
		PerfumeID: perfumeID,
		UserID:    user.ID,
		Content:   in.Content,
		Rating:    in.Rating,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("comment added", "perfume_id", perfumeID, "user_id", user.ID, "rating", in.Rating)
	return &CommentView{Comment: comment, AuthorName: user.Name}, nil
}

func (s *CatalogService) ListBrands(ctx context.Context) ([]*domain.Brand, error) {
	return s.brandStore.List(ctx)
}

// GetBrand returns the brand or ErrNotFound.
func (s *CatalogService) GetBrand(ctx context.Context, id string) (*domain.Brand, error) {
	brand, err := s.brandStore.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if brand == nil {
		return nil, ErrNotFound
	}
	return brand, nil
}

func (s *CatalogService) CreateBrand(ctx context.Context, in BrandInput) (*domain.Brand, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	now := s.now()
	brand, err := s.brandStore.Create(ctx, &domain.Brand{
		ID:        newID("brand"),
		Name:      in.Name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("brand created", "brand_id", brand.ID, "name", brand.Name)
	return brand, nil
}

func (s *CatalogService) UpdateBrand(ctx context.Context, id string, in BrandInput) (*domain.Brand, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	if err := s.brandStore.Update(ctx, id, in.Name, s.now()); err != nil {
		return nil, notFoundOr(err)
	}
	s.logger.Info("brand updated", "brand_id", id)
	return s.brandStore.GetByID(ctx, id)
}

// DeleteBrand removes the brand; its perfumes stay listed under UnknownBrand.
func (s *CatalogService) DeleteBrand(ctx context.Context, id string) error {
	if err := s.brandStore.Delete(ctx, id); err != nil {
		return notFoundOr(err)
	}
	s.logger.Info("brand deleted", "brand_id", id)
	return nil
}

func (s *CatalogService) CreatePerfume(ctx context.Context, in PerfumeInput) (*domain.Perfume, error) {
	if err := s.checkPerfume(ctx, &in); err != nil {
		return nil, err
	}

	now := s.now()
	perfume, err := s.perfumeStore.Create(ctx, &domain.Perfume{
		ID:             newID("perfume"),
		Name:           in.Name,
		URI:            Slugify(in.Name),
		Price:          in.Price,
		Concentration:  in.Concentration,
		Description:    in.Description,
		Ingredients:    in.Ingredients,
		Volume:         in.Volume,
		TargetAudience: in.TargetAudience,
		BrandID:        in.BrandID,
		ImageURL:       in.ImageURL,
		Category:       in.Category,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("perfume created", "perfume_id", perfume.ID, "name", perfume.Name)
	return perfume, nil
}

// UpdatePerfume overwrites the form fields of an existing perfume, keeping
// its id, slug, image, and creation time.
func (s *CatalogService) UpdatePerfume(ctx context.Context, id string, in PerfumeInput) (*domain.Perfume, error) {
	if err := s.checkPerfume(ctx, &in); err != nil {
		return nil, err
	}

	perfume, err := s.perfumeStore.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get perfume: %w", err)
	}
	if perfume == nil {
		return nil, ErrNotFound
	}

	perfume.Name = in.Name
	perfume.Price = in.Price
	perfume.Concentration = in.Concentration
	perfume.Description = in.Description
	perfume.Ingredients = in.Ingredients
	perfume.Volume = in.Volume
	perfume.TargetAudience = in.TargetAudience
	perfume.BrandID = in.BrandID
	perfume.ImageURL = in.ImageURL
	perfume.Category = in.Category
	perfume.UpdatedAt = s.now()
	if perfume.URI == "" {
		perfume.URI = Slugify(in.Name)
	}

	if err := s.perfumeStore.Update(ctx, perfume); err != nil {
		return nil, notFoundOr(err)
	}
	s.logger.Info("perfume updated", "perfume_id", id)
	return s.perfumeStore.GetByID(ctx, id)
}

func (s *CatalogService) checkPerfume(ctx context.Context, in *PerfumeInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	if err := validateStruct(*in); err != nil {
		return err
	}
	if in.BrandID == "" {
		return nil
	}
	brand, err := s.brandStore.GetByID(ctx, in.BrandID)
	if err != nil {
		return fmt.Errorf("failed to get brand: %w", err)
	}
	if brand == nil {
		return invalid("Unknown brand")
	}
	return nil
}

// DeletePerfume removes the perfume, its comments, and its uploaded image.
func (s *CatalogService) DeletePerfume(ctx context.Context, id string) error {
	perfume, err := s.perfumeStore.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get perfume: %w", err)
	}
	if perfume == nil {
		return ErrNotFound
	}

	if err := s.perfumeStore.Delete(ctx, id); err != nil {
		return notFoundOr(err)
	}
	if perfume.ImageKey != "" {
		s.deleteImage(ctx, perfume.ImageKey)
	}
	s.logger.Info("perfume deleted", "perfume_id", id)
	return nil
}

// SetPerfumeImage stores an uploaded image for the perfume, replacing any
// previous upload.
func (s *CatalogService) SetPerfumeImage(ctx context.Context, id string, imageData []byte, mimeType string) (*domain.Perfume, error) {
	perfume, err := s.perfumeStore.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get perfume: %w", err)
	}
	if perfume == nil {
		return nil, ErrNotFound
	}

	key, err := s.images.Save(ctx, "perfume_"+id, mimeType, bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("failed to save image: %w", err)
	}
	s.logger.Debug("image saved", "perfume_id", id, "storage_key", key, "bytes", len(imageData))

	previous := perfume.ImageKey
	perfume.ImageKey = key
	perfume.UpdatedAt = s.now()
	if err := s.perfumeStore.Update(ctx, perfume); err != nil {
		s.deleteImage(ctx, key)
		return nil, fmt.Errorf("failed to record image: %w", err)
	}
	if previous != "" {
		s.deleteImage(ctx, previous)
	}

	return perfume, nil
}

// PerfumeImage opens the perfume's uploaded image. It returns ErrNotFound
// when the perfume has none.
func (s *CatalogService) PerfumeImage(ctx context.Context, id string) (io.ReadCloser, string, error) {
	perfume, err := s.perfumeStore.GetByID(ctx, id)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get perfume: %w", err)
	}
	if perfume == nil || perfume.ImageKey == "" {
		return nil, "", ErrNotFound
	}

	r, mimeType, err := s.images.Get(ctx, perfume.ImageKey)
	if errors.Is(err, imagestore.ErrNotFound) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to open image: %w", err)
	}
	return r, mimeType, nil
}

func (s *CatalogService) deleteImage(ctx context.Context, key string) {
	if err := s.images.Delete(ctx, key); err != nil && !errors.Is(err, imagestore.ErrNotFound) {
		s.logger.Error("failed to delete image", "storage_key", key, "error", err)
	}
}

// CanDescribe reports whether description drafting is configured.
func (s *CatalogService) CanDescribe() bool {
	return s.writer != nil
}

// DescribePerfume drafts a description from the admin form fields.
func (s *CatalogService) DescribePerfume(ctx context.Context, in PerfumeInput) (string, error) {
	if s.writer == nil {
		return "", ErrCopywriterDisabled
	}
	if strings.TrimSpace(in.Name) == "" {
		return "", invalid("Name is required")
	}

	brief := copywriter.Brief{
		Name:           strings.TrimSpace(in.Name),
		Concentration:  in.Concentration,
		TargetAudience: in.TargetAudience,
		Category:       in.Category,
		Ingredients:    in.Ingredients,
	}
	if in.BrandID != "" {
		brand, err := s.brandStore.GetByID(ctx, in.BrandID)
		if err != nil {
			return "", fmt.Errorf("failed to get brand: %w", err)
		}
		if brand != nil {
			brief.Brand = brand.Name
		}
	}

	s.logger.Info("description draft started", "name", brief.Name)
	desc, err := s.writer.Describe(ctx, brief)
	if err != nil {
		return "", fmt.Errorf("failed to draft description: %w", err)
	}
	return desc, nil
}

func newID(kind string) string {
	return kind + "_" + uuid.NewString()
}

// notFoundOr maps store.ErrNotFound to ErrNotFound and passes other errors through.
func notFoundOr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
