// AngelaMos | 2026
// service.go

package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/storefront/internal/core"
)

const (
	featuredLimit   = 8
	bestSellerLimit = 4
	newestLimit     = 8

	productImagePrefix = "products"
	heroImagePrefix    = "hero"
)

// CategoryInUseError refuses deleting a category that products still use.
type CategoryInUseError struct {
	Count int
}

func (e *CategoryInUseError) Error() string {
	return fmt.Sprintf(
		"Cannot delete category. %d product(s) are currently assigned to it.",
		e.Count,
	)
}

type ReviewLister interface {
	ListForProduct(ctx context.Context, productID string) ([]ProductReview, error)
}

type WishlistReader interface {
	ProductIDs(ctx context.Context, userID string) ([]string, error)
}

type ServiceConfig struct {
	Repo     Repository
	Uploader *Uploader
	Reviews  ReviewLister
	Wishlist WishlistReader
	Logger   *slog.Logger
}

type Service struct {
	repo     Repository
	uploader *Uploader
	reviews  ReviewLister
	wishlist WishlistReader
	logger   *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     cfg.Repo,
		uploader: cfg.Uploader,
		reviews:  cfg.Reviews,
		wishlist: cfg.Wishlist,
		logger:   logger,
	}
}

// Home assembles the storefront landing page. userID may be empty.
func (s *Service) Home(ctx context.Context, userID string) (*HomeFeed, error) {
	feed := &HomeFeed{Wishlisted: []string{}}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		feed.Categories, err = s.repo.ListCategories(gctx)
		return err
	})
	g.Go(func() (err error) {
		feed.Featured, err = s.repo.ListFlagged(gctx, FlagFeatured, featuredLimit)
		return err
	})
	g.Go(func() (err error) {
		feed.BestSellers, err = s.repo.ListFlagged(gctx, FlagBestSeller, bestSellerLimit)
		return err
	})
	g.Go(func() (err error) {
		feed.Newest, err = s.repo.ListFlagged(gctx, FlagNewest, newestLimit)
		return err
	})
	g.Go(func() (err error) {
		feed.HeroSlides, err = s.repo.ListHeroSlides(gctx, true)
		return err
	})
	if userID != "" && s.wishlist != nil {
		g.Go(func() error {
			ids, err := s.wishlist.ProductIDs(gctx, userID)
			if err != nil {
				return err
			}
			feed.Wishlisted = ids
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("home feed: %w", err)
	}
	return feed, nil
}

func (s *Service) Products(
	ctx context.Context,
	f ProductFilter,
) ([]Product, int, error) {
	return s.repo.ListProducts(ctx, f)
}

func (s *Service) ProductDetail(
	ctx context.Context,
	id, userID string,
) (*ProductDetail, error) {
	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &ProductDetail{Product: p, Reviews: []ProductReview{}}

	if s.reviews != nil {
		reviews, err := s.reviews.ListForProduct(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("product reviews: %w", err)
		}
		detail.Reviews = reviews
		detail.ReviewCount = len(reviews)
		detail.AverageRating = averageRating(reviews)
	}

	if userID != "" && s.wishlist != nil {
		ids, err := s.wishlist.ProductIDs(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("wishlist: %w", err)
		}
		for _, wid := range ids {
			if wid == id {
				detail.Wishlisted = true
				break
			}
		}
	}

	return detail, nil
}

func averageRating(reviews []ProductReview) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := decimal.NewFromInt(int64(sum)).
		Div(decimal.NewFromInt(int64(len(reviews)))).
		Round(1)
	f, _ := avg.Float64()
	return f
}

// ProductsByID returns the known products among ids keyed by id.
func (s *Service) ProductsByID(
	ctx context.Context,
	ids []string,
) (map[string]Product, error) {
	products, err := s.repo.GetProducts(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make(map[string]Product, len(products))
	for _, p := range products {
		out[p.ID] = p
	}
	return out, nil
}

// Prices returns the current unit price of each known product among ids.
func (s *Service) Prices(
	ctx context.Context,
	ids []string,
) (map[string]decimal.Decimal, error) {
	products, err := s.ProductsByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	prices := make(map[string]decimal.Decimal, len(products))
	for id, p := range products {
		prices[id] = p.Price
	}
	return prices, nil
}

func (s *Service) Categories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) HeroSlides(ctx context.Context, activeOnly bool) ([]HeroSlide, error) {
	return s.repo.ListHeroSlides(ctx, activeOnly)
}

func (s *Service) CreateCategory(ctx context.Context, req CategoryRequest) (*Category, error) {
	c := &Category{
		ID:         uuid.New().String(),
		Name:       req.Name,
		ImageURL:   req.ImageURL,
		DataAIHint: req.DataAIHint,
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateCategory(
	ctx context.Context,
	id string,
	req CategoryRequest,
) (*Category, error) {
	c := &Category{
		ID:         id,
		Name:       req.Name,
		ImageURL:   req.ImageURL,
		DataAIHint: req.DataAIHint,
	}
	if err := s.repo.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) error {
	count, err := s.repo.CountProductsInCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return &CategoryInUseError{Count: count}
	}

	err = s.repo.DeleteCategory(ctx, id)
	if errors.Is(err, core.ErrConflict) {
		// a product was assigned between the count and the delete
		count, _ = s.repo.CountProductsInCategory(ctx, id)
		return &CategoryInUseError{Count: max(count, 1)}
	}
	return err
}

func (s *Service) CreateProduct(
	ctx context.Context,
	form ProductForm,
	files []*multipart.FileHeader,
) (*Product, error) {
	p, err := productFromForm(uuid.New().String(), form)
	if err != nil {
		return nil, err
	}

	urls, err := s.uploader.UploadAll(ctx, productImagePrefix, files)
	if err != nil {
		return nil, err
	}
	p.ImageURLs = urls

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		s.uploader.DeleteAll(ctx, urls)
		return nil, err
	}
	return p, nil
}

// UpdateProduct rewrites a product. New images, when given, replace the old
// ones and the old objects are removed.
func (s *Service) UpdateProduct(
	ctx context.Context,
	id string,
	form ProductForm,
	files []*multipart.FileHeader,
) (*Product, error) {
	existing, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	p, err := productFromForm(id, form)
	if err != nil {
		return nil, err
	}
	p.ImageURLs = existing.ImageURLs

	var replaced []string
	if hasFiles(files) {
		urls, err := s.uploader.UploadAll(ctx, productImagePrefix, files)
		if err != nil {
			return nil, err
		}
		replaced = existing.ImageURLs
		p.ImageURLs = urls
	}

	if err := s.repo.UpdateProduct(ctx, p); err != nil {
		if replaced != nil {
			s.uploader.DeleteAll(ctx, p.ImageURLs)
		}
		return nil, err
	}

	s.uploader.DeleteAll(ctx, replaced)
	return p, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	p, err := s.repo.DeleteProduct(ctx, id)
	if err != nil {
		return err
	}
	s.uploader.DeleteAll(ctx, p.ImageURLs)
	return nil
}

func (s *Service) CreateHeroSlide(
	ctx context.Context,
	form HeroForm,
	file *multipart.FileHeader,
) (*HeroSlide, error) {
	if file == nil {
		return nil, ErrImageRequired
	}

	urls, err := s.uploader.UploadAll(ctx, heroImagePrefix, []*multipart.FileHeader{file})
	if err != nil {
		return nil, err
	}

	h := heroFromForm(uuid.New().String(), form)
	h.ImageURL = urls[0]

	if err := s.repo.CreateHeroSlide(ctx, h); err != nil {
		s.uploader.DeleteAll(ctx, urls)
		return nil, err
	}
	return h, nil
}

func (s *Service) UpdateHeroSlide(
	ctx context.Context,
	id string,
	form HeroForm,
	file *multipart.FileHeader,
) (*HeroSlide, error) {
	existing, err := s.repo.GetHeroSlide(ctx, id)
	if err != nil {
		return nil, err
	}

	h := heroFromForm(id, form)
	h.ImageURL = existing.ImageURL

	var replaced []string
	if file != nil && file.Size > 0 {
		urls, err := s.uploader.UploadAll(ctx, heroImagePrefix, []*multipart.FileHeader{file})
		if err != nil {
			return nil, err
		}
		replaced = []string{existing.ImageURL}
		h.ImageURL = urls[0]
	}

	if err := s.repo.UpdateHeroSlide(ctx, h); err != nil {
		if replaced != nil {
			s.uploader.DeleteAll(ctx, []string{h.ImageURL})
		}
		return nil, err
	}

	s.uploader.DeleteAll(ctx, replaced)
	return h, nil
}

func (s *Service) DeleteHeroSlide(ctx context.Context, id string) error {
	h, err := s.repo.DeleteHeroSlide(ctx, id)
	if err != nil {
		return err
	}
	s.uploader.DeleteAll(ctx, []string{h.ImageURL})
	return nil
}

func (s *Service) CountProducts(ctx context.Context) (int, error) {
	return s.repo.CountProducts(ctx)
}

func productFromForm(id string, form ProductForm) (*Product, error) {
	price, err := decimal.NewFromString(form.Price)
	if err != nil || price.IsNegative() {
		return nil, core.ValidationError(map[string]string{
			"price": "must be a positive number",
		})
	}

	categoryID := form.CategoryID
	return &Product{
		ID:              id,
		Name:            form.Name,
		Description:     form.Description,
		LongDescription: form.LongDescription,
		Price:           price.Round(2),
		CategoryID:      &categoryID,
		DataAIHint:      form.DataAIHint,
		IsFeatured:      form.IsFeatured,
		IsBestSeller:    form.IsBestSeller,
	}, nil
}

func heroFromForm(id string, form HeroForm) *HeroSlide {
	h := &HeroSlide{
		ID:       id,
		Title:    form.Title,
		Link:     form.Link,
		IsActive: form.IsActive,
	}
	if form.Subtitle != "" {
		h.Subtitle = &form.Subtitle
	}
	if form.ImageAIHint != "" {
		h.ImageAIHint = &form.ImageAIHint
	}
	return h
}

func hasFiles(files []*multipart.FileHeader) bool {
	for _, f := range files {
		if f.Size > 0 {
			return true
		}
	}
	return false
}
