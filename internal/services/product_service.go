package services

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"storefront/internal/apperr"
	"storefront/internal/models"
	"storefront/internal/payload"
	"storefront/internal/repositories"
)

// MsgNotFound is the client-facing message for an id that does not resolve.
const MsgNotFound = "Not found"

// ProductOptions tune ProductService.
type ProductOptions struct {
	DefaultLimit int
	MaxLimit     int
	Clock        models.Clock
}

// ProductPage is one page of the product listing.
type ProductPage struct {
	Items      []models.Product `json:"items"`
	NextCursor *string          `json:"nextCursor"`
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo repositories.ProductRepository
	opts ProductOptions
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, opts ProductOptions) *ProductService {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &ProductService{
		repo: repo,
		opts: opts,
	}
}

// ListProducts returns one page of products ordered by id. rawLimit comes straight from the
// query string; anything non-numeric falls back to the default.
func (s *ProductService) ListProducts(ctx context.Context, rawLimit, cursor string) (*ProductPage, error) {
	limit := ClampLimit(rawLimit, s.opts.DefaultLimit, s.opts.MaxLimit)
	products, err := s.repo.List(ctx, limit, cursor)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	page := &ProductPage{Items: products}
	if len(products) > 0 {
		last := products[len(products)-1].ID
		page.NextCursor = &last
	}
	return page, nil
}

// GetProduct retrieves a single product by its ID.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return product, nil
}

// CreateProduct stores a new product. createdAt and updatedAt are stamped with the same instant.
func (s *ProductService) CreateProduct(ctx context.Context, product *models.Product) error {
	now := s.now()
	product.CreatedAt = now
	product.UpdatedAt = now
	product.SoldOut = false
	if err := s.repo.Create(ctx, product); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// UpdateProduct merges a partial update into a stored product. A supplied image list replaces
// the stored one; uploaded images are appended after whichever list results.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, patch *payload.ProductPatch) (*models.Product, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}

	fields := make(map[string]any, len(patch.Fields)+2)
	for k, v := range patch.Fields {
		fields[k] = v
	}
	if patch.ReplaceImages || len(patch.Uploaded) > 0 {
		images := existing.Images
		if patch.ReplaceImages {
			images = patch.Images
		}
		fields["images"] = append(append([]string{}, images...), patch.Uploaded...)
	}
	fields["updatedAt"] = s.now()

	if err := s.repo.Update(ctx, id, fields); err != nil {
		return nil, storeError(err)
	}
	return s.GetProduct(ctx, id)
}

// ReplaceImages sets the product's images to exactly images and writes the whole document back.
// A missing product is left missing.
func (s *ProductService) ReplaceImages(ctx context.Context, id string, images []string) (*models.Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []string{}
	}
	product.Images = images
	product.UpdatedAt = s.now()
	if err := s.repo.Replace(ctx, product); err != nil {
		return nil, storeError(err)
	}
	return product, nil
}

// SetSoldOut changes only soldOut and updatedAt. A missing product is left missing.
func (s *ProductService) SetSoldOut(ctx context.Context, id string, soldOut bool) error {
	if err := s.repo.Update(ctx, id, map[string]any{"soldOut": soldOut, "updatedAt": s.now()}); err != nil {
		return storeError(err)
	}
	return nil
}

// DeleteProduct deletes a product by its ID. Deleting a missing product succeeds.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

func (s *ProductService) now() string {
	return models.FormatTime(s.opts.Clock())
}

// ClampLimit parses a limit query value into [1, max]. Non-numeric input yields def.
func ClampLimit(raw string, def, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		n = def
	}
	if n < 1 {
		n = 1
	}
	if n > max {
		n = max
	}
	return n
}

// storeError maps repository errors onto the HTTP taxonomy.
func storeError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperr.NotFound(MsgNotFound, err)
	}
	return apperr.Internal(err)
}
