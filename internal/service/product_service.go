package service

import (
	"context"
	"errors"
	"strings"

	"debandi-store/internal/domain"
	"debandi-store/internal/repository"
)

// DefaultPageSize is the catalog page length.
const DefaultPageSize = 12

var (
	ErrInvalidPrice       = errors.New("original price must be greater than or equal to price")
	ErrInvalidSearchQuery = errors.New("search query must be at least 2 characters")
)

// CreateProductInput carries the fields an administrator supplies when
// creating a product. Slug, thumbnail, rating and specs are derived.
type CreateProductInput struct {
	Name          string
	Description   string
	Price         float64
	OriginalPrice *float64
	Category      string
	Brand         string
	Image         string
	Stock         int
}

// UpdateProductInput carries a partial update; nil fields keep the stored
// value.
type UpdateProductInput struct {
	Name          *string
	Description   *string
	Price         *float64
	OriginalPrice *float64
	Category      *string
	Brand         *string
	Image         *string
	Stock         *int
}

// ListQuery filters the public catalog listing.
type ListQuery struct {
	Category string
	Search   string
	Page     int
}

// ProductService applies catalog business rules on top of the repository.
// Authorization is enforced upstream; the service performs none.
type ProductService interface {
	Create(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	Update(ctx context.Context, id int64, input UpdateProductInput) (*domain.Product, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Product, error)
	List(ctx context.Context, query ListQuery) ([]*domain.Product, int, error)
	All(ctx context.Context) ([]*domain.Product, error)
	Search(ctx context.Context, query string) ([]*domain.Product, error)
}

type productService struct {
	productRepo repository.ProductRepository
}

// NewProductService creates a new instance of ProductService.
func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productService{productRepo: productRepo}
}

// Create validates the price invariant, derives the slug and persists a new
// product with zero rating.
func (s *productService) Create(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	if input.OriginalPrice != nil && *input.OriginalPrice < input.Price {
		return nil, ErrInvalidPrice
	}

	name := strings.TrimSpace(input.Name)
	product := &domain.Product{
		Name:          name,
		Slug:          domain.Slugify(name),
		Description:   strings.TrimSpace(input.Description),
		Price:         input.Price,
		OriginalPrice: input.OriginalPrice,
		Category:      strings.TrimSpace(input.Category),
		Brand:         strings.TrimSpace(input.Brand),
		Image:         input.Image,
		Thumbnail:     input.Image,
		Rating:        0,
		Stock:         input.Stock,
		Specs:         map[string]string{},
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// Update merges the partial input into the stored product, re-derives the
// slug on rename and re-checks the price invariant on the merged record.
// Invariant violations are rejected before anything is written.
func (s *productService) Update(ctx context.Context, id int64, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		product.Name = strings.TrimSpace(*input.Name)
		product.Slug = domain.Slugify(product.Name)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.OriginalPrice != nil {
		product.OriginalPrice = input.OriginalPrice
	}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
	}
	if input.Brand != nil {
		product.Brand = strings.TrimSpace(*input.Brand)
	}
	if input.Image != nil {
		product.Image = *input.Image
		product.Thumbnail = *input.Image
	}
	if input.Stock != nil {
		product.Stock = *input.Stock
	}

	if product.OriginalPrice != nil && *product.OriginalPrice < product.Price {
		return nil, ErrInvalidPrice
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}

	return product, nil
}

// Delete removes a product.
func (s *productService) Delete(ctx context.Context, id int64) error {
	return s.productRepo.Delete(ctx, id)
}

// GetByID retrieves a product by ID.
func (s *productService) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// GetBySlug retrieves a product by its URL slug.
func (s *productService) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return s.productRepo.FindBySlug(ctx, slug)
}

// List returns a catalog page with optional category and search filtering.
// A non-empty search term shorter than 2 characters is rejected.
func (s *productService) List(ctx context.Context, query ListQuery) ([]*domain.Product, int, error) {
	search := strings.TrimSpace(query.Search)
	if search != "" && len(search) < 2 {
		return nil, 0, ErrInvalidSearchQuery
	}

	page := query.Page
	if page < 1 {
		page = 1
	}

	category := query.Category
	if category == "all" {
		category = ""
	}

	return s.productRepo.List(ctx, repository.ListOptions{
		Category: category,
		Search:   search,
		Page:     page,
		PageSize: DefaultPageSize,
	})
}

// All returns the complete catalog without pagination, for the admin panel.
func (s *productService) All(ctx context.Context) ([]*domain.Product, error) {
	products, _, err := s.productRepo.List(ctx, repository.ListOptions{})
	return products, err
}

// Search returns case-insensitive substring matches across name,
// description and brand.
func (s *productService) Search(ctx context.Context, query string) ([]*domain.Product, error) {
	trimmed := strings.TrimSpace(query)
	if len(trimmed) < 2 {
		return nil, ErrInvalidSearchQuery
	}

	products, _, err := s.productRepo.List(ctx, repository.ListOptions{Search: trimmed})
	return products, err
}
