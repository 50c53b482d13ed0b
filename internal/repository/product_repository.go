package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"debandi-store/internal/domain"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrSlugAlreadyExists = errors.New("product with this slug already exists")
)

// ListOptions filters and paginates product listings. Category is an exact
// (case-insensitive) match, Search a substring match over name, description
// and brand. A zero PageSize disables pagination.
type ListOptions struct {
	Category string
	Search   string
	Page     int
	PageSize int
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	FindBySlug(ctx context.Context, slug string) (*domain.Product, error)
	List(ctx context.Context, opts ListOptions) ([]*domain.Product, int, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a PostgreSQL-backed ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

const productColumns = "id, name, slug, description, price, original_price, category, brand, image, thumbnail, rating, stock, specs"

// Create inserts a new product; the id comes from the database identity
// column.
func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	specs, err := marshalSpecs(product.Specs)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO products (name, slug, description, price, original_price, category, brand, image, thumbnail, rating, stock, specs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`

	err = r.db.QueryRowContext(
		ctx,
		query,
		product.Name,
		product.Slug,
		product.Description,
		product.Price,
		product.OriginalPrice,
		product.Category,
		product.Brand,
		product.Image,
		product.Thumbnail,
		product.Rating,
		product.Stock,
		specs,
	).Scan(&product.ID)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugAlreadyExists
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

// Update rewrites an existing product row.
func (r *productRepository) Update(ctx context.Context, product *domain.Product) error {
	specs, err := marshalSpecs(product.Specs)
	if err != nil {
		return err
	}

	query := `
		UPDATE products
		SET name = $2, slug = $3, description = $4, price = $5, original_price = $6,
		    category = $7, brand = $8, image = $9, thumbnail = $10, rating = $11,
		    stock = $12, specs = $13
		WHERE id = $1
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		product.ID,
		product.Name,
		product.Slug,
		product.Description,
		product.Price,
		product.OriginalPrice,
		product.Category,
		product.Brand,
		product.Image,
		product.Thumbnail,
		product.Rating,
		product.Stock,
		specs,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrSlugAlreadyExists
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// Delete removes a product.
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}

	return nil
}

// FindByID retrieves a product by ID.
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// FindBySlug retrieves a product by its URL slug.
func (r *productRepository) FindBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE slug = $1`, productColumns)
	return r.scanOne(r.db.QueryRowContext(ctx, query, slug))
}

// List retrieves products with optional category/search filtering and
// pagination, ordered by id.
func (r *productRepository) List(ctx context.Context, opts ListOptions) ([]*domain.Product, int, error) {
	whereClause := ""
	args := []interface{}{}
	argIndex := 1

	if opts.Category != "" {
		whereClause = fmt.Sprintf("WHERE LOWER(category) = LOWER($%d)", argIndex)
		args = append(args, opts.Category)
		argIndex++
	}

	if opts.Search != "" {
		cond := fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d OR brand ILIKE $%d)", argIndex, argIndex, argIndex)
		if whereClause == "" {
			whereClause = "WHERE " + cond
		} else {
			whereClause += " AND " + cond
		}
		args = append(args, "%"+opts.Search+"%")
		argIndex++
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM products %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM products %s ORDER BY id", productColumns, whereClause)
	if opts.PageSize > 0 {
		page := opts.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
		args = append(args, opts.PageSize, (page-1)*opts.PageSize)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []*domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, product)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating products: %w", err)
	}

	return products, total, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *productRepository) scanOne(row *sql.Row) (*domain.Product, error) {
	product, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	product := &domain.Product{}
	var specs []byte

	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.Slug,
		&product.Description,
		&product.Price,
		&product.OriginalPrice,
		&product.Category,
		&product.Brand,
		&product.Image,
		&product.Thumbnail,
		&product.Rating,
		&product.Stock,
		&specs,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}

	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &product.Specs); err != nil {
			return nil, fmt.Errorf("failed to decode product specs: %w", err)
		}
	}

	return product, nil
}

func marshalSpecs(specs map[string]string) ([]byte, error) {
	if specs == nil {
		specs = map[string]string{}
	}
	data, err := json.Marshal(specs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode product specs: %w", err)
	}
	return data, nil
}
