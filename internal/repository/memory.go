package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"debandi-store/internal/domain"
)

// The in-memory repositories back the "memory" store driver and double as
// test fixtures. They guard their maps with a mutex and allocate ids from a
// monotonic counter, so concurrent requests cannot race on id assignment.

type memoryUserRepository struct {
	mu     sync.RWMutex
	users  map[int64]*domain.User
	nextID int64
}

// NewMemoryUserRepository creates an empty in-memory UserRepository.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[int64]*domain.User)}
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == user.Email {
			return ErrEmailAlreadyExists
		}
	}

	r.nextID++
	user.ID = r.nextID

	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *memoryUserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			found := *u
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r *memoryUserRepository) FindByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	found := *u
	return &found, nil
}

type memoryProductRepository struct {
	mu       sync.RWMutex
	products map[int64]*domain.Product
	nextID   int64
}

// NewMemoryProductRepository creates an empty in-memory ProductRepository.
func NewMemoryProductRepository() ProductRepository {
	return &memoryProductRepository{products: make(map[int64]*domain.Product)}
}

func (r *memoryProductRepository) Create(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.products {
		if p.Slug == product.Slug {
			return ErrSlugAlreadyExists
		}
	}

	r.nextID++
	product.ID = r.nextID

	stored := cloneProduct(product)
	r.products[product.ID] = stored
	return nil
}

func (r *memoryProductRepository) Update(_ context.Context, product *domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[product.ID]; !ok {
		return ErrProductNotFound
	}
	for _, p := range r.products {
		if p.Slug == product.Slug && p.ID != product.ID {
			return ErrSlugAlreadyExists
		}
	}

	r.products[product.ID] = cloneProduct(product)
	return nil
}

func (r *memoryProductRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return ErrProductNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *memoryProductRepository) FindByID(_ context.Context, id int64) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ErrProductNotFound
	}
	return cloneProduct(p), nil
}

func (r *memoryProductRepository) FindBySlug(_ context.Context, slug string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.Slug == slug {
			return cloneProduct(p), nil
		}
	}
	return nil, ErrProductNotFound
}

func (r *memoryProductRepository) List(_ context.Context, opts ListOptions) ([]*domain.Product, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := []*domain.Product{}
	search := strings.ToLower(opts.Search)

	for _, p := range r.products {
		if opts.Category != "" && !strings.EqualFold(p.Category, opts.Category) {
			continue
		}
		if search != "" && !matchesSearch(p, search) {
			continue
		}
		matched = append(matched, cloneProduct(p))
	}

	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := len(matched)
	if opts.PageSize > 0 {
		page := opts.Page
		if page < 1 {
			page = 1
		}
		start := (page - 1) * opts.PageSize
		if start > total {
			start = total
		}
		end := start + opts.PageSize
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}

	return matched, total, nil
}

func matchesSearch(p *domain.Product, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(p.Name), lowerQuery) ||
		strings.Contains(strings.ToLower(p.Description), lowerQuery) ||
		strings.Contains(strings.ToLower(p.Brand), lowerQuery)
}

func cloneProduct(p *domain.Product) *domain.Product {
	clone := *p
	if p.OriginalPrice != nil {
		price := *p.OriginalPrice
		clone.OriginalPrice = &price
	}
	if p.Specs != nil {
		clone.Specs = make(map[string]string, len(p.Specs))
		for k, v := range p.Specs {
			clone.Specs[k] = v
		}
	}
	return &clone
}
