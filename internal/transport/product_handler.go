package transport

import (
	"net/http"
	"strconv"

	"debandi-store/internal/domain"
	"debandi-store/internal/middleware"
	"debandi-store/internal/repository"
	"debandi-store/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CreateProductRequest represents the admin product creation payload
type CreateProductRequest struct {
	Name          string   `json:"name" validate:"required"`
	Description   string   `json:"description" validate:"required"`
	Price         float64  `json:"price" validate:"required,gt=0"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Category      string   `json:"category" validate:"required"`
	Brand         string   `json:"brand"`
	Image         string   `json:"image"`
	Stock         int      `json:"stock" validate:"gte=0"`
}

// UpdateProductRequest represents a partial product update; omitted fields
// keep their stored values.
type UpdateProductRequest struct {
	Name          *string  `json:"name,omitempty"`
	Description   *string  `json:"description,omitempty"`
	Price         *float64 `json:"price,omitempty" validate:"omitempty,gt=0"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Category      *string  `json:"category,omitempty"`
	Brand         *string  `json:"brand,omitempty"`
	Image         *string  `json:"image,omitempty"`
	Stock         *int     `json:"stock,omitempty" validate:"omitempty,gte=0"`
}

// ListResponse is the paginated catalog listing payload.
type ListResponse struct {
	Products    []*domain.Product `json:"products"`
	Total       int               `json:"total"`
	Pages       int               `json:"pages"`
	CurrentPage int               `json:"currentPage"`
}

// ProductHandler handles catalog and admin product HTTP requests.
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{productService: productService, logger: logger}
}

// RegisterRoutes registers the public catalog routes and the admin CRUD
// routes. Admin routes require a valid session with the administrator
// claim; the middlewares are injected by the server.
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{slug}", h.GetBySlug)
	})

	r.Route("/api/admin/products", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(adminMiddleware)
		r.Get("/", h.AdminList)
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List returns a catalog page filtered by the category/search/page query
// parameters.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	query := service.ListQuery{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
	}
	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		query.Page = page
	}

	products, total, err := h.productService.List(r.Context(), query)
	if err != nil {
		if err == service.ErrInvalidSearchQuery {
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	page := query.Page
	if page < 1 {
		page = 1
	}

	middleware.RespondWithJSON(w, http.StatusOK, ListResponse{
		Products:    products,
		Total:       total,
		Pages:       (total + service.DefaultPageSize - 1) / service.DefaultPageSize,
		CurrentPage: page,
	})
}

// GetBySlug returns a single product by its URL slug.
func (h *ProductHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	product, err := h.productService.GetBySlug(r.Context(), slug)
	if err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to get product", zap.Error(err), zap.String("slug", slug))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"product": product})
}

// AdminList returns the complete catalog without pagination.
func (h *ProductHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	products, err := h.productService.All(r.Context())
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

// Create handles admin product creation.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productService.Create(r.Context(), service.CreateProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Category:      req.Category,
		Brand:         req.Brand,
		Image:         req.Image,
		Stock:         req.Stock,
	})
	if err != nil {
		switch err {
		case service.ErrInvalidPrice:
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		case repository.ErrSlugAlreadyExists:
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to create product", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		}
		return
	}

	h.logger.Info("Product created", zap.Int64("product_id", product.ID), zap.String("slug", product.Slug))
	middleware.RespondWithJSON(w, http.StatusCreated, map[string]interface{}{"product": product})
}

// Update handles admin partial product updates.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req UpdateProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.productService.Update(r.Context(), id, service.UpdateProductInput{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		Category:      req.Category,
		Brand:         req.Brand,
		Image:         req.Image,
		Stock:         req.Stock,
	})
	if err != nil {
		switch err {
		case repository.ErrProductNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case service.ErrInvalidPrice:
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		case repository.ErrSlugAlreadyExists:
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Failed to update product", zap.Error(err), zap.Int64("product_id", id))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"product": product})
}

// Delete handles admin product deletion.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.productService.Delete(r.Context(), id); err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to delete product", zap.Error(err), zap.Int64("product_id", id))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

func (h *ProductHandler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return 0, false
	}
	return id, true
}
