package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"debandi-store/internal/domain"
	"debandi-store/internal/middleware"
	"debandi-store/internal/repository"
	"debandi-store/internal/service"
	"debandi-store/internal/token"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type productTestServer struct {
	router   *chi.Mux
	products service.ProductService
	tokens   *token.Manager
}

func newProductTestServer(t *testing.T) *productTestServer {
	t.Helper()

	tokens := token.NewManager(testSecret, "debandi-store", time.Hour)
	products := service.NewProductService(repository.NewMemoryProductRepository())
	handler := NewProductHandler(products, zap.NewNop())

	router := chi.NewRouter()
	handler.RegisterRoutes(router, middleware.Auth(tokens, zap.NewNop()), middleware.RequireAdmin(zap.NewNop()))

	return &productTestServer{router: router, products: products, tokens: tokens}
}

func (s *productTestServer) tokenFor(t *testing.T, isAdmin bool) string {
	t.Helper()

	user := &domain.User{ID: 1, Email: "cliente@debandi.com"}
	if isAdmin {
		user = &domain.User{ID: 2, Email: "admin@debandi.com", IsAdmin: true}
	}

	tokenString, err := s.tokens.Issue(user)
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	return tokenString
}

func (s *productTestServer) do(method, path, tokenString string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if tokenString != "" {
		req.Header.Set("Authorization", "Bearer "+tokenString)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *productTestServer) seedProduct(t *testing.T, name string, price float64) *domain.Product {
	t.Helper()

	product, err := s.products.Create(context.Background(), service.CreateProductInput{
		Name:        name,
		Description: "descripcion de " + name,
		Price:       price,
		Category:    "varios",
	})
	if err != nil {
		t.Fatalf("Failed to seed product %q: %v", name, err)
	}
	return product
}

func TestPublicListPagination(t *testing.T) {
	srv := newProductTestServer(t)

	for i := 0; i < 15; i++ {
		srv.seedProduct(t, "Producto "+string(rune('A'+i)), float64(i+1))
	}

	w := srv.do("GET", "/api/products", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("List got %d", w.Code)
	}

	var resp ListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Total != 15 || resp.Pages != 2 || resp.CurrentPage != 1 {
		t.Errorf("Page metadata: total=%d pages=%d current=%d", resp.Total, resp.Pages, resp.CurrentPage)
	}
	if len(resp.Products) != service.DefaultPageSize {
		t.Errorf("Page 1 length = %d, want %d", len(resp.Products), service.DefaultPageSize)
	}

	w = srv.do("GET", "/api/products?page=2", "", nil)
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode page 2: %v", err)
	}
	if len(resp.Products) != 3 || resp.CurrentPage != 2 {
		t.Errorf("Page 2: len=%d current=%d", len(resp.Products), resp.CurrentPage)
	}
}

func TestPublicListSearchAndCategory(t *testing.T) {
	srv := newProductTestServer(t)
	srv.seedProduct(t, "Taladro Percutor", 100)
	srv.seedProduct(t, "Sierra Circular", 80)

	w := srv.do("GET", "/api/products?search=taladro", "", nil)
	var resp ListResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Total != 1 || resp.Products[0].Name != "Taladro Percutor" {
		t.Errorf("Search results: %+v", resp)
	}

	// A 1-character search is rejected.
	w = srv.do("GET", "/api/products?search=t", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Short search got %d, want 400", w.Code)
	}

	// category=all lists everything.
	w = srv.do("GET", "/api/products?category=all", "", nil)
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("category=all total = %d, want 2", resp.Total)
	}
}

func TestGetBySlug(t *testing.T) {
	srv := newProductTestServer(t)
	created := srv.seedProduct(t, "Casco de Seguridad", 12.99)

	w := srv.do("GET", "/api/products/"+created.Slug, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GetBySlug got %d", w.Code)
	}

	var resp struct {
		Product domain.Product `json:"product"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Product.ID != created.ID {
		t.Errorf("GetBySlug returned product %d, want %d", resp.Product.ID, created.ID)
	}

	w = srv.do("GET", "/api/products/no-existe", "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Missing slug got %d, want 404", w.Code)
	}
}

func TestAdminRoutesRequireAdminSession(t *testing.T) {
	srv := newProductTestServer(t)

	// No token at all.
	w := srv.do("GET", "/api/admin/products", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("No token got %d, want 401", w.Code)
	}

	// Valid session without the admin claim.
	w = srv.do("GET", "/api/admin/products", srv.tokenFor(t, false), nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("Non-admin got %d, want 403", w.Code)
	}

	// Admin session passes.
	w = srv.do("GET", "/api/admin/products", srv.tokenFor(t, true), nil)
	if w.Code != http.StatusOK {
		t.Errorf("Admin got %d, want 200", w.Code)
	}
}

func TestAdminCreateProduct(t *testing.T) {
	srv := newProductTestServer(t)
	admin := srv.tokenFor(t, true)

	w := srv.do("POST", "/api/admin/products", admin, map[string]interface{}{
		"name":          "Taladro Nuevo DeWalt",
		"description":   "Taladro de estreno",
		"price":         99.99,
		"originalPrice": 149.99,
		"category":      "taladros",
		"brand":         "DeWalt",
		"image":         "/nuevo.jpg",
		"stock":         10,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("Create got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Product domain.Product `json:"product"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Product.Slug != "taladro-nuevo-dewalt" {
		t.Errorf("Slug = %q", resp.Product.Slug)
	}
	if resp.Product.Thumbnail != "/nuevo.jpg" {
		t.Errorf("Thumbnail = %q, want the image path", resp.Product.Thumbnail)
	}

	// The new product is immediately visible on the public catalog.
	public := srv.do("GET", "/api/products/taladro-nuevo-dewalt", "", nil)
	if public.Code != http.StatusOK {
		t.Errorf("Public fetch of created product got %d", public.Code)
	}
}

func TestAdminCreateProductRejectsBadPrices(t *testing.T) {
	srv := newProductTestServer(t)
	admin := srv.tokenFor(t, true)

	// Discounted original price below the sale price violates the invariant.
	w := srv.do("POST", "/api/admin/products", admin, map[string]interface{}{
		"name":          "Oferta Imposible",
		"description":   "descuento invertido",
		"price":         100,
		"originalPrice": 50,
		"category":      "ofertas",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Inverted discount got %d, want 400", w.Code)
	}

	// Zero price fails validation before reaching the service.
	w = srv.do("POST", "/api/admin/products", admin, map[string]interface{}{
		"name":        "Gratis",
		"description": "sin precio",
		"price":       0,
		"category":    "ofertas",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Zero price got %d, want 400", w.Code)
	}
}

func TestAdminCreateDuplicateSlug(t *testing.T) {
	srv := newProductTestServer(t)
	admin := srv.tokenFor(t, true)
	srv.seedProduct(t, "Martillo Unico", 10)

	w := srv.do("POST", "/api/admin/products", admin, map[string]interface{}{
		"name":        "Martillo Unico",
		"description": "otro martillo con el mismo nombre",
		"price":       12,
		"category":    "martillos",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Duplicate slug got %d, want 400", w.Code)
	}
}

func TestAdminUpdateProduct(t *testing.T) {
	srv := newProductTestServer(t)
	admin := srv.tokenFor(t, true)
	created := srv.seedProduct(t, "Lijadora Basica", 50)

	w := srv.do("PUT", "/api/admin/products/"+itoa(created.ID), admin, map[string]interface{}{
		"name":  "Lijadora Mejorada",
		"price": 60,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Update got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Product domain.Product `json:"product"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Product.Name != "Lijadora Mejorada" || resp.Product.Slug != "lijadora-mejorada" {
		t.Errorf("Update result: %+v", resp.Product)
	}
	if resp.Product.Price != 60 {
		t.Errorf("Price = %v, want 60", resp.Product.Price)
	}

	// Unknown id and malformed id.
	w = srv.do("PUT", "/api/admin/products/99999", admin, map[string]interface{}{"price": 10})
	if w.Code != http.StatusNotFound {
		t.Errorf("Unknown id got %d, want 404", w.Code)
	}
	w = srv.do("PUT", "/api/admin/products/abc", admin, map[string]interface{}{"price": 10})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Malformed id got %d, want 400", w.Code)
	}
}

func TestAdminDeleteProduct(t *testing.T) {
	srv := newProductTestServer(t)
	admin := srv.tokenFor(t, true)
	created := srv.seedProduct(t, "Efimero", 5)

	w := srv.do("DELETE", "/api/admin/products/"+itoa(created.ID), admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Delete got %d", w.Code)
	}

	w = srv.do("GET", "/api/products/"+created.Slug, "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Deleted product still public: %d", w.Code)
	}

	w = srv.do("DELETE", "/api/admin/products/"+itoa(created.ID), admin, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("Second delete got %d, want 404", w.Code)
	}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
