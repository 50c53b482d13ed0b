package repository

import (
	"context"
	"testing"

	"debandi-store/internal/domain"
)

func productPrice(v float64) *float64 { return &v }

func clearProducts(t *testing.T) {
	t.Helper()
	if _, err := testDB.Exec("DELETE FROM products"); err != nil {
		t.Fatalf("Failed to clear products table: %v", err)
	}
}

func TestProductCreateAndFind(t *testing.T) {
	clearProducts(t)
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	product := &domain.Product{
		Name:          "Taladro Profesional DeWalt 20V",
		Slug:          "taladro-profesional-dewalt-20v",
		Description:   "Taladro inalámbrico profesional",
		Price:         149.99,
		OriginalPrice: productPrice(199.99),
		Category:      "taladros",
		Brand:         "DeWalt",
		Image:         "/professional-drill.jpg",
		Thumbnail:     "/professional-drill.jpg",
		Rating:        4.8,
		Stock:         50,
		Specs:         map[string]string{"voltaje": "20V", "peso": "1.5kg"},
	}

	if err := repo.Create(ctx, product); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if product.ID == 0 {
		t.Fatal("Expected database-assigned ID")
	}

	byID, err := repo.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if byID.Name != product.Name || byID.Slug != product.Slug {
		t.Errorf("FindByID returned %+v", byID)
	}
	if byID.OriginalPrice == nil || *byID.OriginalPrice != 199.99 {
		t.Errorf("Original price round trip failed: %v", byID.OriginalPrice)
	}
	if byID.Specs["voltaje"] != "20V" || byID.Specs["peso"] != "1.5kg" {
		t.Errorf("Specs round trip failed: %v", byID.Specs)
	}

	bySlug, err := repo.FindBySlug(ctx, product.Slug)
	if err != nil {
		t.Fatalf("FindBySlug failed: %v", err)
	}
	if bySlug.ID != product.ID {
		t.Errorf("FindBySlug returned product %d, want %d", bySlug.ID, product.ID)
	}
}

func TestProductSlugConflict(t *testing.T) {
	clearProducts(t)
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	first := &domain.Product{Name: "Martillo", Slug: "martillo", Price: 10, Category: "martillos"}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	dup := &domain.Product{Name: "Martillo Dos", Slug: "martillo", Price: 12, Category: "martillos"}
	if err := repo.Create(ctx, dup); err != ErrSlugAlreadyExists {
		t.Errorf("Expected ErrSlugAlreadyExists, got %v", err)
	}

	// Renaming onto an occupied slug fails the same way.
	second := &domain.Product{Name: "Mazo", Slug: "mazo", Price: 15, Category: "martillos"}
	if err := repo.Create(ctx, second); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	second.Slug = "martillo"
	if err := repo.Update(ctx, second); err != ErrSlugAlreadyExists {
		t.Errorf("Expected ErrSlugAlreadyExists on update, got %v", err)
	}
}

func TestProductUpdateAndDelete(t *testing.T) {
	clearProducts(t)
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	product := &domain.Product{Name: "Lijadora", Slug: "lijadora", Price: 80, Category: "lijadoras", Specs: map[string]string{}}
	if err := repo.Create(ctx, product); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	product.Price = 70
	product.Stock = 5
	product.Specs = map[string]string{"potencia": "350W"}
	if err := repo.Update(ctx, product); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	stored, err := repo.FindByID(ctx, product.ID)
	if err != nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if stored.Price != 70 || stored.Stock != 5 || stored.Specs["potencia"] != "350W" {
		t.Errorf("Update not persisted: %+v", stored)
	}

	if err := repo.Delete(ctx, product.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := repo.FindByID(ctx, product.ID); err != ErrProductNotFound {
		t.Errorf("Expected ErrProductNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, product.ID); err != ErrProductNotFound {
		t.Errorf("Expected ErrProductNotFound on second delete, got %v", err)
	}

	missing := &domain.Product{ID: 999999, Name: "Fantasma", Slug: "fantasma", Price: 1, Category: "varios"}
	if err := repo.Update(ctx, missing); err != ErrProductNotFound {
		t.Errorf("Expected ErrProductNotFound updating missing row, got %v", err)
	}
}

func TestProductListFilters(t *testing.T) {
	clearProducts(t)
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	seed := []*domain.Product{
		{Name: "Taladro Percutor", Slug: "taladro-percutor", Description: "uso rudo", Price: 100, Category: "taladros", Brand: "DeWalt"},
		{Name: "Taladro Compacto", Slug: "taladro-compacto", Description: "ligero", Price: 80, Category: "taladros", Brand: "Makita"},
		{Name: "Sierra de Mesa", Slug: "sierra-de-mesa", Description: "corte taladro auxiliar", Price: 200, Category: "sierras", Brand: "Bosch"},
	}
	for _, p := range seed {
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	products, total, err := repo.List(ctx, ListOptions{Category: "TALADROS"})
	if err != nil {
		t.Fatalf("List by category failed: %v", err)
	}
	if total != 2 || len(products) != 2 {
		t.Errorf("Category filter: total=%d len=%d, want 2", total, len(products))
	}

	products, total, err = repo.List(ctx, ListOptions{Search: "taladro"})
	if err != nil {
		t.Fatalf("List by search failed: %v", err)
	}
	if total != 3 {
		t.Errorf("Search matched %d, want 3 (two names plus one description)", total)
	}

	products, total, err = repo.List(ctx, ListOptions{Category: "taladros", Search: "percutor"})
	if err != nil {
		t.Fatalf("List by both filters failed: %v", err)
	}
	if total != 1 || products[0].Slug != "taladro-percutor" {
		t.Errorf("Combined filter: total=%d products=%+v", total, products)
	}
}

func TestProductListPagination(t *testing.T) {
	clearProducts(t)
	repo := NewProductRepository(testDB)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		p := &domain.Product{
			Name:     "Articulo " + string(rune('a'+i)),
			Slug:     "articulo-" + string(rune('a'+i)),
			Price:    float64(i + 1),
			Category: "varios",
		}
		if err := repo.Create(ctx, p); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	page1, total, err := repo.List(ctx, ListOptions{Page: 1, PageSize: 2})
	if err != nil {
		t.Fatalf("List page 1 failed: %v", err)
	}
	if total != 5 || len(page1) != 2 {
		t.Errorf("Page 1: total=%d len=%d, want 5 and 2", total, len(page1))
	}

	page3, total, err := repo.List(ctx, ListOptions{Page: 3, PageSize: 2})
	if err != nil {
		t.Fatalf("List page 3 failed: %v", err)
	}
	if total != 5 || len(page3) != 1 {
		t.Errorf("Page 3: total=%d len=%d, want 5 and 1", total, len(page3))
	}

	// Ordered by id, so pages never overlap.
	if page1[0].ID >= page3[0].ID {
		t.Errorf("Pages out of order: %d vs %d", page1[0].ID, page3[0].ID)
	}

	all, total, err := repo.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("Unpaginated list failed: %v", err)
	}
	if total != 5 || len(all) != 5 {
		t.Errorf("Unpaginated: total=%d len=%d, want 5", total, len(all))
	}
}
