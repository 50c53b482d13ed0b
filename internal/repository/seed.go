package repository

import (
	"context"
	"fmt"
	"time"

	"debandi-store/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Password hashes are computed at startup so no hash constant ever lands in
// a migration file.
const seedBcryptCost = 12

type seedUser struct {
	email     string
	password  string
	firstName string
	lastName  string
	isAdmin   bool
}

var defaultUsers = []seedUser{
	{"admin@debandi.com", "admin123", "Admin", "Debandi", true},
	{"cliente@debandi.com", "cliente123", "Cliente", "Debandi", false},
}

func price(v float64) *float64 { return &v }

var defaultProducts = []domain.Product{
	{
		Name:          "Taladro Profesional DeWalt 20V",
		Slug:          "taladro-profesional-dewalt-20v",
		Description:   "Taladro inalámbrico profesional de alto rendimiento",
		Price:         149.99,
		OriginalPrice: price(199.99),
		Category:      "taladros",
		Brand:         "DeWalt",
		Image:         "/professional-drill.jpg",
		Thumbnail:     "/professional-drill.jpg",
		Rating:        4.8,
		Stock:         50,
		Specs: map[string]string{
			"voltaje":   "20V",
			"velocidad": "0-500 RPM",
			"capacidad": "13mm",
			"peso":      "1.5kg",
		},
	},
	{
		Name:          `Sierra Circular Makita 7 1/4"`,
		Slug:          "sierra-circular-makita-7-14",
		Description:   "Sierra circular de 7 1/4 pulgadas con potencia máxima",
		Price:         89.99,
		OriginalPrice: price(129.99),
		Category:      "sierras",
		Brand:         "Makita",
		Image:         "/circular-saw-makita.jpg",
		Thumbnail:     "/circular-saw.png",
		Rating:        4.6,
		Stock:         35,
		Specs: map[string]string{
			"potencia":    "5800W",
			"velocidad":   "5800 RPM",
			"profundidad": "57mm",
			"peso":        "2.3kg",
		},
	},
	{
		Name:          `Lijadora Orbital Bosch 5"`,
		Slug:          "lijadora-orbital-bosch-5",
		Description:   "Lijadora orbital profesional de precisión",
		Price:         79.99,
		OriginalPrice: price(119.99),
		Category:      "lijadoras",
		Brand:         "Bosch",
		Image:         "/orbital-sander-bosch.jpg",
		Thumbnail:     "/orbital-sander.png",
		Rating:        4.7,
		Stock:         42,
		Specs: map[string]string{
			"potencia":  "350W",
			"velocidad": "12000 opm",
			"tamaño":    "5 pulgadas",
			"peso":      "1.1kg",
		},
	},
	{
		Name:          "Juego 40 Destornilladores",
		Slug:          "juego-40-destornilladores",
		Description:   "Set completo de 40 destornilladores profesionales",
		Price:         34.99,
		OriginalPrice: price(49.99),
		Category:      "destornilladores",
		Brand:         "Stanley",
		Image:         "/screwdriver-set-professional.jpg",
		Thumbnail:     "/screwdriver-set.jpg",
		Rating:        4.9,
		Stock:         100,
		Specs: map[string]string{
			"cantidad": "40 piezas",
			"tipos":    "Phillips, Slotted, Square",
			"estuche":  "Incluido",
		},
	},
	{
		Name:          "Mazo de Goma 32oz",
		Slug:          "mazo-de-goma-32oz",
		Description:   "Mazo profesional de goma de alta calidad",
		Price:         15.99,
		OriginalPrice: price(24.99),
		Category:      "herramientas-manuales",
		Brand:         "Estwing",
		Image:         "/rubber-mallet-hammer.jpg",
		Thumbnail:     "/rubber-mallet.jpg",
		Rating:        4.8,
		Stock:         80,
		Specs: map[string]string{
			"peso":     "32oz (907g)",
			"material": "Goma de nylon",
			"mango":    "Acero templado",
		},
	},
	{
		Name:          "Casco de Seguridad Amarillo",
		Slug:          "casco-de-seguridad-amarillo",
		Description:   "Casco profesional ANSI certificado",
		Price:         12.99,
		OriginalPrice: price(19.99),
		Category:      "seguridad",
		Brand:         "3M",
		Image:         "/yellow-safety-helmet.jpg",
		Thumbnail:     "/yellow-safety-helmet.png",
		Rating:        4.7,
		Stock:         200,
		Specs: map[string]string{
			"certificacion": "ANSI Z89.1",
			"material":      "ABS",
			"peso":          "400g",
		},
	},
}

// SeedDefaults creates the default accounts and catalog when they are
// missing. It is idempotent: existing rows are left untouched.
func SeedDefaults(ctx context.Context, users UserRepository, products ProductRepository, logger *zap.Logger) error {
	for _, su := range defaultUsers {
		if _, err := users.FindByEmail(ctx, su.email); err == nil {
			continue
		} else if err != ErrUserNotFound {
			return fmt.Errorf("failed to check seed user: %w", err)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(su.password), seedBcryptCost)
		if err != nil {
			return fmt.Errorf("failed to hash seed password: %w", err)
		}

		user := &domain.User{
			Email:        su.email,
			PasswordHash: string(hash),
			FirstName:    su.firstName,
			LastName:     su.lastName,
			IsAdmin:      su.isAdmin,
			CreatedAt:    time.Now(),
		}
		if err := users.Create(ctx, user); err != nil {
			return fmt.Errorf("failed to create seed user: %w", err)
		}
		logger.Info("Seeded default user", zap.String("email", su.email), zap.Bool("is_admin", su.isAdmin))
	}

	_, total, err := products.List(ctx, ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to check product catalog: %w", err)
	}
	if total > 0 {
		return nil
	}

	for i := range defaultProducts {
		product := defaultProducts[i]
		if err := products.Create(ctx, &product); err != nil {
			return fmt.Errorf("failed to create seed product %q: %w", product.Slug, err)
		}
	}
	logger.Info("Seeded default catalog", zap.Int("products", len(defaultProducts)))

	return nil
}
