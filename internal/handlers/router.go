package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Lixing-Zhang/storefront-api/internal/metrics"
	"github.com/Lixing-Zhang/storefront-api/internal/middleware"
	"github.com/Lixing-Zhang/storefront-api/internal/models"
)

// RouterConfig carries everything NewRouter mounts. Nil limiters and an
// empty upload directory disable the matching feature.
type RouterConfig struct {
	Health     *HealthHandler
	Products   *ProductHandler
	Forms      *ProductFormHandler
	Uploads    *UploadHandler
	Categories *CategoryHandler
	Brands     *BrandHandler
	Auth       *AuthHandler
	Cart       *CartHandler
	Checkout   *CheckoutHandler

	Authenticator *middleware.Authenticator
	Metrics       *metrics.Metrics
	APILimiter    *middleware.RateLimiter
	LoginLimiter  *middleware.RateLimiter

	AllowedOrigins []string
	RequestTimeout time.Duration
	UploadDir      string
	UploadPath     string

	Logger *zap.Logger
}

// NewRouter builds the HTTP API.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(chimiddleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}
	r.Use(cfg.Metrics.Instrument)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", middleware.SessionHeader},
		ExposedHeaders:   []string{"Link", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", cfg.Health.ServeHTTP)
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())

	if cfg.UploadDir != "" {
		prefix := "/" + strings.Trim(cfg.UploadPath, "/") + "/"
		if prefix == "//" {
			prefix = "/uploads/"
		}
		r.Handle(prefix+"*", http.StripPrefix(prefix, http.FileServer(http.Dir(cfg.UploadDir))))
	}

	auth := cfg.Authenticator
	admin := func(r chi.Router) {
		r.Use(auth.Required)
		r.Use(middleware.RequireRole(models.RoleAdmin))
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.APILimiter != nil {
			r.Use(cfg.APILimiter.Handler)
		}

		// Accounts
		r.Post("/users", cfg.Auth.Register)
		r.Group(func(r chi.Router) {
			if cfg.LoginLimiter != nil {
				r.Use(cfg.LoginLimiter.Handler)
			}
			r.Post("/auth/login", cfg.Auth.Login)
		})
		r.With(auth.Required).Get("/auth/profile", cfg.Auth.Profile)

		// Storefront catalog
		r.Route("/products", func(r chi.Router) {
			r.Get("/", cfg.Products.ListProducts)
			r.Get("/search", cfg.Products.ListProducts)
			r.Get("/by-category/{slug}", cfg.Products.ListByCategory)
			r.Get("/slug/{slug}", cfg.Products.GetProductBySlug)
			r.Get("/{id}", cfg.Products.GetProduct)
			r.Get("/{id}/related", cfg.Products.RelatedProducts)
			r.Get("/{id}/variants", cfg.Products.VariantView)
			r.Post("/{id}/variants/select", cfg.Products.SelectVariant)

			r.Group(func(r chi.Router) {
				admin(r)
				r.Post("/", cfg.Products.CreateProduct)
				r.Post("/upload-images", cfg.Uploads.UploadImages)
				r.Patch("/{id}", cfg.Products.UpdateProduct)
				r.Delete("/{id}", cfg.Products.DeleteProduct)
			})
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", cfg.Categories.List)
			r.Get("/tree", cfg.Categories.Tree)
			r.Get("/slug/{slug}", cfg.Categories.GetBySlug)
			r.Get("/slug/{slug}/descendants", cfg.Categories.Descendants)
			r.Get("/{id}", cfg.Categories.Get)

			r.Group(func(r chi.Router) {
				admin(r)
				r.Post("/", cfg.Categories.Create)
				r.Put("/{id}", cfg.Categories.Update)
				r.Delete("/{id}", cfg.Categories.Delete)
			})
		})

		r.Route("/brands", func(r chi.Router) {
			r.Get("/", cfg.Brands.List)
			r.Get("/{id}", cfg.Brands.Get)

			r.Group(func(r chi.Router) {
				admin(r)
				r.Post("/", cfg.Brands.Create)
				r.Put("/{id}", cfg.Brands.Update)
				r.Delete("/{id}", cfg.Brands.Delete)
			})
		})

		// Admin console
		r.Route("/admin", func(r chi.Router) {
			admin(r)
			r.Get("/products", cfg.Products.AdminListProducts)
			r.Post("/product-form", cfg.Forms.Open)
			r.Post("/product-form/category", cfg.Forms.ChangeCategory)
			r.Post("/product-form/submit", cfg.Forms.Submit)
		})

		// Session cart and checkout
		r.Group(func(r chi.Router) {
			r.Use(middleware.Session)
			r.Use(auth.Optional)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cfg.Cart.Get)
				r.Post("/add", cfg.Cart.Add)
				r.Delete("/clear", cfg.Cart.Clear)
				r.Patch("/{productId}/{sku}", cfg.Cart.Update)
				r.Delete("/{productId}/{sku}", cfg.Cart.Remove)
			})
			r.Post("/checkout", cfg.Checkout.Checkout)
			r.Get("/orders/{id}", cfg.Checkout.GetOrder)
		})
	})

	return r
}
