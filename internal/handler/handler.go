package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/piyush31508/Flavor-Express/internal/notify"
	"github.com/piyush31508/Flavor-Express/internal/storefront"
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ImageBaseURL is prepended to relative image paths in product responses.
	// Absolute URLs are returned unchanged.
	ImageBaseURL string
}

// Handler serves the storefront JSON API.
type Handler struct {
	sf           *storefront.Storefront
	feed         *notify.Feed
	security     *SecurityHandler
	imageBaseURL string
}

// NewHandler constructs a Handler. security may be nil to leave the API open.
func NewHandler(
	cfg HandlerConfig,
	sf *storefront.Storefront,
	feed *notify.Feed,
	security *SecurityHandler,
) *Handler {
	return &Handler{
		sf:           sf,
		feed:         feed,
		security:     security,
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
	}
}

// Routes returns the API router, meant to be mounted under /api.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	if h.security != nil {
		r.Use(h.security.Middleware)
	}

	r.Route("/catalog", func(r chi.Router) {
		r.Get("/", h.GetCatalog)
		r.Post("/page", h.ChangePage)
		r.Post("/search", h.Search)
		r.Delete("/search", h.ClearSearch)
		r.Post("/products", h.CreateProduct)
		r.Put("/products/{id}", h.UpdateProduct)
		r.Delete("/products/{id}", h.DeleteProduct)
	})

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{id}", h.UpdateItem)
		r.Delete("/items/{id}", h.RemoveItem)
		r.Post("/checkout", h.Checkout)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/verify", h.Verify)
		r.Get("/me", h.Me)
		r.Post("/logout", h.Logout)
	})

	r.Get("/notifications", h.Notifications)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// imageURL resolves a stored image path against the configured base URL.
func (h *Handler) imageURL(path string) string {
	if h.imageBaseURL == "" || path == "" ||
		strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return h.imageBaseURL + "/" + strings.TrimLeft(path, "/")
}
