// Package server provides a public API for embedding the RCM geometry
// and calibration service in another application.
package server

import (
	"fmt"
	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/rkm/rcm-geocal/internal/api"
	"github.com/rkm/rcm-geocal/internal/config"
	"github.com/rkm/rcm-geocal/internal/product"
)

// Options configures the embedded service.
type Options struct {
	// BaseURL is the public-facing URL for self-referential links (required).
	// Example: "https://api.example.com/rcm" or "http://localhost:8080"
	BaseURL string

	// ProductsDir is scanned at startup; each subdirectory holding a
	// product.xml is loaded as one product. Ignored when Registry is set.
	ProductsDir string

	// Registry supplies pre-loaded products, bypassing ProductsDir.
	Registry *product.Registry

	// Title is the catalog title.
	// Default: "RCM Geometry and Calibration API"
	Title string

	// Description is the catalog description.
	Description string

	// License is the catalog license identifier.
	// Default: "proprietary"
	License string

	// Logger is the slog logger to use.
	// Default: slog.Default()
	Logger *slog.Logger
}

// Server is an RCM geometry and calibration server that can be embedded
// in another application.
type Server struct {
	router   chi.Router
	registry *product.Registry
}

// New creates a new server with the given options.
func New(opts Options) (*Server, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if opts.Title == "" {
		opts.Title = "RCM Geometry and Calibration API"
	}
	if opts.Description == "" {
		opts.Description = "Geometry and radiometric calibration queries for RCM SAR products"
	}
	if opts.License == "" {
		opts.License = "proprietary"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	registry := opts.Registry
	if registry == nil {
		if opts.ProductsDir == "" {
			return nil, fmt.Errorf("either ProductsDir or Registry is required")
		}
		var err error
		if registry, err = product.LoadProducts(opts.ProductsDir); err != nil {
			return nil, fmt.Errorf("load products: %w", err)
		}
	}

	cfg := &config.Config{
		Catalog: config.CatalogConfig{
			BaseURL:     opts.BaseURL,
			Title:       opts.Title,
			Description: opts.Description,
			License:     opts.License,
		},
	}

	handlers := api.NewHandlers(cfg, registry, opts.Logger)
	router := api.NewRouter(handlers, opts.Logger)

	return &Server{
		router:   router,
		registry: registry,
	}, nil
}

// Router returns the chi.Router for mounting in another application.
func (s *Server) Router() chi.Router {
	return s.router
}

// Registry returns the loaded product registry.
func (s *Server) Registry() *product.Registry {
	return s.registry
}
