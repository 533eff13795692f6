package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(h *Handlers, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(RequestIDResponse)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(Recovery(logger))
	r.Use(middleware.Compress(5))
	r.Use(ContentTypeJSON)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", h.Health)

	// Service root and catalog views
	r.Get("/", h.LandingPage)
	r.Get("/collection", h.Collection)

	// Products
	r.Get("/products", h.Products)
	r.Route("/products/{productId}", func(r chi.Router) {
		r.Get("/", h.Product)
		r.Get("/stac-item", h.Item)

		// Geometry queries
		r.Get("/time", h.Time)
		r.Get("/position", h.Position)
		r.Get("/velocity", h.Velocity)
		r.Get("/ground-range", h.GroundRange)
		r.Get("/slant-range", h.SlantRange)
		r.Get("/doppler-centroid", h.DopplerCentroid)
		r.Get("/doppler-rate", h.DopplerRate)
		r.Get("/geometry", h.Geometry)

		// Beam and burst segmentation
		r.Get("/beam", h.Beam)
		r.Get("/burst", h.Burst)
		r.Get("/prf", h.PRF)

		// Calibration
		r.Get("/noise", h.Noise)
		r.Get("/lut", h.LUT)
		r.Get("/incidence-angle", h.IncidenceAngle)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "endpoint not found")
	})

	// 405 handler
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "MethodNotAllowed", "method not allowed")
	})

	return r
}
