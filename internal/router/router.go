package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tableside-pos/api/internal/config"
	"github.com/tableside-pos/api/internal/enum"
	"github.com/tableside-pos/api/internal/handler"
	mw "github.com/tableside-pos/api/internal/middleware"
	"github.com/tableside-pos/api/internal/ws"
	"go.uber.org/zap"
)

// Services are the domain services behind the HTTP handlers.
type Services struct {
	Catalog handler.CatalogServicer
	Orders  handler.OrderServicer
	Reports handler.ReportServicer
}

// New creates a Chi router with all application routes wired up.
// Applies optional authentication everywhere and rank checks per route.
func New(cfg *config.Config, svc Services, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// WebSocket routes (staff auth via token query param)
	r.Get("/ws/orders", ws.ServeStaff(hub, cfg.JWTSecret, enum.RoleServer))
	r.Get("/ws/orders/{id}", ws.ServeOrder(hub))

	r.Group(func(r chi.Router) {
		r.Use(mw.OptionalAuthenticate(cfg.JWTSecret))

		menuHandler := handler.NewMenuHandler(svc.Catalog)
		r.Route("/menu", menuHandler.RegisterRoutes)

		orderHandler := handler.NewOrderHandler(svc.Orders, cfg.Location)
		r.Route("/orders", orderHandler.RegisterRoutes)
	})

	// Staff-only routes
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))
		r.Use(mw.RequireRank(enum.RoleServer))

		reportsHandler := handler.NewReportsHandler(svc.Reports)
		r.Route("/reports", reportsHandler.RegisterRoutes)
	})

	zap.S().Debug("router initialized with all handlers")
	return r
}
