/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard

ROUTE GROUPS:
  /api/building         Landlord settings
  /api/units/*          Units
  /api/tenancies/*      Tenancies and statements
  /api/expenses/*       Expense lines and distribution
  /api/meters/*         Meters, readings, net reports
  /api/payments/*       Rent payments
  /api/import           Dataset import
  /api/demo/load        Demo house (dev only)
  /api/reset            Database reset (dev only)

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/building", h.GetBuilding)
		r.Put("/building", h.SaveBuilding)

		r.Route("/units", func(r chi.Router) {
			r.Get("/", h.ListUnits)
			r.Post("/", h.CreateUnit)
		})

		r.Route("/tenancies", func(r chi.Router) {
			r.Get("/", h.ListTenancies)
			r.Post("/", h.CreateTenancy)
			r.Get("/{id}", h.GetTenancy)
			r.Get("/{id}/statement", h.GetStatement)
			r.Post("/{id}/statement/archive", h.ArchiveStatement)
			r.Get("/{id}/archive", h.ListArchivedStatements)
		})

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", h.ListExpenses)
			r.Post("/", h.CreateExpense)
			r.Get("/presets", h.ListPresets)
			r.Get("/distribution", h.GetDistribution)
		})

		r.Route("/meters", func(r chi.Router) {
			r.Get("/", h.ListMeters)
			r.Post("/", h.CreateMeter)
			r.Get("/report", h.MeterReport)
			r.Post("/{id}/parent", h.AssignParent)
			r.Post("/{id}/readings", h.AddReading)
			r.Post("/{id}/expenses", h.BillMeter)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Get("/", h.ListPayments)
			r.Post("/", h.CreatePayment)
			r.Get("/outstanding", h.ListOutstanding)
			r.Get("/summary", h.PaymentSummary)
		})

		r.Post("/import", h.Import)
		r.Post("/demo/load", h.LoadDemo)
		r.Post("/reset", h.ResetDatabase)
	})

	return r
}
