/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

ROUTER: chi
  Chi was chosen for:
  - Lightweight and fast
  - Context-based
  - Middleware support
  - RESTful route patterns

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/auth/*         Registration and login
  /api/members/*      Accounts, deposits, withdrawals, notifications
  /api/categories/*   Waste catalog
  /api/deposits       Deposit ledger
  /api/stock/*        Derived inventory
  /api/sales/*        Wholesale sales
  /api/withdrawals/*  Operator adjudication
  /api/bank/*         Derived cash position
  /api/reports/*      Narrative reports

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
		})

		// Member routes
		r.Route("/members", func(r chi.Router) {
			r.Get("/", h.ListMembers)
			r.Post("/", h.Register)
			r.Get("/{id}", h.GetMember)
			r.Delete("/{id}", h.DeleteMember)
			r.Put("/{id}/password", h.ChangePassword)
			r.Get("/{id}/deposits", h.ListMemberDeposits)
			r.Get("/{id}/withdrawals", h.ListMemberWithdrawals)
			r.Post("/{id}/withdrawals", h.RequestWithdrawal)
			r.Get("/{id}/notifications", h.ListNotifications)
			r.Post("/{id}/notifications/{nid}/read", h.MarkNotificationRead)
			r.Post("/{id}/notifications/clear-read", h.ClearReadNotifications)
		})

		// Catalog routes
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Put("/{id}", h.UpdateCategory)
			r.Delete("/{id}", h.DeleteCategory)
		})

		// Deposit routes
		r.Route("/deposits", func(r chi.Router) {
			r.Get("/", h.ListDeposits)
			r.Post("/", h.RecordDeposit)
		})

		// Stock routes
		r.Route("/stock", func(r chi.Router) {
			r.Get("/", h.ListStock)
			r.Get("/valuation", h.StockValuation)
		})

		// Sale routes
		r.Route("/sales", func(r chi.Router) {
			r.Get("/", h.ListSales)
			r.Post("/", h.CreateSale)
			r.Put("/{id}/status", h.UpdateSaleStatus)
		})

		// Withdrawal adjudication routes
		r.Route("/withdrawals", func(r chi.Router) {
			r.Get("/", h.ListWithdrawals)
			r.Post("/{id}/approve", h.ApproveWithdrawal)
			r.Post("/{id}/reject", h.RejectWithdrawal)
		})

		// Bank routes
		r.Get("/bank/cash", h.BankCash)

		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Post("/operator", h.OperatorReport)
			r.Post("/members/{id}", h.MemberReport)
		})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>EcoVault Waste Bank</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>EcoVault Waste Bank API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/members">/api/members</a> - List accounts</li>
<li><a href="/api/categories">/api/categories</a> - Waste catalog</li>
<li><a href="/api/stock">/api/stock</a> - Available stock</li>
<li><a href="/api/sales">/api/sales</a> - Wholesale sales</li>
<li><a href="/api/withdrawals">/api/withdrawals</a> - Withdrawal requests</li>
</ul>
</body>
</html>`))
	})

	return r
}
