/*
handlers.go - HTTP API handlers for the waste bank engine

PURPOSE:
  Exposes the ledger engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Auth:
    POST   /api/auth/register           Create an account
    POST   /api/auth/login              Verify credentials

  Members:
    GET    /api/members                 List all accounts
    GET    /api/members/{id}            Get one account
    DELETE /api/members/{id}            Remove an account (history kept)
    PUT    /api/members/{id}/password   Change password
    GET    /api/members/{id}/deposits   Member deposit history
    GET    /api/members/{id}/withdrawals
    POST   /api/members/{id}/withdrawals  Request a withdrawal
    GET    /api/members/{id}/notifications
    POST   /api/members/{id}/notifications/{nid}/read
    POST   /api/members/{id}/notifications/clear-read

  Catalog:
    GET    /api/categories              List waste categories
    POST   /api/categories              Create category
    PUT    /api/categories/{id}         Partial update
    DELETE /api/categories/{id}         Remove category (history kept)

  Ledger:
    GET    /api/deposits                All deposits
    POST   /api/deposits                Record a deposit
    GET    /api/stock                   Derived available stock
    GET    /api/stock/valuation         Stock with asset value
    GET    /api/sales                   All wholesale sales
    POST   /api/sales                   Record a wholesale sale
    PUT    /api/sales/{id}/status       Settle or cancel a sale
    GET    /api/withdrawals             All requests, ?status= filter
    POST   /api/withdrawals/{id}/approve
    POST   /api/withdrawals/{id}/reject
    GET    /api/bank/cash               Derived bank cash position

  Reports:
    POST   /api/reports/operator        Narrative bank-wide report
    POST   /api/reports/members/{id}    Narrative member report

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input, below-minimum amounts
  - 401: Bad credentials
  - 404: Resource not found
  - 409: Conflict (stock, balance, state transitions, duplicate username)
  - 500: Internal errors

SECURITY NOTE:
  Credential checks exist but no session or token middleware. All
  endpoints are otherwise public, matching the simulated deployment.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - core/ledger.go: Domain logic the handlers delegate to
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ecovault/bank-engine/core"
	"github.com/ecovault/bank-engine/report"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine  *core.Engine
	Catalog *core.Catalog

	// Reports may be nil when report generation is disabled.
	Reports report.Generator
}

// NewHandler creates a new handler around the engine. reports may be nil.
func NewHandler(engine *core.Engine, catalog *core.Catalog, reports report.Generator) *Handler {
	return &Handler{Engine: engine, Catalog: catalog, Reports: reports}
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Register creates a new account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	role := core.Role(req.Role)
	if role == "" {
		role = core.RoleMember
	}

	member, err := h.Engine.RegisterMember(r.Context(), req.FullName, req.Username, req.Password, role)
	if err != nil {
		writeDomainError(w, "Failed to register", err)
		return
	}

	writeJSON(w, http.StatusCreated, toMemberDTO(*member))
}

// Login verifies credentials and returns the account.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	member, err := h.Engine.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		writeDomainError(w, "Login failed", err)
		return
	}

	writeJSON(w, http.StatusOK, toMemberDTO(*member))
}

// =============================================================================
// MEMBER HANDLERS
// =============================================================================

// ListMembers returns all accounts.
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.Engine.ListMembers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list members", err)
		return
	}

	dtos := make([]MemberDTO, len(members))
	for i, m := range members {
		dtos[i] = toMemberDTO(m)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetMember returns a single account.
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	id := core.MemberID(chi.URLParam(r, "id"))

	member, err := h.Engine.GetMember(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get member", err)
		return
	}

	writeJSON(w, http.StatusOK, toMemberDTO(*member))
}

// DeleteMember removes an account. Transaction history is retained.
func (h *Handler) DeleteMember(w http.ResponseWriter, r *http.Request) {
	id := core.MemberID(chi.URLParam(r, "id"))

	if err := h.Engine.RemoveMember(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete member", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// ChangePassword updates an account password.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id := core.MemberID(chi.URLParam(r, "id"))

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.Engine.UpdatePassword(r.Context(), id, req.NewPassword); err != nil {
		writeDomainError(w, "Failed to change password", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "updated"})
}

// ListMemberDeposits returns one member's deposit history.
func (h *Handler) ListMemberDeposits(w http.ResponseWriter, r *http.Request) {
	id := core.MemberID(chi.URLParam(r, "id"))

	deposits, err := h.Engine.DepositsByMember(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list deposits", err)
		return
	}

	dtos := make([]DepositDTO, len(deposits))
	for i, d := range deposits {
		dtos[i] = toDepositDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListMemberWithdrawals returns one member's withdrawal requests.
func (h *Handler) ListMemberWithdrawals(w http.ResponseWriter, r *http.Request) {
	id := core.MemberID(chi.URLParam(r, "id"))

	withdrawals, err := h.Engine.WithdrawalsByMember(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list withdrawals", err)
		return
	}

	dtos := make([]WithdrawalDTO, len(withdrawals))
	for i, wd := range withdrawals {
		dtos[i] = toWithdrawalDTO(wd)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RequestWithdrawal submits a new withdrawal request for a member.
func (h *Handler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	id := core.MemberID(chi.URLParam(r, "id"))

	var req RequestWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	request, err := h.Engine.RequestWithdrawal(r.Context(), id, req.Amount)
	if err != nil {
		writeDomainError(w, "Failed to request withdrawal", err)
		return
	}

	writeJSON(w, http.StatusCreated, toWithdrawalDTO(*request))
}

// =============================================================================
// NOTIFICATION HANDLERS
// =============================================================================

// ListNotifications returns a member's inbox.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	id := core.MemberID(chi.URLParam(r, "id"))

	notifs, err := h.Engine.Notifications(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list notifications", err)
		return
	}

	dtos := make([]NotificationDTO, len(notifs))
	for i, n := range notifs {
		dtos[i] = toNotificationDTO(n)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// MarkNotificationRead marks one inbox entry as read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	memberID := core.MemberID(chi.URLParam(r, "id"))
	notifID := core.NotificationID(chi.URLParam(r, "nid"))

	if err := h.Engine.MarkNotificationRead(r.Context(), memberID, notifID); err != nil {
		writeDomainError(w, "Failed to mark notification", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "read"})
}

// ClearReadNotifications drops all read entries from a member's inbox.
func (h *Handler) ClearReadNotifications(w http.ResponseWriter, r *http.Request) {
	memberID := core.MemberID(chi.URLParam(r, "id"))

	if err := h.Engine.ClearReadNotifications(r.Context(), memberID); err != nil {
		writeDomainError(w, "Failed to clear notifications", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "cleared"})
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListCategories returns the waste catalog.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Catalog.ListCategories(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list categories", err)
		return
	}

	dtos := make([]CategoryDTO, len(cats))
	for i, c := range cats {
		dtos[i] = toCategoryDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateCategory adds a catalog entry.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cat, err := h.Catalog.CreateCategory(r.Context(), req.Name, req.PricePerKg, req.Group)
	if err != nil {
		writeDomainError(w, "Failed to create category", err)
		return
	}

	writeJSON(w, http.StatusCreated, toCategoryDTO(*cat))
}

// UpdateCategory applies a partial catalog edit. Existing deposit rows keep
// their price snapshots.
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	id := core.CategoryID(chi.URLParam(r, "id"))

	var req UpdateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	cat, err := h.Catalog.UpdateCategory(r.Context(), id, core.CategoryUpdate{
		Name:       req.Name,
		PricePerKg: req.PricePerKg,
		Group:      req.Group,
	})
	if err != nil {
		writeDomainError(w, "Failed to update category", err)
		return
	}

	writeJSON(w, http.StatusOK, toCategoryDTO(*cat))
}

// DeleteCategory removes a catalog entry. Transaction history is retained.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id := core.CategoryID(chi.URLParam(r, "id"))

	if err := h.Catalog.DeleteCategory(r.Context(), id); err != nil {
		writeDomainError(w, "Failed to delete category", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// =============================================================================
// DEPOSIT HANDLERS
// =============================================================================

// ListDeposits returns every deposit transaction.
func (h *Handler) ListDeposits(w http.ResponseWriter, r *http.Request) {
	deposits, err := h.Engine.Deposits(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list deposits", err)
		return
	}

	dtos := make([]DepositDTO, len(deposits))
	for i, d := range deposits {
		dtos[i] = toDepositDTO(d)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// RecordDeposit records a weighed drop-off and credits the member.
func (h *Handler) RecordDeposit(w http.ResponseWriter, r *http.Request) {
	var req RecordDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	weight, err := decimal.NewFromString(req.WeightKg)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid weight_kg (use a decimal string)", err)
		return
	}

	deposit, err := h.Engine.RecordDeposit(r.Context(),
		core.MemberID(req.MemberID), core.CategoryID(req.CategoryID),
		core.MemberID(req.OperatorID), weight)
	if err != nil {
		writeDomainError(w, "Failed to record deposit", err)
		return
	}

	writeJSON(w, http.StatusCreated, toDepositDTO(*deposit))
}

// =============================================================================
// STOCK HANDLERS
// =============================================================================

// ListStock returns the derived per-category inventory.
func (h *Handler) ListStock(w http.ResponseWriter, r *http.Request) {
	levels, err := h.Engine.AvailableStock(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute stock", err)
		return
	}

	dtos := make([]StockLevelDTO, len(levels))
	for i, s := range levels {
		dtos[i] = toStockLevelDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// StockValuation returns the inventory with per-category asset value.
func (h *Handler) StockValuation(w http.ResponseWriter, r *http.Request) {
	vals, err := h.Engine.StockValuationReport(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute valuation", err)
		return
	}

	dtos := make([]StockValuationDTO, len(vals))
	for i, v := range vals {
		dtos[i] = StockValuationDTO{
			StockLevelDTO: toStockLevelDTO(v.StockLevel),
			AssetValue:    v.AssetValue,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// SALE HANDLERS
// =============================================================================

// ListSales returns every wholesale sale.
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.Engine.Sales(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sales", err)
		return
	}

	dtos := make([]SaleDTO, len(sales))
	for i, s := range sales {
		dtos[i] = toSaleDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSale records a wholesale sale against available stock.
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	var req CreateSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	weight, err := decimal.NewFromString(req.WeightKg)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid weight_kg (use a decimal string)", err)
		return
	}

	sale, err := h.Engine.SellToWholesaler(r.Context(),
		core.CategoryID(req.CategoryID), weight, req.UnitPrice,
		core.MemberID(req.OperatorID))
	if err != nil {
		writeDomainError(w, "Failed to record sale", err)
		return
	}

	writeJSON(w, http.StatusCreated, toSaleDTO(*sale))
}

// UpdateSaleStatus settles or cancels a pending sale.
func (h *Handler) UpdateSaleStatus(w http.ResponseWriter, r *http.Request) {
	id := core.SaleID(chi.URLParam(r, "id"))

	var req UpdateSaleStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	sale, err := h.Engine.SetWholesalePaymentStatus(r.Context(), id, core.PaymentStatus(req.Status))
	if err != nil {
		writeDomainError(w, "Failed to update sale", err)
		return
	}

	writeJSON(w, http.StatusOK, toSaleDTO(*sale))
}

// =============================================================================
// WITHDRAWAL ADJUDICATION HANDLERS
// =============================================================================

// ListWithdrawals returns requests, optionally filtered by ?status=.
func (h *Handler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	status := core.WithdrawalStatus(r.URL.Query().Get("status"))

	withdrawals, err := h.Engine.Withdrawals(r.Context(), status)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list withdrawals", err)
		return
	}

	dtos := make([]WithdrawalDTO, len(withdrawals))
	for i, wd := range withdrawals {
		dtos[i] = toWithdrawalDTO(wd)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ApproveWithdrawal approves a pending request. The balance is re-checked
// at approval time; a drifted balance turns the request into a rejection.
func (h *Handler) ApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	id := core.WithdrawalID(chi.URLParam(r, "id"))

	var req ProcessWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	request, err := h.Engine.ApproveWithdrawal(r.Context(), id, core.MemberID(req.OperatorID))
	if err != nil {
		writeDomainError(w, "Failed to approve withdrawal", err)
		return
	}

	writeJSON(w, http.StatusOK, toWithdrawalDTO(*request))
}

// RejectWithdrawal rejects a pending request.
func (h *Handler) RejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	id := core.WithdrawalID(chi.URLParam(r, "id"))

	var req ProcessWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	request, err := h.Engine.RejectWithdrawal(r.Context(), id, core.MemberID(req.OperatorID))
	if err != nil {
		writeDomainError(w, "Failed to reject withdrawal", err)
		return
	}

	writeJSON(w, http.StatusOK, toWithdrawalDTO(*request))
}

// =============================================================================
// BANK HANDLERS
// =============================================================================

// BankCash returns the derived cash position.
func (h *Handler) BankCash(w http.ResponseWriter, r *http.Request) {
	cash, err := h.Engine.BankCash(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute bank cash", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bank_cash": cash})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// OperatorReport generates the bank-wide narrative report.
func (h *Handler) OperatorReport(w http.ResponseWriter, r *http.Request) {
	if h.Reports == nil {
		writeError(w, http.StatusServiceUnavailable, "Report generation is disabled", nil)
		return
	}

	ctx := r.Context()
	deposits, err := h.Engine.Deposits(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load deposits", err)
		return
	}
	categories, err := h.Catalog.ListCategories(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load categories", err)
		return
	}

	text, err := h.Reports.OperatorReport(ctx, report.BuildOperatorSummary(deposits, categories))
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to generate report", err)
		return
	}

	writeJSON(w, http.StatusOK, ReportDTO{Report: text})
}

// MemberReport generates a personal narrative report for one member.
func (h *Handler) MemberReport(w http.ResponseWriter, r *http.Request) {
	if h.Reports == nil {
		writeError(w, http.StatusServiceUnavailable, "Report generation is disabled", nil)
		return
	}

	ctx := r.Context()
	id := core.MemberID(chi.URLParam(r, "id"))

	member, err := h.Engine.GetMember(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to get member", err)
		return
	}
	deposits, err := h.Engine.DepositsByMember(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load deposits", err)
		return
	}

	text, err := h.Reports.MemberReport(ctx, report.BuildMemberSummary(member.FullName, deposits))
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to generate report", err)
		return
	}

	writeJSON(w, http.StatusOK, ReportDTO{Report: text})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFromError(err), message, err)
}

func statusFromError(err error) int {
	switch {
	case core.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrUsernameTaken),
		errors.Is(err, core.ErrInsufficientStock),
		errors.Is(err, core.ErrInsufficientBalance),
		errors.Is(err, core.ErrInvalidStateTransition):
		return http.StatusConflict
	case core.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
