/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

WEIGHTS AND MONEY:
  Weights travel as decimal strings ("2.75") so clients never see float
  drift. Money travels as integer currency units.

VALIDATION:
  Validation is done in the engine, not in DTOs. DTOs are pure data
  carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - core/types.go: Domain model these map from
*/
package api

import (
	"time"

	"github.com/ecovault/bank-engine/core"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// MemberDTO represents an account in API responses. The password never
// leaves the server.
type MemberDTO struct {
	ID       string     `json:"id"`
	Username string     `json:"username"`
	FullName string     `json:"full_name"`
	Role     string     `json:"role"`
	Balance  core.Money `json:"balance"`
	JoinedAt string     `json:"joined_at"`
}

// RegisterRequest is the request to create an account.
type RegisterRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// LoginRequest is the request to authenticate.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the request to update an account password.
type ChangePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

// CategoryDTO represents a waste category in API responses.
type CategoryDTO struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	PricePerKg core.Money `json:"price_per_kg"`
	Group      string     `json:"group,omitempty"`
}

// CreateCategoryRequest is the request to add a catalog entry.
type CreateCategoryRequest struct {
	Name       string     `json:"name"`
	PricePerKg core.Money `json:"price_per_kg"`
	Group      string     `json:"group"`
}

// UpdateCategoryRequest carries partial catalog edits. Absent fields are
// left unchanged.
type UpdateCategoryRequest struct {
	Name       *string     `json:"name"`
	PricePerKg *core.Money `json:"price_per_kg"`
	Group      *string     `json:"group"`
}

// DepositDTO represents a deposit transaction in API responses.
type DepositDTO struct {
	ID           string     `json:"id"`
	MemberID     string     `json:"member_id"`
	OperatorID   string     `json:"operator_id"`
	CategoryID   string     `json:"category_id"`
	CategoryName string     `json:"category_name"`
	WeightKg     string     `json:"weight_kg"`
	PricePerKg   core.Money `json:"price_per_kg"`
	TotalAmount  core.Money `json:"total_amount"`
	RecordedAt   string     `json:"recorded_at"`
}

// RecordDepositRequest is the request to record a member deposit.
type RecordDepositRequest struct {
	MemberID   string `json:"member_id"`
	CategoryID string `json:"category_id"`
	OperatorID string `json:"operator_id"`
	WeightKg   string `json:"weight_kg"`
}

// StockLevelDTO represents one category's derived inventory position.
type StockLevelDTO struct {
	CategoryID              string     `json:"category_id"`
	Name                    string     `json:"name"`
	MemberPricePerKg        core.Money `json:"member_price_per_kg"`
	CollectedKg             string     `json:"collected_kg"`
	SoldPaidKg              string     `json:"sold_paid_kg"`
	AvailableKg             string     `json:"available_kg"`
	SuggestedWholesalePrice core.Money `json:"suggested_wholesale_price"`
}

// StockValuationDTO extends a stock level with its asset value.
type StockValuationDTO struct {
	StockLevelDTO
	AssetValue core.Money `json:"asset_value"`
}

// SaleDTO represents a wholesale sale in API responses.
type SaleDTO struct {
	ID                  string     `json:"id"`
	CategoryID          string     `json:"category_id"`
	CategoryName        string     `json:"category_name"`
	WeightKg            string     `json:"weight_kg"`
	MemberPricePerKg    core.Money `json:"member_price_per_kg"`
	WholesalePricePerKg core.Money `json:"wholesale_price_per_kg"`
	TotalAmount         core.Money `json:"total_amount"`
	PaymentStatus       string     `json:"payment_status"`
	OperatorID          string     `json:"operator_id"`
	RecordedAt          string     `json:"recorded_at"`
}

// CreateSaleRequest is the request to record a wholesale sale. A zero or
// absent unit price selects the suggested wholesale price.
type CreateSaleRequest struct {
	CategoryID string     `json:"category_id"`
	WeightKg   string     `json:"weight_kg"`
	UnitPrice  core.Money `json:"unit_price"`
	OperatorID string     `json:"operator_id"`
}

// UpdateSaleStatusRequest is the request to settle or cancel a sale.
type UpdateSaleStatusRequest struct {
	Status string `json:"status"`
}

// WithdrawalDTO represents a withdrawal request in API responses.
type WithdrawalDTO struct {
	ID          string     `json:"id"`
	MemberID    string     `json:"member_id"`
	Amount      core.Money `json:"amount"`
	Status      string     `json:"status"`
	RequestedAt string     `json:"requested_at"`
	ProcessedAt string     `json:"processed_at,omitempty"`
	ProcessedBy string     `json:"processed_by,omitempty"`
}

// RequestWithdrawalRequest is the request body for a new withdrawal.
type RequestWithdrawalRequest struct {
	Amount core.Money `json:"amount"`
}

// ProcessWithdrawalRequest identifies the adjudicating operator.
type ProcessWithdrawalRequest struct {
	OperatorID string `json:"operator_id"`
}

// NotificationDTO represents an inbox entry in API responses.
type NotificationDTO struct {
	ID      string `json:"id"`
	Message string `json:"message"`
	At      string `json:"at"`
	Read    bool   `json:"read"`
}

// ReportDTO wraps a generated narrative report.
type ReportDTO struct {
	Report string `json:"report"`
}

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toMemberDTO(m core.Member) MemberDTO {
	return MemberDTO{
		ID:       string(m.ID),
		Username: m.Username,
		FullName: m.FullName,
		Role:     string(m.Role),
		Balance:  m.Balance,
		JoinedAt: m.JoinedAt.Format(time.RFC3339),
	}
}

func toCategoryDTO(c core.WasteCategory) CategoryDTO {
	return CategoryDTO{
		ID:         string(c.ID),
		Name:       c.Name,
		PricePerKg: c.PricePerKg,
		Group:      c.Group,
	}
}

func toDepositDTO(d core.DepositTransaction) DepositDTO {
	return DepositDTO{
		ID:           string(d.ID),
		MemberID:     string(d.MemberID),
		OperatorID:   string(d.OperatorID),
		CategoryID:   string(d.CategoryID),
		CategoryName: d.CategoryName,
		WeightKg:     d.Weight.String(),
		PricePerKg:   d.PricePerKgSnapshot,
		TotalAmount:  d.TotalAmount,
		RecordedAt:   d.RecordedAt.Format(time.RFC3339),
	}
}

func toStockLevelDTO(s core.StockLevel) StockLevelDTO {
	return StockLevelDTO{
		CategoryID:              string(s.CategoryID),
		Name:                    s.Name,
		MemberPricePerKg:        s.MemberPricePerKg,
		CollectedKg:             s.Collected.String(),
		SoldPaidKg:              s.SoldPaid.String(),
		AvailableKg:             s.Available.String(),
		SuggestedWholesalePrice: s.SuggestedWholesalePrice,
	}
}

func toSaleDTO(s core.WholesaleTransaction) SaleDTO {
	return SaleDTO{
		ID:                  string(s.ID),
		CategoryID:          string(s.CategoryID),
		CategoryName:        s.CategoryName,
		WeightKg:            s.Weight.String(),
		MemberPricePerKg:    s.MemberPricePerKg,
		WholesalePricePerKg: s.WholesalePricePerKg,
		TotalAmount:         s.TotalAmount,
		PaymentStatus:       string(s.PaymentStatus),
		OperatorID:          string(s.OperatorID),
		RecordedAt:          s.RecordedAt.Format(time.RFC3339),
	}
}

func toWithdrawalDTO(w core.WithdrawalRequest) WithdrawalDTO {
	dto := WithdrawalDTO{
		ID:          string(w.ID),
		MemberID:    string(w.MemberID),
		Amount:      w.Amount,
		Status:      string(w.Status),
		RequestedAt: w.RequestedAt.Format(time.RFC3339),
	}
	if w.ProcessedAt != nil {
		dto.ProcessedAt = w.ProcessedAt.Format(time.RFC3339)
	}
	if w.ProcessedBy != nil {
		dto.ProcessedBy = string(*w.ProcessedBy)
	}
	return dto
}

func toNotificationDTO(n core.Notification) NotificationDTO {
	return NotificationDTO{
		ID:      string(n.ID),
		Message: n.Message,
		At:      n.At.Format(time.RFC3339),
		Read:    n.Read,
	}
}
