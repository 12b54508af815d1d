/*
handlers_test.go - HTTP round-trip tests for the API layer

Tests run the real router over the in-memory store:
- Deposit recording and balance credit
- Sale creation against derived stock, with conflict on overselling
- Withdrawal request and adjudication flow
- Error status mapping
*/
package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecovault/bank-engine/core"
	"github.com/ecovault/bank-engine/store/memory"
)

type fixture struct {
	t      *testing.T
	router http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	engine := core.NewEngine(store)
	catalog := core.NewCatalog(store)
	h := NewHandler(engine, catalog, nil)
	return &fixture{t: t, router: NewRouter(h)}
}

// do performs a request and decodes the JSON response into out (when non-nil).
func (f *fixture) do(method, path string, body any, out any) *httptest.ResponseRecorder {
	f.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(f.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if out != nil && rec.Code < 400 {
		require.NoError(f.t, json.NewDecoder(rec.Body).Decode(out))
	}
	return rec
}

func (f *fixture) register(username, fullName, role string) MemberDTO {
	f.t.Helper()
	var m MemberDTO
	rec := f.do(http.MethodPost, "/api/auth/register", RegisterRequest{
		Username: username, FullName: fullName, Password: "secret123", Role: role,
	}, &m)
	require.Equal(f.t, http.StatusCreated, rec.Code)
	return m
}

func (f *fixture) createCategory(name string, price core.Money) CategoryDTO {
	f.t.Helper()
	var c CategoryDTO
	rec := f.do(http.MethodPost, "/api/categories", CreateCategoryRequest{
		Name: name, PricePerKg: price, Group: "Plastic",
	}, &c)
	require.Equal(f.t, http.StatusCreated, rec.Code)
	return c
}

func TestDepositFlow(t *testing.T) {
	// GIVEN a member, operator and category
	f := newFixture(t)
	operator := f.register("admin", "Site Operator", "OPERATOR")
	member := f.register("budi", "Budi Santoso", "MEMBER")
	cat := f.createCategory("PET Plastic Bottles", 3000)

	// WHEN recording a 10kg deposit
	var dep DepositDTO
	rec := f.do(http.MethodPost, "/api/deposits", RecordDepositRequest{
		MemberID: member.ID, CategoryID: cat.ID, OperatorID: operator.ID, WeightKg: "10",
	}, &dep)

	// THEN the amount is weight times the price snapshot
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, core.Money(30000), dep.TotalAmount)
	assert.Equal(t, "PET Plastic Bottles", dep.CategoryName)

	// AND the member balance is credited
	var got MemberDTO
	rec = f.do(http.MethodGet, "/api/members/"+member.ID, nil, &got)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.Money(30000), got.Balance)

	// AND a notification was delivered
	var notifs []NotificationDTO
	rec = f.do(http.MethodGet, "/api/members/"+member.ID+"/notifications", nil, &notifs)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, notifs, 1)
	assert.False(t, notifs[0].Read)
}

func TestDepositValidation(t *testing.T) {
	f := newFixture(t)
	operator := f.register("admin", "Site Operator", "OPERATOR")
	member := f.register("budi", "Budi Santoso", "MEMBER")
	cat := f.createCategory("PET Plastic Bottles", 3000)

	// Zero weight is a client error
	rec := f.do(http.MethodPost, "/api/deposits", RecordDepositRequest{
		MemberID: member.ID, CategoryID: cat.ID, OperatorID: operator.ID, WeightKg: "0",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown member is a 404
	rec = f.do(http.MethodPost, "/api/deposits", RecordDepositRequest{
		MemberID: "member-ghost", CategoryID: cat.ID, OperatorID: operator.ID, WeightKg: "1",
	}, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Malformed weight never reaches the engine
	rec = f.do(http.MethodPost, "/api/deposits", RecordDepositRequest{
		MemberID: member.ID, CategoryID: cat.ID, OperatorID: operator.ID, WeightKg: "ten",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaleAgainstStock(t *testing.T) {
	// GIVEN 10kg of collected PET
	f := newFixture(t)
	operator := f.register("admin", "Site Operator", "OPERATOR")
	member := f.register("budi", "Budi Santoso", "MEMBER")
	cat := f.createCategory("PET Plastic Bottles", 3000)
	rec := f.do(http.MethodPost, "/api/deposits", RecordDepositRequest{
		MemberID: member.ID, CategoryID: cat.ID, OperatorID: operator.ID, WeightKg: "10",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	// WHEN selling 6kg with the default markup
	var sale SaleDTO
	rec = f.do(http.MethodPost, "/api/sales", CreateSaleRequest{
		CategoryID: cat.ID, WeightKg: "6", OperatorID: operator.ID,
	}, &sale)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "PENDING", sale.PaymentStatus)
	assert.Equal(t, core.Money(3300), sale.WholesalePricePerKg)

	// THEN pending sales do not reduce available stock
	var stock []StockLevelDTO
	rec = f.do(http.MethodGet, "/api/stock", nil, &stock)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, stock, 1)
	assert.Equal(t, "10", stock[0].AvailableKg)

	// WHEN the sale is settled
	var settled SaleDTO
	rec = f.do(http.MethodPut, "/api/sales/"+sale.ID+"/status",
		UpdateSaleStatusRequest{Status: "PAID"}, &settled)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "PAID", settled.PaymentStatus)

	// THEN stock drops and cash appears
	rec = f.do(http.MethodGet, "/api/stock", nil, &stock)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "4", stock[0].AvailableKg)

	var cash map[string]core.Money
	rec = f.do(http.MethodGet, "/api/bank/cash", nil, &cash)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.Money(19800), cash["bank_cash"])

	// AND overselling the remainder conflicts
	rec = f.do(http.MethodPost, "/api/sales", CreateSaleRequest{
		CategoryID: cat.ID, WeightKg: "5", OperatorID: operator.ID,
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSaleStatusTransitions(t *testing.T) {
	f := newFixture(t)
	operator := f.register("admin", "Site Operator", "OPERATOR")
	member := f.register("budi", "Budi Santoso", "MEMBER")
	cat := f.createCategory("PET Plastic Bottles", 3000)
	f.do(http.MethodPost, "/api/deposits", RecordDepositRequest{
		MemberID: member.ID, CategoryID: cat.ID, OperatorID: operator.ID, WeightKg: "10",
	}, nil)

	var sale SaleDTO
	rec := f.do(http.MethodPost, "/api/sales", CreateSaleRequest{
		CategoryID: cat.ID, WeightKg: "5", OperatorID: operator.ID,
	}, &sale)
	require.Equal(t, http.StatusCreated, rec.Code)

	// An unknown status value is rejected
	rec = f.do(http.MethodPut, "/api/sales/"+sale.ID+"/status",
		UpdateSaleStatusRequest{Status: "SHIPPED"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Cancel, then attempt to settle: terminal states are immutable
	rec = f.do(http.MethodPut, "/api/sales/"+sale.ID+"/status",
		UpdateSaleStatusRequest{Status: "CANCELLED"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodPut, "/api/sales/"+sale.ID+"/status",
		UpdateSaleStatusRequest{Status: "PAID"}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestWithdrawalFlow(t *testing.T) {
	// GIVEN a member holding 30000
	f := newFixture(t)
	operator := f.register("admin", "Site Operator", "OPERATOR")
	member := f.register("budi", "Budi Santoso", "MEMBER")
	cat := f.createCategory("PET Plastic Bottles", 3000)
	f.do(http.MethodPost, "/api/deposits", RecordDepositRequest{
		MemberID: member.ID, CategoryID: cat.ID, OperatorID: operator.ID, WeightKg: "10",
	}, nil)

	// WHEN requesting 15000
	var wd WithdrawalDTO
	rec := f.do(http.MethodPost, "/api/members/"+member.ID+"/withdrawals",
		RequestWithdrawalRequest{Amount: 15000}, &wd)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "PENDING", wd.Status)

	// THEN the balance is untouched until approval
	var got MemberDTO
	f.do(http.MethodGet, "/api/members/"+member.ID, nil, &got)
	assert.Equal(t, core.Money(30000), got.Balance)

	// WHEN the operator approves
	var approved WithdrawalDTO
	rec = f.do(http.MethodPost, "/api/withdrawals/"+wd.ID+"/approve",
		ProcessWithdrawalRequest{OperatorID: operator.ID}, &approved)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "APPROVED", approved.Status)
	assert.Equal(t, operator.ID, approved.ProcessedBy)

	// THEN the balance is deducted
	f.do(http.MethodGet, "/api/members/"+member.ID, nil, &got)
	assert.Equal(t, core.Money(15000), got.Balance)

	// AND re-approving a settled request conflicts
	rec = f.do(http.MethodPost, "/api/withdrawals/"+wd.ID+"/approve",
		ProcessWithdrawalRequest{OperatorID: operator.ID}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestWithdrawalBelowMinimum(t *testing.T) {
	f := newFixture(t)
	member := f.register("budi", "Budi Santoso", "MEMBER")

	rec := f.do(http.MethodPost, "/api/members/"+member.ID+"/withdrawals",
		RequestWithdrawalRequest{Amount: 500}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthStatuses(t *testing.T) {
	f := newFixture(t)
	f.register("budi", "Budi Santoso", "MEMBER")

	// Duplicate username conflicts, case-insensitively
	rec := f.do(http.MethodPost, "/api/auth/register", RegisterRequest{
		Username: "BUDI", FullName: "Impostor", Password: "secret123",
	}, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Bad password is unauthorized
	rec = f.do(http.MethodPost, "/api/auth/login", LoginRequest{
		Username: "budi", Password: "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Good credentials return the account
	var m MemberDTO
	rec = f.do(http.MethodPost, "/api/auth/login", LoginRequest{
		Username: "budi", Password: "secret123",
	}, &m)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Budi Santoso", m.FullName)
}

func TestCategoryUpdateKeepsSnapshots(t *testing.T) {
	// GIVEN a deposit recorded at the original price
	f := newFixture(t)
	operator := f.register("admin", "Site Operator", "OPERATOR")
	member := f.register("budi", "Budi Santoso", "MEMBER")
	cat := f.createCategory("PET Plastic Bottles", 3000)
	f.do(http.MethodPost, "/api/deposits", RecordDepositRequest{
		MemberID: member.ID, CategoryID: cat.ID, OperatorID: operator.ID, WeightKg: "2",
	}, nil)

	// WHEN the catalog price changes
	newPrice := core.Money(5000)
	var updated CategoryDTO
	rec := f.do(http.MethodPut, "/api/categories/"+cat.ID,
		UpdateCategoryRequest{PricePerKg: &newPrice}, &updated)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, core.Money(5000), updated.PricePerKg)

	// THEN the historical deposit keeps its snapshot
	var deposits []DepositDTO
	rec = f.do(http.MethodGet, "/api/deposits", nil, &deposits)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, deposits, 1)
	assert.Equal(t, core.Money(3000), deposits[0].PricePerKg)
	assert.Equal(t, core.Money(6000), deposits[0].TotalAmount)
}

func TestReportsDisabled(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/reports/operator", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
