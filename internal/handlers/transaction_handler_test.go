package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/services"
)

// --- mock transaction service ---

type mockTransactionService struct {
	listFn          func(userID uint, filter services.TransactionFilter, page pagination.PageRequest) (*pagination.Page[models.Transaction], error)
	listMonthlyFn   func(userID uint, year, month int) ([]models.Transaction, error)
	createFn        func(userID uint, input services.TransactionInput) (*models.Transaction, error)
	updateFn        func(userID, id uint, input services.TransactionInput) (*models.Transaction, error)
	deleteFn        func(userID, id uint) error
	monthlyStatsFn  func(userID uint, year, month int) (*services.MonthlyStats, error)
	categoryStatsFn func(userID uint, year, month int) ([]services.CategoryStat, error)
}

func (m *mockTransactionService) ListTransactions(_ context.Context, userID uint, filter services.TransactionFilter, page pagination.PageRequest) (*pagination.Page[models.Transaction], error) {
	if m.listFn != nil {
		return m.listFn(userID, filter, page)
	}
	p := pagination.NewPage([]models.Transaction{}, page, 0)
	return &p, nil
}

func (m *mockTransactionService) ListMonthlyTransactions(_ context.Context, userID uint, year, month int) ([]models.Transaction, error) {
	if m.listMonthlyFn != nil {
		return m.listMonthlyFn(userID, year, month)
	}
	return []models.Transaction{}, nil
}

func (m *mockTransactionService) GetTransaction(_ context.Context, _, id uint) (*models.Transaction, error) {
	return &models.Transaction{Base: models.Base{ID: id}}, nil
}

func (m *mockTransactionService) CreateTransaction(_ context.Context, userID uint, input services.TransactionInput) (*models.Transaction, error) {
	if m.createFn != nil {
		return m.createFn(userID, input)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) UpdateTransaction(_ context.Context, userID, id uint, input services.TransactionInput) (*models.Transaction, error) {
	if m.updateFn != nil {
		return m.updateFn(userID, id, input)
	}
	return &models.Transaction{Base: models.Base{ID: id}}, nil
}

func (m *mockTransactionService) DeleteTransaction(_ context.Context, userID, id uint) error {
	if m.deleteFn != nil {
		return m.deleteFn(userID, id)
	}
	return nil
}

func (m *mockTransactionService) GetMonthlyStats(_ context.Context, userID uint, year, month int) (*services.MonthlyStats, error) {
	if m.monthlyStatsFn != nil {
		return m.monthlyStatsFn(userID, year, month)
	}
	return &services.MonthlyStats{Year: year, Month: month}, nil
}

func (m *mockTransactionService) GetCategoryStats(_ context.Context, userID uint, year, month int) ([]services.CategoryStat, error) {
	if m.categoryStatsFn != nil {
		return m.categoryStatsFn(userID, year, month)
	}
	return []services.CategoryStat{}, nil
}

type mockExportService struct {
	exportFn func(userID uint, year, month int) ([]byte, string, error)
}

func (m *mockExportService) ExportTransactions(_ context.Context, userID uint, year, month int) ([]byte, string, error) {
	if m.exportFn != nil {
		return m.exportFn(userID, year, month)
	}
	return []byte("xlsx"), "transactions.xlsx", nil
}

func setupTransactionRouter(svc services.TransactionServicer, export services.ExportServicer, audit services.AuditServicer) *gin.Engine {
	handler := NewTransactionHandler(svc, export, audit)
	r := gin.New()
	auth := r.Group("", injectUserID(1))
	auth.GET("/transactions", handler.ListTransactions)
	auth.GET("/transactions/:year/:month", handler.ListMonthlyTransactions)
	auth.POST("/transactions", handler.CreateTransaction)
	auth.PUT("/transactions/:id", handler.UpdateTransaction)
	auth.DELETE("/transactions/:id", handler.DeleteTransaction)
	auth.GET("/stats/:year/:month", handler.GetMonthlyStats)
	auth.GET("/stats/:year/:month/categories", handler.GetCategoryStats)
	auth.GET("/export/transactions", handler.ExportTransactions)
	r.POST("/anonymous/transactions", handler.CreateTransaction)
	return r
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("returns 201 with the parsed input", func(t *testing.T) {
		var got services.TransactionInput
		svc := &mockTransactionService{
			createFn: func(userID uint, input services.TransactionInput) (*models.Transaction, error) {
				got = input
				return &models.Transaction{Base: models.Base{ID: 3}, UserID: userID, Amount: input.Amount, Type: input.Type}, nil
			},
		}
		r := setupTransactionRouter(svc, &mockExportService{}, &mockAuditService{})

		rec := doRequest(r, "POST", "/transactions", `{"amount":"12.50","type":"expense","date":"2024-03-15","category_id":4,"asset_id":2,"memo":"lunch"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if !got.Amount.Equal(decimal.RequireFromString("12.5")) {
			t.Errorf("expected amount 12.5, got %s", got.Amount)
		}
		if got.Type != models.TransactionTypeExpense || got.Memo != "lunch" {
			t.Errorf("unexpected input %+v", got)
		}
		if y, m, d := got.Date.Date(); y != 2024 || m != time.March || d != 15 {
			t.Errorf("expected 2024-03-15, got %s", got.Date)
		}
		if got.CategoryID == nil || *got.CategoryID != 4 || got.AssetID == nil || *got.AssetID != 2 {
			t.Errorf("expected category 4 and asset 2, got %v %v", got.CategoryID, got.AssetID)
		}
		if data := dataOf(t, rec); data["amount"] != 12.5 {
			t.Errorf("expected amount 12.5 in body, got %v", data["amount"])
		}
	})

	t.Run("omitted date stays zero", func(t *testing.T) {
		var got services.TransactionInput
		svc := &mockTransactionService{
			createFn: func(_ uint, input services.TransactionInput) (*models.Transaction, error) {
				got = input
				return &models.Transaction{}, nil
			},
		}
		r := setupTransactionRouter(svc, &mockExportService{}, &mockAuditService{})

		rec := doRequest(r, "POST", "/transactions", `{"amount":5,"type":"income"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", rec.Code)
		}
		if !got.Date.IsZero() {
			t.Errorf("expected zero date, got %s", got.Date)
		}
	})

	t.Run("returns 400 on invalid payloads", func(t *testing.T) {
		r := setupTransactionRouter(&mockTransactionService{}, &mockExportService{}, &mockAuditService{})

		for _, body := range []string{
			`{"type":"expense"}`,
			`{"amount":5,"type":"investment"}`,
			`{"amount":5,"type":"expense","date":"15/03/2024"}`,
			`not json`,
		} {
			rec := doRequest(r, "POST", "/transactions", body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", body, rec.Code)
				continue
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		}
	})

	t.Run("passes service errors through", func(t *testing.T) {
		svc := &mockTransactionService{
			createFn: func(_ uint, _ services.TransactionInput) (*models.Transaction, error) {
				return nil, apperrors.ErrInvalidAmount
			},
		}
		r := setupTransactionRouter(svc, &mockExportService{}, &mockAuditService{})

		rec := doRequest(r, "POST", "/transactions", `{"amount":0,"type":"expense"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_AMOUNT")
	})

	t.Run("returns 401 without a user", func(t *testing.T) {
		r := setupTransactionRouter(&mockTransactionService{}, &mockExportService{}, &mockAuditService{})

		rec := doRequest(r, "POST", "/anonymous/transactions", `{"amount":5,"type":"income"}`)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_ListTransactions(t *testing.T) {
	var gotFilter services.TransactionFilter
	var gotPage pagination.PageRequest
	svc := &mockTransactionService{
		listFn: func(_ uint, filter services.TransactionFilter, page pagination.PageRequest) (*pagination.Page[models.Transaction], error) {
			gotFilter, gotPage = filter, page
			p := pagination.NewPage([]models.Transaction{{Description: "rent"}}, page, 11)
			return &p, nil
		},
	}
	r := setupTransactionRouter(svc, &mockExportService{}, &mockAuditService{})

	t.Run("parses filters and paging", func(t *testing.T) {
		rec := doRequest(r, "GET", "/transactions?page=2&page_size=10&from_date=2024-01-01&to_date=2024-01-31&type=expense&category_id=4&include_children=true&asset_id=2&search=rent", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotPage.Page != 2 || gotPage.PageSize != 10 {
			t.Errorf("unexpected page %+v", gotPage)
		}
		if gotFilter.FromDate == nil || gotFilter.ToDate == nil || gotFilter.ToDate.Day() != 31 {
			t.Errorf("expected date range, got %v %v", gotFilter.FromDate, gotFilter.ToDate)
		}
		if gotFilter.Type == nil || *gotFilter.Type != models.TransactionTypeExpense {
			t.Errorf("expected expense filter, got %v", gotFilter.Type)
		}
		if gotFilter.CategoryID == nil || *gotFilter.CategoryID != 4 || !gotFilter.IncludeChildren {
			t.Errorf("expected category 4 with children, got %+v", gotFilter)
		}
		if gotFilter.AssetID == nil || *gotFilter.AssetID != 2 || gotFilter.Search != "rent" {
			t.Errorf("unexpected filter %+v", gotFilter)
		}

		data := dataOf(t, rec)
		if data["total_items"] != float64(11) || data["total_pages"] != float64(2) {
			t.Errorf("unexpected page metadata %v", data)
		}
	})

	t.Run("rejects bad filters", func(t *testing.T) {
		for _, query := range []string{
			"?type=investment",
			"?from_date=yesterday",
			"?category_id=abc",
			"?include_children=maybe",
			"?page=-1",
			"?page_size=501",
		} {
			rec := doRequest(r, "GET", "/transactions"+query, "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", query, rec.Code)
			}
		}
	})
}

func TestTransactionHandler_ListMonthlyTransactions(t *testing.T) {
	var gotYear, gotMonth int
	svc := &mockTransactionService{
		listMonthlyFn: func(_ uint, year, month int) ([]models.Transaction, error) {
			gotYear, gotMonth = year, month
			return []models.Transaction{{}, {}}, nil
		},
	}
	r := setupTransactionRouter(svc, &mockExportService{}, &mockAuditService{})

	rec := doRequest(r, "GET", "/transactions/2024/2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotYear != 2024 || gotMonth != 2 {
		t.Errorf("expected 2024-02, got %d-%d", gotYear, gotMonth)
	}
	if data := parseJSON(t, rec)["data"].([]interface{}); len(data) != 2 {
		t.Errorf("expected 2 transactions, got %d", len(data))
	}

	rec = doRequest(r, "GET", "/transactions/2024/13", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for month 13, got %d", rec.Code)
	}
}

func TestTransactionHandler_UpdateTransaction(t *testing.T) {
	svc := &mockTransactionService{
		updateFn: func(_, id uint, input services.TransactionInput) (*models.Transaction, error) {
			if id == 9 {
				return nil, apperrors.ErrTransactionNotFound
			}
			return &models.Transaction{Base: models.Base{ID: id}, Amount: input.Amount, Type: input.Type}, nil
		},
	}
	r := setupTransactionRouter(svc, &mockExportService{}, &mockAuditService{})

	rec := doRequest(r, "PUT", "/transactions/3", `{"amount":"40","type":"income"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if data := dataOf(t, rec); data["type"] != "income" {
		t.Errorf("expected income, got %v", data["type"])
	}

	rec = doRequest(r, "PUT", "/transactions/9", `{"amount":"40","type":"income"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	assertErrorCode(t, parseJSON(t, rec), "TRANSACTION_NOT_FOUND")
}

func TestTransactionHandler_DeleteTransaction(t *testing.T) {
	svc := &mockTransactionService{
		deleteFn: func(_, id uint) error {
			if id == 9 {
				return apperrors.ErrTransactionNotFound
			}
			return nil
		},
	}
	audit := &mockAuditService{}
	r := setupTransactionRouter(svc, &mockExportService{}, audit)

	rec := doRequest(r, "DELETE", "/transactions/3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(audit.entries) != 1 || audit.entries[0].action != services.AuditDeleteTransaction || audit.entries[0].resourceID != 3 {
		t.Errorf("unexpected audit entries %+v", audit.entries)
	}

	rec = doRequest(r, "DELETE", "/transactions/9", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if len(audit.entries) != 1 {
		t.Errorf("failed delete must not be audited")
	}
}

func TestTransactionHandler_Stats(t *testing.T) {
	svc := &mockTransactionService{
		monthlyStatsFn: func(_ uint, year, month int) (*services.MonthlyStats, error) {
			return &services.MonthlyStats{
				Year:             year,
				Month:            month,
				TotalIncome:      decimal.NewFromInt(1000),
				TotalExpense:     decimal.NewFromInt(250),
				Net:              decimal.NewFromInt(750),
				TransactionCount: 4,
			}, nil
		},
		categoryStatsFn: func(_ uint, _, _ int) ([]services.CategoryStat, error) {
			return []services.CategoryStat{{CategoryName: "Food", Type: models.TransactionTypeExpense, Total: decimal.NewFromInt(250), Count: 2}}, nil
		},
	}
	r := setupTransactionRouter(svc, &mockExportService{}, &mockAuditService{})

	rec := doRequest(r, "GET", "/stats/2024/3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data := dataOf(t, rec)
	if data["net"] != float64(750) || data["transaction_count"] != float64(4) {
		t.Errorf("unexpected stats %v", data)
	}

	rec = doRequest(r, "GET", "/stats/2024/3/categories", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	rows := parseJSON(t, rec)["data"].([]interface{})
	if len(rows) != 1 || rows[0].(map[string]interface{})["category_name"] != "Food" {
		t.Errorf("unexpected category stats %v", rows)
	}

	rec = doRequest(r, "GET", "/stats/abc/3", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTransactionHandler_ExportTransactions(t *testing.T) {
	export := &mockExportService{
		exportFn: func(_ uint, year, month int) ([]byte, string, error) {
			return []byte("PK"), "transactions-2024-03.xlsx", nil
		},
	}
	r := setupTransactionRouter(&mockTransactionService{}, export, &mockAuditService{})

	rec := doRequest(r, "GET", "/export/transactions?year=2024&month=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); cd != `attachment; filename="transactions-2024-03.xlsx"` {
		t.Errorf("unexpected disposition %q", cd)
	}
	if rec.Body.String() != "PK" {
		t.Errorf("unexpected body %q", rec.Body.String())
	}

	rec = doRequest(r, "GET", "/export/transactions?year=2024", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without month, got %d", rec.Code)
	}
}
