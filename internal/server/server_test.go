package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"fintrack/internal/config"
	"fintrack/internal/logger"
	"fintrack/internal/models"
	"fintrack/internal/testutil"
	"fintrack/internal/validator"
)

// testApp holds the full application stack over an isolated SQLite database.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
	config.Set(&config.Config{JWTSecret: "server-test-secret", JWTExpirationDur: time.Hour})
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })
	return &testApp{DB: db, Router: NewRouter(NewServices(db), Options{})}
}

func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result), rec.Body.String())
	return result
}

// data asserts the success envelope and returns its data object.
func data(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	result := parseJSON(t, rec)
	require.Equal(t, true, result["success"], rec.Body.String())
	d, ok := result["data"].(map[string]interface{})
	require.True(t, ok, "expected data object in %s", rec.Body.String())
	return d
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	result := parseJSON(t, rec)
	require.Equal(t, false, result["success"], rec.Body.String())
	code, _ := result["code"].(string)
	return code
}

// registerUser registers a user and returns the token and user id.
func (app *testApp) registerUser(t *testing.T, username string) (string, uint) {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"email":%q,"password":"secret1"}`, username, username+"@example.com")
	rec := app.request("POST", "/api/auth/register", body, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	d := data(t, rec)
	user := d["user"].(map[string]interface{})
	return d["token"].(string), uint(user["id"].(float64))
}

func (app *testApp) createID(t *testing.T, path, body, token string) uint {
	t.Helper()
	rec := app.request("POST", path, body, token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return uint(data(t, rec)["id"].(float64))
}

func TestHealth(t *testing.T) {
	app := setupApp(t)
	rec := app.request("GET", "/api/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	app := setupApp(t)

	rec := app.request("POST", "/api/auth/register", `{"username":"short","email":"short@example.com","password":"12345"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "PASSWORD_TOO_SHORT", errorCode(t, rec))

	token, userID := app.registerUser(t, "alice")
	assert.NotZero(t, userID)

	rec = app.request("POST", "/api/auth/register", `{"username":"alice","email":"other@example.com","password":"secret1"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "DUPLICATE_USERNAME", errorCode(t, rec))

	rec = app.request("POST", "/api/auth/login", `{"username":"alice","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, data(t, rec)["token"])

	wrongPassword := app.request("POST", "/api/auth/login", `{"username":"alice","password":"nope123"}`, "")
	unknownUser := app.request("POST", "/api/auth/login", `{"username":"nobody","password":"nope123"}`, "")
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownUser.Body.String())

	rec = app.request("GET", "/api/auth/profile", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "alice", data(t, rec)["username"])

	rec = app.request("GET", "/api/auth/profile", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.request("GET", "/api/auth/profile", "", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.request("PUT", "/api/auth/change-password", `{"current_password":"secret1","new_password":"secret2"}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = app.request("POST", "/api/auth/login", `{"username":"alice","password":"secret2"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.request("GET", "/api/auth/activity", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	entries := parseJSON(t, rec)["data"].([]interface{})
	require.Len(t, entries, 1)
	assert.Equal(t, "CHANGE_PASSWORD", entries[0].(map[string]interface{})["action"])
}

func TestBalanceFlow(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "alice")

	assetID := app.createID(t, "/api/assets", `{"name":"Wallet","asset_type_id":1}`, token)

	rec := app.request("POST", "/api/balance/initial", `{"amount":1000}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	current := func() float64 {
		t.Helper()
		rec := app.request("GET", "/api/balance/total", "", token)
		require.Equal(t, http.StatusOK, rec.Code)
		return data(t, rec)["current_balance"].(float64)
	}
	assetAmount := func() float64 {
		t.Helper()
		rec := app.request("GET", fmt.Sprintf("/api/assets/%d", assetID), "", token)
		require.Equal(t, http.StatusOK, rec.Code)
		return data(t, rec)["amount"].(float64)
	}

	assert.Equal(t, float64(1000), current())

	app.createID(t, "/api/transactions", fmt.Sprintf(`{"amount":500,"type":"income","date":"2024-03-01","asset_id":%d}`, assetID), token)
	assert.Equal(t, float64(1500), current())
	assert.Equal(t, float64(500), assetAmount())

	expenseID := app.createID(t, "/api/transactions", fmt.Sprintf(`{"amount":700,"type":"expense","date":"2024-03-05","asset_id":%d}`, assetID), token)
	assert.Equal(t, float64(800), current())
	assert.Equal(t, float64(-200), assetAmount())

	rec = app.request("PUT", fmt.Sprintf("/api/transactions/%d", expenseID), fmt.Sprintf(`{"amount":500,"type":"expense","date":"2024-03-05","asset_id":%d}`, assetID), token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1000), current())
	assert.Equal(t, float64(0), assetAmount())

	// transfers never move the balance
	app.createID(t, "/api/transactions", fmt.Sprintf(`{"amount":250,"type":"transfer","date":"2024-03-06","asset_id":%d}`, assetID), token)
	assert.Equal(t, float64(1000), current())
	assert.Equal(t, float64(0), assetAmount())

	rec = app.request("DELETE", fmt.Sprintf("/api/transactions/%d", expenseID), "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1500), current())
	assert.Equal(t, float64(500), assetAmount())

	rec = app.request("GET", "/api/stats/2024/3", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := data(t, rec)
	assert.Equal(t, float64(500), stats["total_income"])
	assert.Equal(t, float64(0), stats["total_expense"])

	rec = app.request("GET", "/api/transactions/2024/3", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, parseJSON(t, rec)["data"], 2)

	rec = app.request("GET", "/api/export/transactions?year=2024&month=3", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
}

func TestTransactionIsolation(t *testing.T) {
	app := setupApp(t)
	alice, _ := app.registerUser(t, "alice")
	bob, _ := app.registerUser(t, "bob")

	bobAsset := app.createID(t, "/api/assets", `{"name":"Bob wallet","asset_type_id":1}`, bob)
	txID := app.createID(t, "/api/transactions", `{"amount":10,"type":"expense"}`, alice)

	rec := app.request("DELETE", fmt.Sprintf("/api/transactions/%d", txID), "", bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.request("POST", "/api/transactions", fmt.Sprintf(`{"amount":10,"type":"income","asset_id":%d}`, bobAsset), alice)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ASSET_NOT_FOUND", errorCode(t, rec))

	rec = app.request("POST", "/api/transactions", `{"amount":-5,"type":"income"}`, alice)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_AMOUNT", errorCode(t, rec))

	rec = app.request("GET", "/api/transactions", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCategoryFlow(t *testing.T) {
	app := setupApp(t)
	food := testutil.CreateTestCategory(t, app.DB, nil, "Food", models.CategoryTypeExpense, nil).ID
	testutil.CreateTestCategory(t, app.DB, nil, "Salary", models.CategoryTypeIncome, nil)
	token, _ := app.registerUser(t, "alice")
	other, _ := app.registerUser(t, "bob")

	// anonymous callers see globals only
	rec := app.request("GET", "/api/categories", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, parseJSON(t, rec)["data"], 2)

	groceries := app.createID(t, "/api/categories", fmt.Sprintf(`{"name":"Groceries","type":"expense","parent_id":%d}`, food), token)

	rec = app.request("POST", "/api/categories", fmt.Sprintf(`{"name":"Refunds","type":"income","parent_id":%d}`, food), token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CATEGORY_TYPE_MISMATCH", errorCode(t, rec))

	organic := app.createID(t, "/api/categories", fmt.Sprintf(`{"name":"Organic","type":"expense","parent_id":%d}`, groceries), token)
	rec = app.request("POST", "/api/categories", fmt.Sprintf(`{"name":"Too deep","type":"expense","parent_id":%d}`, organic), token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "CATEGORY_TOO_DEEP", errorCode(t, rec))

	rec = app.request("PUT", fmt.Sprintf("/api/categories/%d", groceries), fmt.Sprintf(`{"parent_id":%d}`, groceries), token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "SELF_PARENT_CATEGORY", errorCode(t, rec))

	rec = app.request("GET", "/api/categories", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, parseJSON(t, rec)["data"], 4)

	rec = app.request("GET", "/api/categories/expense", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, parseJSON(t, rec)["data"], 1)

	rec = app.request("GET", "/api/categories?tree=true&type=expense", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	roots := parseJSON(t, rec)["data"].([]interface{})
	require.Len(t, roots, 1)
	assert.Len(t, roots[0].(map[string]interface{})["children"], 1)

	// bob cannot see or change alice's category
	rec = app.request("GET", fmt.Sprintf("/api/categories/%d", groceries), "", other)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = app.request("DELETE", fmt.Sprintf("/api/categories/%d", groceries), "", other)
	assert.NotEqual(t, http.StatusOK, rec.Code)

	txID := app.createID(t, "/api/transactions", fmt.Sprintf(`{"amount":12.5,"type":"expense","category_id":%d}`, groceries), token)

	rec = app.request("GET", fmt.Sprintf("/api/categories/%d/usage", groceries), "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), data(t, rec)["total_count"])

	rec = app.request("GET", fmt.Sprintf("/api/transactions?category_id=%d&include_children=true", food), "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), data(t, rec)["total_items"])

	rec = app.request("DELETE", fmt.Sprintf("/api/categories/%d", groceries), "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	var tx models.Transaction
	require.NoError(t, app.DB.First(&tx, txID).Error)
	assert.Nil(t, tx.CategoryID, "deleting a category clears the reference")
}

func TestMemoFlow(t *testing.T) {
	app := setupApp(t)
	alice, _ := app.registerUser(t, "alice")
	bob, _ := app.registerUser(t, "bob")

	private := app.createID(t, "/api/memos", `{"title":"Pay rent","date":"2024-04-01"}`, alice)
	public := app.createID(t, "/api/memos", `{"title":"Team dinner","date":"2024-04-02","visibility":"public"}`, alice)

	rec := app.request("GET", "/api/memos?year=2024&month=4", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, parseJSON(t, rec)["data"], 1, "anonymous callers only see public memos")

	rec = app.request("GET", "/api/memos?year=2024&month=4", "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, parseJSON(t, rec)["data"], 2)

	rec = app.request("GET", fmt.Sprintf("/api/memos/%d", private), "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = app.request("GET", fmt.Sprintf("/api/memos/%d", public), "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = app.request("PUT", fmt.Sprintf("/api/memos/%d", public), `{"title":"Hijacked"}`, bob)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = app.request("DELETE", fmt.Sprintf("/api/memos/%d", private), "", bob)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = app.request("PATCH", fmt.Sprintf("/api/memos/%d/toggle", private), "", alice)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, data(t, rec)["is_completed"])

	rec = app.request("POST", "/api/memos", `{"title":"x"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAssetTypeFlow(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "alice")

	rec := app.request("GET", "/api/asset-types", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, parseJSON(t, rec)["data"], len(models.DefaultAssetTypes()))

	rec = app.request("DELETE", "/api/asset-types/1", "", token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "DEFAULT_ASSET_TYPE_IMMUTABLE", errorCode(t, rec))

	crypto := app.createID(t, "/api/asset-types", `{"name":"Crypto","color":"#f7931a"}`, token)
	rec = app.request("POST", "/api/asset-types", `{"name":"crypto"}`, token)
	assert.Equal(t, http.StatusConflict, rec.Code)

	assetID := app.createID(t, "/api/assets", fmt.Sprintf(`{"name":"Cold wallet","asset_type_id":%d,"amount":"0.5"}`, crypto), token)
	rec = app.request("DELETE", fmt.Sprintf("/api/assets/%d", assetID), "", token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = app.request("DELETE", fmt.Sprintf("/api/asset-types/%d", crypto), "", token)
	assert.Equal(t, http.StatusConflict, rec.Code, "soft-deleted assets keep the type in use")
	assert.Equal(t, "ASSET_TYPE_IN_USE", errorCode(t, rec))

	rec = app.request("GET", "/api/assets/summary", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), data(t, rec)["count"])
}
