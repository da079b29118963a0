package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/sidhync-maker/workshop/internal/adapters/db/sqlite"
	workshophttp "github.com/sidhync-maker/workshop/internal/adapters/http"
	"github.com/sidhync-maker/workshop/internal/application"
	"github.com/sidhync-maker/workshop/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testApp struct {
	db      *gorm.DB
	service *application.WorkshopService
	handler http.Handler
}

func newTestApp(t *testing.T) testApp {
	t.Helper()
	ctx := context.Background()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "workshop_http.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := sqlite.RunMigrations(ctx, db); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	svc := application.NewWorkshopService(sqlite.NewWorkshopRepository(db), application.NewSessionStore(0))
	require.NoError(t, svc.BootstrapManager(ctx, "manager", "admin123"))
	_, ok, err := svc.CreateUser(ctx, "alice", "wrench", domain.RoleMechanic)
	require.NoError(t, err)
	require.True(t, ok)

	return testApp{db: db, service: svc, handler: workshophttp.NewRouter(svc)}
}

func (a testApp) token(t *testing.T, username, password string) string {
	t.Helper()
	sess, err := a.service.Login(context.Background(), username, password)
	require.NoError(t, err)
	return sess.Token
}

func (a testApp) do(t *testing.T, method, path, token string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "workshop_session", Value: token})
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a testApp) api(t *testing.T, method, path, token string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func TestUnauthenticatedRequests(t *testing.T) {
	app := newTestApp(t)

	rec := app.do(t, http.MethodGet, "/home", "", nil, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = app.api(t, http.MethodGet, "/api/stock", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(t, http.MethodGet, "/login", "", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Workshop login")
}

func TestLoginFormSetsSessionCookie(t *testing.T) {
	app := newTestApp(t)

	form := url.Values{"username": {"manager"}, "password": {"admin123"}}
	rec := app.do(t, http.MethodPost, "/login", "", []byte(form.Encode()), "application/x-www-form-urlencoded")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/home", rec.Header().Get("Location"))

	var token string
	for _, c := range rec.Result().Cookies() {
		if c.Name == "workshop_session" {
			token = c.Value
		}
	}
	require.NotEmpty(t, token)

	rec = app.do(t, http.MethodGet, "/home", token, nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome, manager")

	rec = app.do(t, http.MethodPost, "/logout", token, nil, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	rec = app.do(t, http.MethodGet, "/home", token, nil, "")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	bad := url.Values{"username": {"manager"}, "password": {"wrong"}}
	rec = app.do(t, http.MethodPost, "/login", "", []byte(bad.Encode()), "application/x-www-form-urlencoded")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
}

func TestMechanicPageAccess(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, "alice", "wrench")

	for _, path := range []string{"/purchases", "/stock", "/billing", "/car-models", "/data", "/users", "/export/stock.csv"} {
		rec := app.do(t, http.MethodGet, path, token, nil, "")
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
	}
	for _, path := range []string{"/home", "/mechanics"} {
		rec := app.do(t, http.MethodGet, path, token, nil, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := app.do(t, http.MethodGet, "/home", token, nil, "")
	assert.NotContains(t, rec.Body.String(), `href="/purchases"`)
	assert.Contains(t, rec.Body.String(), `href="/mechanics"`)
}

func TestManagerSeesEveryPage(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, "manager", "admin123")

	for _, path := range []string{"/home", "/purchases", "/stock", "/billing", "/mechanics", "/car-models", "/data", "/users"} {
		rec := app.do(t, http.MethodGet, path, token, nil, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestAddPurchaseCommandRendersFragments(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, "manager", "admin123")

	signals := []byte(`{"itemCode":"BRK01","itemName":"Brake pad","qty":"4","rate":250}`)
	rec := app.do(t, http.MethodPost, "/commands/purchases", token, signals, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `id="flash"`)
	assert.Contains(t, body, `id="purchases-table"`)
	assert.Contains(t, body, "1000.00")

	rec = app.do(t, http.MethodPost, "/commands/purchases", token, []byte(`{"itemCode":"BRK01","itemName":"Brake pad","qty":"0","rate":"1"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "qty must be at least 1")

	rec = app.do(t, http.MethodPost, "/commands/purchases", token, []byte(`{"itemCode":"X","itemName":"Y","qty":"two","rate":"1"}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// failReads makes every SELECT against table fail while writes still succeed.
func (a testApp) failReads(t *testing.T, table string) {
	t.Helper()
	name := "test:fail_reads_" + table
	err := a.db.Callback().Query().Before("gorm:query").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errors.New("read failed"))
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.db.Callback().Query().Remove(name) })
}

func TestCommandsStillReportSavedRowWhenRelistFails(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, "manager", "admin123")

	app.failReads(t, "purchases")
	rec := app.do(t, http.MethodPost, "/commands/purchases", token,
		[]byte(`{"itemCode":"BRK01","itemName":"Brake pad","qty":"4","rate":"250"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Purchase #1 saved")
	assert.Contains(t, rec.Body.String(), "No purchases yet.")

	app.failReads(t, "car_models")
	rec = app.do(t, http.MethodPost, "/commands/car-models", token, []byte(`{"carModel":"Sedan X"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Added car model Sedan X")
	assert.Contains(t, rec.Body.String(), "No car models yet.")

	app.failReads(t, "billing")
	rec = app.do(t, http.MethodPost, "/commands/billing", token,
		[]byte(`{"billCarModel":"Sedan X","billLabour":"100","billPurchaseIds":[]}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Bill #1 saved")
	assert.Contains(t, rec.Body.String(), "No bills yet.")
}

func TestBillingPreviewAndSave(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()
	token := app.token(t, "manager", "admin123")

	p, err := app.service.AddPurchase(ctx, "BRK01", "Brake pad", 4, 250)
	require.NoError(t, err)

	signals, err := json.Marshal(map[string]any{
		"billCarModel":    "Sedan X",
		"billComplaints":  "noise",
		"billStartDate":   "2024-05-01",
		"billEndDate":     "2024-05-02",
		"billLabour":      "500",
		"billPurchaseIds": []string{strconv.FormatUint(uint64(p.ID), 10)},
	})
	require.NoError(t, err)

	rec := app.do(t, http.MethodPost, "/queries/billing/preview", token, signals, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1500.00")

	rec = app.do(t, http.MethodPost, "/commands/billing", token, signals, "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="bill-receipt"`)
	assert.Contains(t, rec.Body.String(), `id="billing-table"`)

	bills, err := app.service.ListBilling(ctx)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, 1500.0, bills[0].Total)
	assert.Equal(t, 1000.0, bills[0].PurchaseAmt)
}

func TestCreateUserCommandReportsDuplicate(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, "manager", "admin123")

	rec := app.do(t, http.MethodPost, "/commands/users", token, []byte(`{"newUsername":"bob","newPassword":"pw","newRole":"mechanic"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "users-table")

	rec = app.do(t, http.MethodPost, "/commands/users", token, []byte(`{"newUsername":"bob","newPassword":"pw2","newRole":"manager"}`), "application/json")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")
}

func TestCarModelCommandIsIdempotent(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, "manager", "admin123")

	for i := 0; i < 2; i++ {
		rec := app.do(t, http.MethodPost, "/commands/car-models", token, []byte(`{"carModel":"Sedan X"}`), "application/json")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	models, err := app.service.ListCarModels(context.Background())
	require.NoError(t, err)
	assert.Len(t, models, 1)
}

func TestMechanicCommandWritesOwnEntryOnly(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, "alice", "wrench")

	rec := app.do(t, http.MethodPost, "/commands/mechanics", token, []byte(`{"mechUsername":"","mechWorkDate":"2024-05-01","mechActivity":"Oil change","mechEarning":"300"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mechanics-table")
	assert.NotContains(t, rec.Body.String(), "earnings-table")

	rec = app.do(t, http.MethodPost, "/commands/mechanics", token, []byte(`{"mechUsername":"bob","mechWorkDate":"2024-05-01","mechActivity":"x","mechEarning":"1"}`), "application/json")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	entries, err := app.service.ListMechanicEntries(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Username)
}

func TestExportAndImportCSV(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, "manager", "admin123")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "purchases.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("item_code,item_name,qty,rate\nBRK01,Brake pad,4,250\nBRK01,Brake pad,6,240\nOIL5,Oil,x,1\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rec := app.do(t, http.MethodPost, "/import/purchases", token, buf.Bytes(), mw.FormDataContentType())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "imported 2 row(s), 1 failed")

	rec = app.do(t, http.MethodGet, "/export/stock.csv", token, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "stock.csv")
	assert.Equal(t, "id,item_code,item_name,qty\n1,BRK01,Brake pad,10\n", rec.Body.String())

	rec = app.do(t, http.MethodGet, "/export/users.csv", token, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = app.do(t, http.MethodGet, "/export/stock", token, nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPIPurchaseFlow(t *testing.T) {
	app := newTestApp(t)

	rec := app.api(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "manager", "password": "admin123"})
	require.Equal(t, http.StatusOK, rec.Code)
	var sess application.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	require.NotEmpty(t, sess.Token)
	assert.Equal(t, domain.RoleManager, sess.Role)

	rec = app.api(t, http.MethodPost, "/api/purchases", sess.Token, map[string]any{"item_code": "BRK01", "item_name": "Brake pad", "qty": 4, "rate": 250})
	require.Equal(t, http.StatusCreated, rec.Code)
	var p domain.Purchase
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, 1000.0, p.Total)

	rec = app.api(t, http.MethodGet, "/api/stock", sess.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stock []domain.StockItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stock))
	require.Len(t, stock, 1)
	assert.Equal(t, 4, stock[0].Qty)

	rec = app.api(t, http.MethodPost, "/api/billing", sess.Token, map[string]any{"car_model": "Sedan X", "labour": 500, "purchase_ids": []uint{p.ID}})
	require.Equal(t, http.StatusCreated, rec.Code)
	var b domain.Billing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
	assert.Equal(t, 1500.0, b.Total)

	rec = app.api(t, http.MethodPost, "/api/purchases", sess.Token, map[string]any{"item_code": "BRK01", "item_name": "Brake pad", "qty": 0, "rate": 250})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.api(t, http.MethodPost, "/api/auth/logout", sess.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = app.api(t, http.MethodGet, "/api/stock", sess.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPIMechanicRestrictions(t *testing.T) {
	app := newTestApp(t)
	alice := app.token(t, "alice", "wrench")
	manager := app.token(t, "manager", "admin123")

	rec := app.api(t, http.MethodPost, "/api/mechanics", alice, map[string]any{"work_date": "2024-05-01", "activity": "Oil change", "earning": 300})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.api(t, http.MethodPost, "/api/mechanics", alice, map[string]any{"username": "bob", "activity": "x", "earning": 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.api(t, http.MethodPost, "/api/mechanics", manager, map[string]any{"username": "bob", "work_date": "2024-05-02", "activity": "Tyres", "earning": 150})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = app.api(t, http.MethodGet, "/api/mechanics?username=bob", alice, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var own []domain.MechanicEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &own))
	require.Len(t, own, 1)
	assert.Equal(t, "alice", own[0].Username)

	rec = app.api(t, http.MethodGet, "/api/mechanics/earnings", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = app.api(t, http.MethodGet, "/api/mechanics/earnings", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var earnings []domain.MechanicEarning
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &earnings))
	require.Len(t, earnings, 2)
	assert.Equal(t, "alice", earnings[0].Username)
	assert.Equal(t, 300.0, earnings[0].TotalEarning)

	rec = app.api(t, http.MethodGet, "/api/purchases", alice, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAPIUsersAndCarModels(t *testing.T) {
	app := newTestApp(t)
	token := app.token(t, "manager", "admin123")

	rec := app.api(t, http.MethodPost, "/api/users", token, map[string]string{"username": "alice", "password": "x", "role": "mechanic"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = app.api(t, http.MethodPost, "/api/users", token, map[string]string{"username": "carol", "password": "x", "role": "boss"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = app.api(t, http.MethodPost, "/api/car-models", token, map[string]string{"model": "Sedan X"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"inserted":true`)
	rec = app.api(t, http.MethodPost, "/api/car-models", token, map[string]string{"model": "Sedan X"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"inserted":false`)

	rec = app.api(t, http.MethodGet, "/api/export/car-models", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "id,model\n1,Sedan X\n", rec.Body.String())
}
