package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/stockpilot/internal/config"
	"github.com/JonMunkholm/stockpilot/internal/core"
	"github.com/JonMunkholm/stockpilot/internal/store/sqlite"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{RequestTimeout: 10 * time.Second},
		Import:   config.ImportConfig{MaxFileSize: 1 << 20, Timeout: time.Minute},
		Security: config.SecurityConfig{EnableCSP: true},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	repo, err := sqlite.Open(context.Background(), sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	svc := core.NewService(repo, core.Options{ImportTimeout: cfg.Import.Timeout})
	require.NoError(t, svc.EnsureReady(context.Background()))

	srv := NewServer(svc, cfg)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func uploadCSV(t *testing.T, srv *Server, path, field, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, "products.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func product(name string, stock int) map[string]any {
	return map[string]any{"name": name, "unit": "pcs", "category": "Tools", "brand": "Acme", "stock": stock}
}

func createProduct(t *testing.T, srv *Server, name string, stock int) int64 {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/products", product(name, stock))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return int64(decode[map[string]any](t, rec)["id"].(float64))
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := do(t, srv, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := do(t, srv, http.MethodGet, "/products", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
}

func TestListProducts_BothMounts(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := do(t, srv, http.MethodGet, "/products", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	createProduct(t, srv, "Widget", 3)
	rec = do(t, srv, http.MethodPost, "/api/products", map[string]any{
		"name": "Ball", "unit": "pcs", "category": "Toys", "brand": "Acme", "stock": 0,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	for _, path := range []string{"/products", "/api/products"} {
		rec = do(t, srv, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		list := decode[[]map[string]any](t, rec)
		require.Len(t, list, 2, path)
		assert.Equal(t, "Ball", list[0]["name"], "newest first")
		assert.Equal(t, "Out of Stock", list[0]["status"])
		assert.Equal(t, "In Stock", list[1]["status"])
	}

	rec = do(t, srv, http.MethodGet, "/products?category=Toys", nil)
	list := decode[[]map[string]any](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Ball", list[0]["name"])

	rec = do(t, srv, http.MethodGet, "/products?category=all", nil)
	assert.Len(t, decode[[]map[string]any](t, rec), 2)
}

func TestSearchProducts(t *testing.T) {
	srv := newTestServer(t, testConfig())
	createProduct(t, srv, "Blue Widget", 1)
	createProduct(t, srv, "Gadget", 1)

	rec := do(t, srv, http.MethodGet, "/products/search?name=widget", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]map[string]any](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Blue Widget", list[0]["name"])

	rec = do(t, srv, http.MethodGet, "/products/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL003", decode[ErrorResponse](t, rec).Code)
}

func TestCreateProduct_Errors(t *testing.T) {
	srv := newTestServer(t, testConfig())
	createProduct(t, srv, "Widget", 1)

	rec := do(t, srv, http.MethodPost, "/products", product("WIDGET", 2))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONF001", decode[ErrorResponse](t, rec).Code)

	rec = do(t, srv, http.MethodPost, "/products", map[string]any{"name": "Gadget"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VAL001", decode[ErrorResponse](t, rec).Code)

	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	raw := httptest.NewRecorder()
	srv.Router().ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestGetProduct(t *testing.T) {
	srv := newTestServer(t, testConfig())
	id := createProduct(t, srv, "Widget", 1)

	rec := do(t, srv, http.MethodGet, fmt.Sprintf("/products/%d", id), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Widget", decode[map[string]any](t, rec)["name"])

	rec = do(t, srv, http.MethodGet, "/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, srv, http.MethodGet, "/products/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NF001", decode[ErrorResponse](t, rec).Code)
}

func TestUpdateProduct_LogsStockChange(t *testing.T) {
	srv := newTestServer(t, testConfig())
	id := createProduct(t, srv, "Widget", 5)
	path := fmt.Sprintf("/products/%d", id)

	rec := do(t, srv, http.MethodPut, path, product("Widget", 0))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Out of Stock", decode[map[string]any](t, rec)["status"])

	// Same stock: no new log entry.
	rec = do(t, srv, http.MethodPut, path, product("Widget", 0))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, srv, http.MethodGet, path+"/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	logs := decode[[]map[string]any](t, rec)
	require.Len(t, logs, 1)
	assert.EqualValues(t, 5, logs[0]["oldStock"])
	assert.EqualValues(t, 0, logs[0]["newStock"])
	assert.Equal(t, "admin", logs[0]["changedBy"])

	rec = do(t, srv, http.MethodPut, "/products/999", product("Gizmo", 1))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	createProduct(t, srv, "Gadget", 1)
	rec = do(t, srv, http.MethodPut, path, product("gadget", 1))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDeleteProduct(t *testing.T) {
	srv := newTestServer(t, testConfig())
	id := createProduct(t, srv, "Widget", 5)
	path := fmt.Sprintf("/api/products/%d", id)

	rec := do(t, srv, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Product deleted successfully"}`, rec.Body.String())

	rec = do(t, srv, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestImport_MultipartCSV(t *testing.T) {
	srv := newTestServer(t, testConfig())
	createProduct(t, srv, "Widget", 1)

	csvData := "name,unit,category,brand,stock\n" +
		"widget,pcs,Tools,Acme,3\n" +
		"Gadget,pcs,Tools,Acme,4\n" +
		"Gizmo,box,Tools,Acme,0\n"

	rec := uploadCSV(t, srv, "/products/import", "file", csvData)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	result := decode[core.ImportResult](t, rec)
	assert.Equal(t, 2, result.Added)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Duplicates, 1)
	assert.Equal(t, "widget", result.Duplicates[0].Name)
	assert.NotEmpty(t, result.BatchID)

	rec = do(t, srv, http.MethodGet, "/products", nil)
	assert.Len(t, decode[[]map[string]any](t, rec), 3)
}

func TestImport_JSONArray(t *testing.T) {
	srv := newTestServer(t, testConfig())

	rec := do(t, srv, http.MethodPost, "/api/products/import", []map[string]any{
		{"name": "Widget", "unit": "pcs", "category": "Tools", "brand": "Acme", "stock": "7"},
		{"name": "Gadget", "unit": "pcs", "category": "Tools", "brand": "Acme", "stock": 2},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decode[core.ImportResult](t, rec)
	assert.Equal(t, 2, result.Added)
	assert.Empty(t, result.Duplicates)
}

func TestImport_Errors(t *testing.T) {
	cfg := testConfig()
	cfg.Import.MaxFileSize = 4096
	srv := newTestServer(t, cfg)

	tests := []struct {
		name     string
		send     func() *httptest.ResponseRecorder
		wantCode string
	}{
		{
			name:     "wrong form field",
			send:     func() *httptest.ResponseRecorder { return uploadCSV(t, srv, "/products/import", "upload", "name\nx\n") },
			wantCode: "FILE003",
		},
		{
			name:     "no body",
			send:     func() *httptest.ResponseRecorder { return do(t, srv, http.MethodPost, "/products/import", nil) },
			wantCode: "FILE003",
		},
		{
			name:     "empty batch",
			send:     func() *httptest.ResponseRecorder { return do(t, srv, http.MethodPost, "/products/import", []any{}) },
			wantCode: "VAL002",
		},
		{
			name: "too large",
			send: func() *httptest.ResponseRecorder {
				return uploadCSV(t, srv, "/products/import", "file", "name\n"+strings.Repeat("x", 8192)+"\n")
			},
			wantCode: "FILE001",
		},
		{
			name: "malformed csv",
			send: func() *httptest.ResponseRecorder {
				return uploadCSV(t, srv, "/products/import", "file", "name,stock\n\"Widget,1\n")
			},
			wantCode: "FILE002",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.send()
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestExport(t *testing.T) {
	srv := newTestServer(t, testConfig())
	createProduct(t, srv, "Widget", 5)

	rec := do(t, srv, http.MethodGet, "/products/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "products-export-")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "id,name,unit,category,brand,stock,status,imageUrl", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "1,Widget,pcs,Tools,Acme,5,In Stock,"), lines[1])
}

func TestImport_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1000, ImportLimit: 1}
	srv := newTestServer(t, cfg)

	rec := do(t, srv, http.MethodPost, "/products/import", []map[string]any{product("Widget", 1)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodPost, "/products/import", []map[string]any{product("Gadget", 1)})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE001", decode[ErrorResponse](t, rec).Code)

	// Other routes draw from the general budget.
	rec = do(t, srv, http.MethodGet, "/products", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&core.ValidationError{Message: "x"}, http.StatusBadRequest},
		{&core.NotFoundError{Resource: "product", ID: 1}, http.StatusNotFound},
		{fmt.Errorf("update: %w", &core.ConflictError{Name: "x"}), http.StatusConflict},
		{errRateLimited, http.StatusTooManyRequests},
		{core.ErrImportsBusy, http.StatusTooManyRequests},
		{&core.StorageError{Op: "list", Err: context.Canceled}, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
