package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardicon/boardicon-server/internal/assets"
	"github.com/boardicon/boardicon-server/internal/registry"
	"github.com/boardicon/boardicon-server/internal/service"
	"github.com/boardicon/boardicon-server/internal/sse"
	"github.com/boardicon/boardicon-server/internal/staging"
	"github.com/boardicon/boardicon-server/internal/store/sqlite"
	"github.com/boardicon/boardicon-server/internal/stylesheet"
	"github.com/boardicon/boardicon-server/internal/upload"
)

const testToken = "form0123456789abcdef"

// testServer wraps the API server with the pieces tests inspect.
type testServer struct {
	*Server
	api  humatest.TestAPI
	base string
}

func setupTestServer(t *testing.T, mutate ...func(*Options)) *testServer {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	base := t.TempDir()

	db, err := sqlite.Open(filepath.Join(base, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	assetStore, err := assets.New(base, "/", logger)
	require.NoError(t, err)

	slots, err := staging.OpenInMemoryBadger(logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = slots.Close() })
	tracker := staging.NewTracker(slots, logger)

	sseManager := sse.NewManager(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go sseManager.Start(ctx)
	t.Cleanup(func() {
		cancel()
		_ = sseManager.Shutdown(context.Background())
	})

	stylesheetPath := filepath.Join(base, "style", "boardIcon.less")
	reg := registry.New(db, assetStore)
	assembler := stylesheet.NewAssembler(stylesheetPath, db, reg, stylesheet.Selectors{}, logger)
	assembler.AddNotifier(sseManager.StylesheetNotifier(stylesheetRoute))
	styles := service.NewStylesheetService(assembler, logger)
	_, err = styles.Regenerate(context.Background())
	require.NoError(t, err)

	services := &Services{
		Icons:      service.NewIconService(db, assetStore, tracker, reg, styles, sseManager, upload.Config{}, logger),
		Boards:     service.NewBoardService(db, reg, styles, sseManager, logger),
		Stylesheet: styles,
	}

	opts := Options{
		IconDir:          assetStore.Dir(),
		StylesheetPath:   stylesheetPath,
		UploadsPerMinute: 100,
	}
	for _, m := range mutate {
		m(&opts)
	}

	s := NewServer(services, db, sseManager, opts, logger)
	t.Cleanup(s.Close)

	return &testServer{Server: s, api: humatest.Wrap(t, s.api), base: base}
}

func decodeJSON[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), "body: %s", body)
	return v
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 3), G: 120, B: uint8(y * 3), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type part struct {
	name string
	data []byte
}

// postMultipart sends fields and files (all under the icon field) to path.
func (ts *testServer) postMultipart(t *testing.T, path string, fields map[string]string, files ...part) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	for _, f := range files {
		w, err := writer.CreateFormFile(uploadFileField, f.name)
		require.NoError(t, err)
		_, err = w.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.RemoteAddr = "198.51.100.4:5123"
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) stylesheet(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(ts.opts.StylesheetPath)
	require.NoError(t, err)
	return string(data)
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decodeJSON[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "healthy", health.Components["database"].Status)
	assert.Equal(t, "healthy", health.Components["stylesheet"].Status)
	assert.Equal(t, "0 client(s) connected", health.Components["sse"].Message)
}

func TestHealthCheck_StaleStylesheetIsDegraded(t *testing.T) {
	ts := setupTestServer(t)
	require.NoError(t, os.WriteFile(ts.opts.StylesheetPath, []byte("/* edited */"), 0o644))

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	health := decodeJSON[HealthResponse](t, resp.Body.Bytes())
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "degraded", health.Components["stylesheet"].Status)
}

func TestCORS(t *testing.T) {
	ts := setupTestServer(t, func(o *Options) {
		o.AllowedOrigins = []string{"https://admin.example.com"}
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/icons", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)

	assert.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusToCode(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusBadRequest, "VALIDATION"},
		{http.StatusUnprocessableEntity, "VALIDATION"},
		{http.StatusNotFound, "NOT_FOUND"},
		{http.StatusConflict, "CONFLICT"},
		{http.StatusServiceUnavailable, "UPLOAD_FAILED"},
		{http.StatusTeapot, "INTERNAL"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, statusToCode(tt.status), "status %d", tt.status)
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "10.0.0.2:80", "203.0.113.9"},
		{"real ip", map[string]string{"X-Real-IP": "203.0.113.10"}, "10.0.0.2:80", "203.0.113.10"},
		{"remote addr", nil, "198.51.100.4:5123", "198.51.100.4"},
		{"ipv6 remote addr", nil, "[2001:db8::1]:443", "2001:db8::1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}
