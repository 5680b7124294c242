package api

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boardicon/boardicon-server/internal/http/response"
)

type uploadEnvelope struct {
	Data    UploadResponse `json:"data"`
	Details any            `json:"details"`
	Code    string         `json:"code"`
	Error   string         `json:"error"`
	Success bool           `json:"success"`
}

// createIcon stages a 48x48 PNG and submits the add-icon form.
func (ts *testServer) createIcon(t *testing.T, title string) IconResponse {
	t.Helper()
	rec := ts.postMultipart(t, "/api/v1/icons/upload", map[string]string{uploadTokenField: testToken},
		part{name: "star.png", data: pngBytes(t, 48, 48)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := ts.api.Post("/api/v1/icons", map[string]any{"title": title, "tmp_hash": testToken})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	return decodeJSON[IconResponse](t, resp.Body.Bytes())
}

func TestFormToken(t *testing.T) {
	ts := setupTestServer(t)

	first := decodeJSON[map[string]string](t, ts.api.Get("/api/v1/icons/form-token").Body.Bytes())
	second := decodeJSON[map[string]string](t, ts.api.Get("/api/v1/icons/form-token").Body.Bytes())

	assert.Len(t, first["tmp_hash"], 40)
	assert.NotEqual(t, first["tmp_hash"], second["tmp_hash"])
}

func TestIconLifecycle(t *testing.T) {
	ts := setupTestServer(t)

	icon := ts.createIcon(t, "  Star  ")
	assert.Equal(t, "Star", icon.Title)
	assert.Equal(t, "icon"+strconv.FormatInt(icon.ID, 10), icon.Reference)
	assert.Equal(t, "png", icon.Extension)
	assert.True(t, strings.HasPrefix(icon.URL, "/icon/board/"+strconv.FormatInt(icon.ID, 10)+"-"), icon.URL)

	// The permanent file is served.
	req := httptest.NewRequest(http.MethodGet, icon.URL, nil)
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, CacheOneWeek, rec.Header().Get("Cache-Control"))

	list := decodeJSON[struct {
		Icons []IconResponse `json:"icons"`
	}](t, ts.api.Get("/api/v1/icons").Body.Bytes())
	require.Len(t, list.Icons, 1)
	assert.Equal(t, icon.ID, list.Icons[0].ID)

	id := strconv.FormatInt(icon.ID, 10)
	resp := ts.api.Patch("/api/v1/icons/"+id, map[string]any{"title": "Gold star"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "Gold star", decodeJSON[IconResponse](t, resp.Body.Bytes()).Title)

	resp = ts.api.Delete("/api/v1/icons/" + id)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Get("/api/v1/icons/" + id)
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "NOT_FOUND", decodeJSON[APIError](t, resp.Body.Bytes()).Code)
}

func TestCreateIcon_Validation(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/icons", map[string]any{"title": "", "tmp_hash": testToken})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	apiErr := decodeJSON[APIError](t, resp.Body.Bytes())
	assert.Equal(t, "VALIDATION", apiErr.Code)
	details, ok := apiErr.Details.(map[string]any)
	require.True(t, ok, "details: %#v", apiErr.Details)
	assert.Contains(t, details, "title")
}

func TestCreateIcon_WithoutUpload(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Post("/api/v1/icons", map[string]any{"title": "Star", "tmp_hash": testToken})
	require.Equal(t, http.StatusBadRequest, resp.Code)

	details, ok := decodeJSON[APIError](t, resp.Body.Bytes()).Details.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "icon")
}

func TestUploadIcon_Rejections(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name   string
		files  []part
		reason string
	}{
		{"not an image", []part{{name: "fake.png", data: []byte("plain text")}}, "not_an_image"},
		{"too short", []part{{name: "flat.png", data: pngBytes(t, 48, 16)}}, "min_height"},
		{"too narrow", []part{{name: "thin.png", data: pngBytes(t, 16, 48)}}, "min_width"},
		{"wrong extension", []part{{name: "icon.svg", data: pngBytes(t, 48, 48)}}, "invalid_extension"},
		{"two files", []part{{name: "a.png", data: pngBytes(t, 48, 48)}, {name: "b.png", data: pngBytes(t, 48, 48)}}, "too_many_files"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.postMultipart(t, "/api/v1/icons/upload", map[string]string{uploadTokenField: testToken}, tt.files...)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			env := decodeJSON[uploadEnvelope](t, rec.Body.Bytes())
			assert.False(t, env.Success)
			assert.Equal(t, "UPLOAD_REJECTED", env.Code)
			assert.Equal(t, tt.reason, env.Details)
		})
	}
}

func TestUploadIcon_MissingFieldsAndFile(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.postMultipart(t, "/api/v1/icons/upload", nil, part{name: "a.png", data: pngBytes(t, 48, 48)})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{uploadTokenField: "is required"}, decodeJSON[uploadEnvelope](t, rec.Body.Bytes()).Details)

	rec = ts.postMultipart(t, "/api/v1/icons/upload", map[string]string{uploadTokenField: testToken})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]any{uploadFileField: "is required"}, decodeJSON[uploadEnvelope](t, rec.Body.Bytes()).Details)
}

func TestUploadIcon_StagedPreviewIsServed(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.postMultipart(t, "/api/v1/icons/upload", map[string]string{uploadTokenField: testToken},
		part{name: "star.PNG", data: pngBytes(t, 40, 40)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decodeJSON[uploadEnvelope](t, rec.Body.Bytes())
	assert.Equal(t, "/icon/board/tmp/"+testToken+".png", env.Data.URL)

	preview := httptest.NewRecorder()
	ts.ServeHTTP(preview, httptest.NewRequest(http.MethodGet, env.Data.URL, nil))
	assert.Equal(t, http.StatusOK, preview.Code)
	assert.Equal(t, CacheNoStore, preview.Header().Get("Cache-Control"))
}

func TestReplaceIconFile(t *testing.T) {
	ts := setupTestServer(t)
	icon := ts.createIcon(t, "Star")
	path := "/api/v1/icons/" + strconv.FormatInt(icon.ID, 10) + "/file"

	rec := ts.postMultipart(t, path, nil, part{name: "bigger.png", data: pngBytes(t, 64, 64)})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decodeJSON[uploadEnvelope](t, rec.Body.Bytes())
	assert.NotEqual(t, icon.URL, env.Data.URL)

	old := httptest.NewRecorder()
	ts.ServeHTTP(old, httptest.NewRequest(http.MethodGet, icon.URL, nil))
	assert.Equal(t, http.StatusNotFound, old.Code)

	rec = ts.postMultipart(t, "/api/v1/icons/999/file", nil, part{name: "x.png", data: pngBytes(t, 64, 64)})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown_icon", decodeJSON[uploadEnvelope](t, rec.Body.Bytes()).Details)
}

func TestUploadIcon_RateLimited(t *testing.T) {
	ts := setupTestServer(t, func(o *Options) { o.UploadsPerMinute = 1 })

	rec := ts.postMultipart(t, "/api/v1/icons/upload", map[string]string{uploadTokenField: testToken},
		part{name: "a.png", data: pngBytes(t, 48, 48)})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.postMultipart(t, "/api/v1/icons/upload", map[string]string{uploadTokenField: testToken},
		part{name: "a.png", data: pngBytes(t, 48, 48)})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.False(t, decodeJSON[response.Envelope](t, rec.Body.Bytes()).Success)
}

func TestUploadIcon_BodyTooLarge(t *testing.T) {
	ts := setupTestServer(t, func(o *Options) { o.MaxUploadSize = 512 })

	rec := ts.postMultipart(t, "/api/v1/icons/upload", map[string]string{uploadTokenField: testToken},
		part{name: "a.png", data: pngBytes(t, 64, 64)})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "too_large", decodeJSON[uploadEnvelope](t, rec.Body.Bytes()).Details)
}

func TestIconChoices(t *testing.T) {
	ts := setupTestServer(t)
	icon := ts.createIcon(t, "Star")

	resp := ts.api.Get("/api/v1/icons/choices")
	require.Equal(t, http.StatusOK, resp.Code)

	out := decodeJSON[struct {
		Choices []struct {
			Glyph    string `json:"glyph"`
			Title    string `json:"title"`
			Link     string `json:"link"`
			Uploaded bool   `json:"uploaded"`
		} `json:"choices"`
	}](t, resp.Body.Bytes())

	require.Greater(t, len(out.Choices), 1)
	first := out.Choices[0]
	assert.True(t, first.Uploaded)
	assert.Equal(t, icon.Reference, first.Glyph)
	assert.Equal(t, icon.URL, first.Link)
	assert.False(t, out.Choices[1].Uploaded)
}

func TestServeIcon_NoListingOrTraversal(t *testing.T) {
	ts := setupTestServer(t)

	for _, path := range []string{"/icon/board/", "/icon/board/tmp/", "/icon/board/../test.db"} {
		rec := httptest.NewRecorder()
		ts.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}
