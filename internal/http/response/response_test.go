package response

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/boardicon/boardicon-server/internal/errors"
	"github.com/boardicon/boardicon-server/internal/store"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var result Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
}

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	JSON(w, http.StatusOK, map[string]string{"url": "/icon/board/tmp/abc.png"}, logger)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	result := decode(t, w)
	assert.True(t, result.Success)
	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Error)
}

func TestJSON_ErrorStatusIsNotSuccess(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusNotFound, map[string]string{"message": "test"}, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	result := decode(t, w)
	assert.False(t, result.Success, "Success should be false for status >= 400")
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{
			name:       "upload rejected",
			err:        domainerrors.UploadRejected("min_width"),
			wantStatus: http.StatusBadRequest,
			wantCode:   "UPLOAD_REJECTED",
			wantError:  "upload rejected: min_width",
		},
		{
			name:       "upload failed",
			err:        domainerrors.UploadFailed(errors.New("disk full")),
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "UPLOAD_FAILED",
			wantError:  "upload failed",
		},
		{
			name:       "store not found",
			err:        store.ErrNotFound.WithMessage("icon 9 not found"),
			wantStatus: http.StatusNotFound,
			wantError:  "icon 9 not found",
		},
		{
			name:       "unknown",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err, nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			result := decode(t, w)
			assert.False(t, result.Success)
			assert.Equal(t, tt.wantCode, result.Code)
			assert.Equal(t, tt.wantError, result.Error)
		})
	}
}

func TestHandleError_KeepsValidationDetails(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, domainerrors.InvalidField("icon", "is required"), nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	result := decode(t, w)
	assert.Equal(t, map[string]any{"icon": "is required"}, result.Details)
}

func TestTooManyRequests(t *testing.T) {
	w := httptest.NewRecorder()
	TooManyRequests(w, "slow down", nil)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "slow down", decode(t, w).Error)
}
