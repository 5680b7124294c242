package store_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/boardicon/boardicon-server/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	assert.Equal(t, "resource not found", store.ErrNotFound.Error())

	cause := errors.New("disk I/O error")
	err := store.ErrInvalidInput.WithCause(cause)
	assert.Contains(t, err.Error(), "invalid input")
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.Equal(t, cause, err.Unwrap())
}

func TestError_HTTPCode(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, store.ErrNotFound.HTTPCode())
	assert.Equal(t, http.StatusConflict, store.ErrAlreadyExists.HTTPCode())
	assert.Equal(t, http.StatusBadRequest, store.ErrInvalidInput.HTTPCode())
}

func TestError_IsMatchesCopies(t *testing.T) {
	err := fmt.Errorf("get icon 7: %w", store.ErrNotFound.WithMessage("icon not found"))

	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NotErrorIs(t, err, store.ErrAlreadyExists)
}

func TestError_WithMessageKeepsSentinelUntouched(t *testing.T) {
	modified := store.ErrNotFound.WithMessage("board not found")

	assert.Equal(t, "board not found", modified.Message)
	assert.Equal(t, "resource not found", store.ErrNotFound.Message)
	assert.Equal(t, http.StatusNotFound, modified.Code)
}
