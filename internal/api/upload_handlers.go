package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	domainerrors "github.com/boardicon/boardicon-server/internal/errors"
	"github.com/boardicon/boardicon-server/internal/http/response"
	"github.com/boardicon/boardicon-server/internal/upload"
)

// Multipart field names of the upload endpoints.
const (
	uploadFileField  = "icon"
	uploadTokenField = "tmp_hash"
)

// registerUploadRoutes mounts the multipart endpoints. They use chi directly
// because huma does not bind multipart forms, and share the per-IP limiter.
func (s *Server) registerUploadRoutes() {
	s.router.Group(func(r chi.Router) {
		r.Use(RateLimitMiddleware(s.uploadLimiter, s.logger))
		r.Post("/api/v1/icons/upload", s.handleUploadIcon)
		r.Post("/api/v1/icons/{id}/file", s.handleReplaceIconFile)
	})
}

// UploadResponse is returned for an accepted upload.
type UploadResponse struct {
	URL string `json:"url"`
}

// handleUploadIcon stages an image for an add-icon form. The form sends the
// same tmp_hash on every retry; the last accepted file wins.
func (s *Server) handleUploadIcon(w http.ResponseWriter, r *http.Request) {
	files, cleanup, err := s.parseUpload(w, r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	defer cleanup()

	tmpHash := r.FormValue(uploadTokenField)
	if tmpHash == "" {
		response.HandleError(w, domainerrors.InvalidField(uploadTokenField, "is required"), s.logger)
		return
	}

	result := s.services.Icons.UploadIcon(r.Context(), upload.Request{
		Mode:    upload.ModeNew,
		TmpHash: tmpHash,
		Files:   files,
	})
	s.writeUploadResult(w, result)
}

// handleReplaceIconFile swaps the image of an existing icon.
func (s *Server) handleReplaceIconFile(w http.ResponseWriter, r *http.Request) {
	iconID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || iconID <= 0 {
		response.HandleError(w, domainerrors.InvalidField("id", "must be a positive integer"), s.logger)
		return
	}

	files, cleanup, err := s.parseUpload(w, r)
	if err != nil {
		response.HandleError(w, err, s.logger)
		return
	}
	defer cleanup()

	s.writeUploadResult(w, s.services.Icons.UpdateIcon(r.Context(), iconID, files))
}

// parseUpload reads the multipart form and opens every file sent under the
// icon field. The returned cleanup closes the files and removes spilled parts.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) ([]upload.File, func(), error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadSize)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, nil, domainerrors.UploadRejected(string(upload.ReasonTooLarge))
		}
		return nil, nil, domainerrors.Validation("expected a multipart form").WithCause(err)
	}

	headers := r.MultipartForm.File[uploadFileField]
	if len(headers) == 0 {
		_ = r.MultipartForm.RemoveAll()
		return nil, nil, domainerrors.InvalidField(uploadFileField, "is required")
	}

	opened := make([]multipart.File, 0, len(headers))
	cleanup := func() {
		for _, f := range opened {
			_ = f.Close()
		}
		_ = r.MultipartForm.RemoveAll()
	}

	files := make([]upload.File, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			cleanup()
			s.logger.Warn("failed to open uploaded part", "file", h.Filename, "error", err)
			return nil, nil, domainerrors.UploadFailed(err)
		}
		opened = append(opened, f)
		files = append(files, upload.File{Content: f, Name: h.Filename, Size: h.Size})
	}
	return files, cleanup, nil
}

func (s *Server) writeUploadResult(w http.ResponseWriter, result upload.Result) {
	if !result.OK() {
		response.HandleError(w, result.Err(), s.logger)
		return
	}
	response.Success(w, UploadResponse{URL: result.URL}, s.logger)
}
