// Package upload validates icon uploads and hands accepted files to storage.
package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"log/slog"
	"path/filepath"

	"github.com/boardicon/boardicon-server/internal/domain"
	domainerrors "github.com/boardicon/boardicon-server/internal/errors"
)

// Reason is the machine-readable cause of a rejected upload.
type Reason string

// Rejection reasons, in the order checks run.
const (
	ReasonTooManyFiles     Reason = "too_many_files"
	ReasonInvalidExtension Reason = "invalid_extension"
	ReasonTooLarge         Reason = "too_large"
	ReasonNotAnImage       Reason = "not_an_image"
	ReasonMinHeight        Reason = "min_height"
	ReasonMinWidth         Reason = "min_width"
	ReasonUnknownIcon      Reason = "unknown_icon"
	ReasonUploadFailed     Reason = "upload_failed"
)

// DefaultMinDimension is the smallest accepted width and height in pixels.
const DefaultMinDimension = 32

// Mode selects what happens to an accepted file.
type Mode int

const (
	// ModeNew stages the file under the request's form token.
	ModeNew Mode = iota
	// ModeReplace swaps the file of an existing icon.
	ModeReplace
)

// File is one uploaded file.
type File struct {
	Content io.Reader
	Name    string // client file name, only the extension is used
	Size    int64  // declared size, -1 if unknown
}

// Request is one upload attempt.
type Request struct {
	TmpHash string // ModeNew
	Files   []File
	IconID  int64 // ModeReplace
	Mode    Mode
}

// Result holds either the URL of the stored file or a rejection reason, never both.
type Result struct {
	URL  string `json:"url,omitempty"`
	Code Reason `json:"code,omitempty"`
}

// OK reports whether the upload was accepted.
func (r Result) OK() bool {
	return r.Code == ""
}

// Err converts a rejection into a domain error.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	if r.Code == ReasonUploadFailed {
		return domainerrors.UploadFailed(nil).WithDetails(string(r.Code))
	}
	return domainerrors.UploadRejected(string(r.Code))
}

// Sink stores accepted files. Both methods return the public URL of the stored file.
// Replace returns a NOT_FOUND domain error when the icon does not exist.
type Sink interface {
	Stage(ctx context.Context, tmpHash string, content io.Reader, ext string) (string, error)
	Replace(ctx context.Context, iconID int64, content io.Reader, ext string) (string, error)
}

// Config holds upload limits.
type Config struct {
	MaxFileSize  int64 // bytes, 0 means unlimited
	MinDimension int   // default: DefaultMinDimension
}

// Validator checks uploads and forwards accepted files to a Sink.
type Validator struct {
	sink   Sink
	logger *slog.Logger
	cfg    Config
}

// NewValidator creates a Validator.
func NewValidator(cfg Config, sink Sink, logger *slog.Logger) *Validator {
	if cfg.MinDimension <= 0 {
		cfg.MinDimension = DefaultMinDimension
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{sink: sink, logger: logger, cfg: cfg}
}

// Validate runs every check in order and stores the file if all pass.
func (v *Validator) Validate(ctx context.Context, req Request) Result {
	if len(req.Files) != 1 {
		return reject(ReasonTooManyFiles)
	}
	file := req.Files[0]

	ext, ok := domain.NormalizeExtension(filepath.Ext(file.Name))
	if !ok {
		return reject(ReasonInvalidExtension)
	}
	if v.cfg.MaxFileSize > 0 && file.Size > v.cfg.MaxFileSize {
		return reject(ReasonTooLarge)
	}

	data, err := v.read(file)
	if errors.Is(err, errTooLarge) {
		return reject(ReasonTooLarge)
	}
	if err != nil {
		v.logger.Warn("failed to read upload", "file", file.Name, "error", err)
		return reject(ReasonUploadFailed)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return reject(ReasonNotAnImage)
	}
	bounds := img.Bounds()
	if bounds.Dy() < v.cfg.MinDimension {
		return reject(ReasonMinHeight)
	}
	if bounds.Dx() < v.cfg.MinDimension {
		return reject(ReasonMinWidth)
	}

	var url string
	switch req.Mode {
	case ModeReplace:
		url, err = v.sink.Replace(ctx, req.IconID, bytes.NewReader(data), ext)
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			return reject(ReasonUnknownIcon)
		}
	default:
		url, err = v.sink.Stage(ctx, req.TmpHash, bytes.NewReader(data), ext)
	}
	if err != nil {
		v.logger.Error("failed to store upload", "mode", req.Mode, "tmp_hash", req.TmpHash, "icon_id", req.IconID, "error", err)
		return reject(ReasonUploadFailed)
	}

	return Result{URL: url}
}

var errTooLarge = errors.New("upload exceeds size limit")

// read loads the whole file, enforcing the size limit when the declared size was missing or wrong.
func (v *Validator) read(file File) ([]byte, error) {
	if file.Content == nil {
		return nil, fmt.Errorf("file %q has no content", file.Name)
	}
	src := file.Content
	if v.cfg.MaxFileSize > 0 {
		src = io.LimitReader(src, v.cfg.MaxFileSize+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, err
	}
	if v.cfg.MaxFileSize > 0 && int64(len(data)) > v.cfg.MaxFileSize {
		return nil, errTooLarge
	}
	return data, nil
}

func reject(code Reason) Result {
	return Result{Code: code}
}

func (m Mode) String() string {
	if m == ModeReplace {
		return "replace"
	}
	return "new"
}
