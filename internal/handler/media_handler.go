package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/cakemarket-backend/internal/ai"
	"github.com/shinyyama/cakemarket-backend/internal/model"
	"github.com/shinyyama/cakemarket-backend/internal/storage"
)

type ImageUploader interface {
	Upload(ctx context.Context, contentType string, data []byte) (string, error)
}

type DescriptionSuggester interface {
	Suggest(ctx context.Context, name, category, notes string) (string, error)
}

// MediaHandler serves listing image uploads and AI description suggestions.
// Either collaborator may be nil when its backing service is not configured.
type MediaHandler struct {
	images ImageUploader
	writer DescriptionSuggester
	log    *slog.Logger
}

func NewMediaHandler(images ImageUploader, writer DescriptionSuggester, log *slog.Logger) *MediaHandler {
	if log == nil {
		log = slog.Default()
	}
	return &MediaHandler{images: images, writer: writer, log: log}
}

func (h *MediaHandler) UploadImage(c echo.Context) error {
	if h.images == nil {
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("unavailable", "STORAGE_BUCKET is not set"))
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "image file is required"))
	}
	if fh.Size > storage.MaxImageBytes {
		return c.JSON(http.StatusRequestEntityTooLarge, NewErrorResponse("too_large", storage.ErrTooLarge.Error()))
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "failed to read image"))
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, storage.MaxImageBytes+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "failed to read image"))
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	imageURL, err := h.images.Upload(c.Request().Context(), contentType, data)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotImage):
			return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
		case errors.Is(err, storage.ErrTooLarge):
			return c.JSON(http.StatusRequestEntityTooLarge, NewErrorResponse("too_large", err.Error()))
		default:
			return internalError(c, h.log, "failed to upload image", err)
		}
	}
	return c.JSON(http.StatusCreated, map[string]string{"imageUrl": imageURL})
}

type DescribeRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Category string `json:"category" validate:"required"`
	Notes    string `json:"notes" validate:"max=500"`
}

func (h *MediaHandler) Describe(c echo.Context) error {
	if h.writer == nil {
		return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("unavailable", ai.ErrDisabled.Error()))
	}
	var req DescribeRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if !model.Category(req.Category).Valid() {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "unknown category"))
	}
	desc, err := h.writer.Suggest(c.Request().Context(), req.Name, req.Category, req.Notes)
	if err != nil {
		if errors.Is(err, ai.ErrEmptyOutput) {
			return c.JSON(http.StatusBadGateway, NewErrorResponse("ai_failed", "no description generated"))
		}
		return c.JSON(http.StatusBadGateway, NewErrorResponse("ai_failed", "description service failed"))
	}
	return c.JSON(http.StatusOK, map[string]string{"description": desc})
}
