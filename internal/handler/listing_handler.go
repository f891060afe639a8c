package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/cakemarket-backend/internal/model"
	"github.com/shinyyama/cakemarket-backend/internal/repository"
	"github.com/shinyyama/cakemarket-backend/internal/service"
	"github.com/shopspring/decimal"
)

type ListingHandler struct {
	svc service.ListingService
	log *slog.Logger
}

func NewListingHandler(svc service.ListingService, log *slog.Logger) *ListingHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ListingHandler{svc: svc, log: log}
}

type ListingResponse struct {
	ID          uint64  `json:"id"`
	SellerID    uint64  `json:"bakerId"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	District    string  `json:"district"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"imageUrl"`
	Available   bool    `json:"available"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

func toListingResponse(l *model.Listing) ListingResponse {
	return ListingResponse{
		ID:          l.ID,
		SellerID:    l.SellerID,
		Name:        l.Name,
		Description: l.Description,
		Price:       l.Price.InexactFloat64(),
		District:    l.District,
		Category:    string(l.Category),
		ImageURL:    l.ImageURL,
		Available:   l.Available,
		CreatedAt:   l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   l.UpdatedAt.Format(time.RFC3339),
	}
}

func toListingResponses(list []model.Listing) []ListingResponse {
	resp := make([]ListingResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toListingResponse(&list[i]))
	}
	return resp
}

type CreateListingRequest struct {
	Name        string           `json:"name" validate:"required,max=120"`
	Description string           `json:"description" validate:"max=2000"`
	Price       *decimal.Decimal `json:"price" validate:"required"`
	Category    string           `json:"category" validate:"required"`
	District    string           `json:"district" validate:"max=80"`
	ImageURL    string           `json:"imageUrl" validate:"omitempty,url,max=512"`
	Available   *bool            `json:"available"`
}

type UpdateListingRequest struct {
	Name        *string          `json:"name" validate:"omitempty,max=120"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	District    *string          `json:"district" validate:"omitempty,max=80"`
	ImageURL    *string          `json:"imageUrl" validate:"omitempty,max=512"`
	Available   *bool            `json:"available"`
}

func (h *ListingHandler) listingError(c echo.Context, err error, msg string) error {
	switch {
	case errors.Is(err, service.ErrInvalidListing):
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "Cake not found"))
	default:
		return internalError(c, h.log, msg, err)
	}
}

func (h *ListingHandler) Create(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	var req CreateListingRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	l, err := h.svc.Create(c.Request().Context(), uid, service.ListingInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		District:    req.District,
		Category:    model.Category(req.Category),
		ImageURL:    req.ImageURL,
		Available:   req.Available,
	})
	if err != nil {
		return h.listingError(c, err, "failed to create cake")
	}
	return c.JSON(http.StatusCreated, toListingResponse(l))
}

func (h *ListingHandler) Update(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "Cake not found"))
	}
	var req UpdateListingRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	patch := service.ListingPatch{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		District:    req.District,
		ImageURL:    req.ImageURL,
		Available:   req.Available,
	}
	if req.Category != nil {
		cat := model.Category(*req.Category)
		patch.Category = &cat
	}
	l, err := h.svc.Update(c.Request().Context(), uid, id, patch)
	if err != nil {
		return h.listingError(c, err, "failed to update cake")
	}
	return c.JSON(http.StatusOK, toListingResponse(l))
}

func (h *ListingHandler) Delete(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "Cake not found"))
	}
	if err := h.svc.Delete(c.Request().Context(), uid, id); err != nil {
		return h.listingError(c, err, "failed to delete cake")
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Cake deleted"})
}

func (h *ListingHandler) ListMine(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.svc.ListMine(c.Request().Context(), uid)
	if err != nil {
		return internalError(c, h.log, "failed to fetch cakes", err)
	}
	return c.JSON(http.StatusOK, toListingResponses(list))
}

func (h *ListingHandler) Get(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid id"))
	}
	l, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return h.listingError(c, err, "failed to fetch cake")
	}
	return c.JSON(http.StatusOK, toListingResponse(l))
}

func parsePrice(raw string) (*decimal.Decimal, error) {
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Browse serves /api/cakes/browse?category=Wedding&district=Colombo&sort=priceAsc&q=choco
func (h *ListingHandler) Browse(c echo.Context) error {
	minPrice, err := parsePrice(c.QueryParam("minPrice"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid minPrice"))
	}
	maxPrice, err := parsePrice(c.QueryParam("maxPrice"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid maxPrice"))
	}
	list, err := h.svc.Browse(c.Request().Context(), repository.ListingFilter{
		Category: model.Category(c.QueryParam("category")),
		District: c.QueryParam("district"),
		Query:    c.QueryParam("q"),
		MinPrice: minPrice,
		MaxPrice: maxPrice,
		Sort:     c.QueryParam("sort"),
	})
	if err != nil {
		return internalError(c, h.log, "failed to fetch cakes", err)
	}
	return c.JSON(http.StatusOK, toListingResponses(list))
}
