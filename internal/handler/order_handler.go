package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/cakemarket-backend/internal/model"
	"github.com/shinyyama/cakemarket-backend/internal/service"
)

const IdempotencyHeader = "Idempotency-Key"

type OrderHandler struct {
	svc service.OrderService
	log *slog.Logger
}

func NewOrderHandler(svc service.OrderService, log *slog.Logger) *OrderHandler {
	if log == nil {
		log = slog.Default()
	}
	return &OrderHandler{svc: svc, log: log}
}

type OrderItemResponse struct {
	ItemID   uint64  `json:"itemId"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Qty      int     `json:"qty"`
	ImageURL string  `json:"imageUrl"`
}

type OrderResponse struct {
	ID               uint64              `json:"id"`
	BuyerID          uint64              `json:"buyerId"`
	SellerID         uint64              `json:"sellerId"`
	Items            []OrderItemResponse `json:"items"`
	Subtotal         float64             `json:"subtotal"`
	DeliveryDistrict string              `json:"deliveryDistrict"`
	Note             string              `json:"note"`
	BuyerPhone       string              `json:"buyerPhone"`
	SellerPhone      string              `json:"sellerPhone"`
	Status           string              `json:"status"`
	CreatedAt        string              `json:"createdAt"`
	UpdatedAt        string              `json:"updatedAt"`
}

type PlaceOrderResponse struct {
	Message  string          `json:"message"`
	Orders   []OrderResponse `json:"orders"`
	Replayed bool            `json:"replayed"`
}

func toOrderResponse(o *model.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ItemID:   it.ListingID,
			Name:     it.Name,
			Price:    it.Price.InexactFloat64(),
			Qty:      it.Quantity,
			ImageURL: it.ImageURL,
		})
	}
	return OrderResponse{
		ID:               o.ID,
		BuyerID:          o.BuyerID,
		SellerID:         o.SellerID,
		Items:            items,
		Subtotal:         o.Subtotal.InexactFloat64(),
		DeliveryDistrict: o.DeliveryDistrict,
		Note:             o.Note,
		BuyerPhone:       o.BuyerPhone,
		SellerPhone:      o.SellerPhone,
		Status:           string(o.Status),
		CreatedAt:        o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        o.UpdatedAt.Format(time.RFC3339),
	}
}

func toOrderResponses(list []model.Order) []OrderResponse {
	resp := make([]OrderResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toOrderResponse(&list[i]))
	}
	return resp
}

type cartItemRequest struct {
	ItemID uint64 `json:"itemId" validate:"required"`
	Qty    int    `json:"qty"`
}

type PlaceOrderRequest struct {
	Items            []cartItemRequest `json:"items" validate:"max=100,dive"`
	DeliveryDistrict string            `json:"deliveryDistrict" validate:"max=120"`
	Note             string            `json:"note" validate:"max=1000"`
	BuyerPhone       string            `json:"buyerPhone" validate:"max=32"`
}

func (h *OrderHandler) Place(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	var req PlaceOrderRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	items := make([]service.CartItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.CartItem{ItemID: it.ItemID, Qty: it.Qty})
	}
	res, err := h.svc.PlaceOrder(c.Request().Context(), uid, service.PlaceOrderRequest{
		Items:            items,
		DeliveryDistrict: req.DeliveryDistrict,
		Note:             req.Note,
		BuyerPhone:       req.BuyerPhone,
		IdempotencyKey:   c.Request().Header.Get(IdempotencyHeader),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyCart):
			return c.JSON(http.StatusBadRequest, NewErrorResponse("empty_cart", "Cart is empty"))
		case errors.Is(err, service.ErrNoValidItems):
			return c.JSON(http.StatusBadRequest, NewErrorResponse("no_valid_items", "No valid cakes found"))
		case errors.Is(err, service.ErrInvalidQuantity):
			return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
		case errors.Is(err, service.ErrRequestInProgress):
			return c.JSON(http.StatusConflict, NewErrorResponse("request_in_progress", "a request with this Idempotency-Key is still being processed"))
		}
		var created []uint64
		if res != nil {
			for _, o := range res.Orders {
				created = append(created, o.ID)
			}
		}
		return internalError(c, h.log, "failed to place order", err, "buyer_id", uid, "created_order_ids", created)
	}
	return c.JSON(http.StatusCreated, PlaceOrderResponse{
		Message:  "Order placed",
		Orders:   toOrderResponses(res.Orders),
		Replayed: res.Replayed,
	})
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.svc.ListByBuyer(c.Request().Context(), uid)
	if err != nil {
		return internalError(c, h.log, "failed to fetch orders", err)
	}
	return c.JSON(http.StatusOK, toOrderResponses(list))
}

func (h *OrderHandler) ListSeller(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	list, err := h.svc.ListBySeller(c.Request().Context(), uid)
	if err != nil {
		return internalError(c, h.log, "failed to fetch orders", err)
	}
	return c.JSON(http.StatusOK, toOrderResponses(list))
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) SetStatus(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "Order not found"))
	}
	var req SetStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	o, err := h.svc.SetStatus(c.Request().Context(), uid, id, model.OrderStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_status", "Invalid status"))
		case errors.Is(err, service.ErrNotFound):
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "Order not found"))
		case errors.Is(err, service.ErrOrderFinalized):
			return c.JSON(http.StatusConflict, NewErrorResponse("order_finalized", "Order already finalized"))
		default:
			return internalError(c, h.log, "failed to update order", err, "order_id", id)
		}
	}
	return c.JSON(http.StatusOK, toOrderResponse(o))
}
