package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/cakemarket-backend/internal/model"
	"github.com/shinyyama/cakemarket-backend/internal/repository"
	"github.com/shinyyama/cakemarket-backend/internal/service"
)

type NotificationHandler struct {
	svc service.NotificationService
	log *slog.Logger
}

func NewNotificationHandler(svc service.NotificationService, log *slog.Logger) *NotificationHandler {
	if log == nil {
		log = slog.Default()
	}
	return &NotificationHandler{svc: svc, log: log}
}

type NotificationResponse struct {
	ID        uint64  `json:"id"`
	Kind      string  `json:"kind"`
	OrderID   uint64  `json:"orderId"`
	Phone     string  `json:"phone"`
	Body      string  `json:"body"`
	Status    string  `json:"status"`
	Error     string  `json:"error,omitempty"`
	SentAt    *string `json:"sentAt,omitempty"`
	CreatedAt string  `json:"createdAt"`
}

func toNotificationResponse(n model.Notification) NotificationResponse {
	var sentAt *string
	if n.SentAt != nil {
		val := n.SentAt.Format(time.RFC3339)
		sentAt = &val
	}
	return NotificationResponse{
		ID:        n.ID,
		Kind:      n.Kind,
		OrderID:   n.OrderID,
		Phone:     n.Phone,
		Body:      n.Body,
		Status:    string(n.Status),
		Error:     n.Error,
		SentAt:    sentAt,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}

func (h *NotificationHandler) List(c echo.Context) error {
	uid, ok := currentUID(c)
	if !ok {
		return unauthorized(c)
	}
	limit := repository.DefaultNotificationLimit
	if lStr := c.QueryParam("limit"); lStr != "" {
		if lParsed, err := strconv.Atoi(lStr); err == nil && lParsed > 0 {
			limit = min(lParsed, repository.MaxNotificationLimit)
		}
	}
	list, failed, err := h.svc.List(c.Request().Context(), uid, limit)
	if err != nil {
		return internalError(c, h.log, "failed to fetch notifications", err)
	}
	resp := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		resp = append(resp, toNotificationResponse(n))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"notifications": resp,
		"failedCount":   failed,
	})
}
