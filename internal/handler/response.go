package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	appmw "github.com/shinyyama/cakemarket-backend/internal/middleware"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

type MessageResponse struct {
	Message string `json:"message"`
}

// RequestValidator plugs go-playground/validator into echo's c.Validate.
type RequestValidator struct {
	v *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.v.Struct(i)
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request"
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
			continue
		}
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", fe.Field(), fe.Tag()))
	}
	return strings.Join(msgs, "; ")
}

// bindAndValidate fills req from the body and runs its validate tags. It writes the
// 400 response itself and reports false when the request was rejected.
func bindAndValidate(c echo.Context, req interface{}) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid json"))
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", validationMessage(err)))
	}
	return true, nil
}

func currentUID(c echo.Context) (uint64, bool) {
	uid, ok := c.Get(appmw.ContextUID).(uint64)
	return uid, ok && uid != 0
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing uid"))
}

func internalError(c echo.Context, log *slog.Logger, msg string, err error, attrs ...any) error {
	args := append([]any{"path", c.Path(), "err", err}, attrs...)
	log.ErrorContext(c.Request().Context(), msg, args...)
	return c.JSON(http.StatusInternalServerError, NewErrorResponse("internal_error", msg))
}
