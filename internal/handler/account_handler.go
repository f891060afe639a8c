package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/cakemarket-backend/internal/model"
	"github.com/shinyyama/cakemarket-backend/internal/service"
)

type AccountHandler struct {
	svc         service.AccountService
	frontendURL string
	log         *slog.Logger
}

func NewAccountHandler(svc service.AccountService, frontendURL string, log *slog.Logger) *AccountHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AccountHandler{svc: svc, frontendURL: strings.TrimRight(frontendURL, "/"), log: log}
}

type AccountResponse struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	Provider     string `json:"provider"`
	Verified     bool   `json:"isVerified"`
	Approved     bool   `json:"isApproved"`
	BakeryName   string `json:"bakeryName,omitempty"`
	District     string `json:"district,omitempty"`
	ContactPhone string `json:"contactNumber,omitempty"`
}

func toAccountResponse(a *model.Account) AccountResponse {
	return AccountResponse{
		ID:           a.ID,
		Name:         a.Name,
		Email:        a.Email,
		Role:         string(a.Role),
		Provider:     a.Provider,
		Verified:     a.Verified,
		Approved:     a.Approved,
		BakeryName:   a.BakeryName,
		District:     a.District,
		ContactPhone: a.ContactPhone,
	}
}

type AuthResponse struct {
	Token string          `json:"token"`
	User  AccountResponse `json:"user"`
}

type RegisterRequest struct {
	Name          string `json:"name" validate:"required,max=120"`
	Email         string `json:"email" validate:"required,email"`
	Password      string `json:"password" validate:"required,min=6,max=72"`
	Role          string `json:"role" validate:"omitempty,oneof=buyer seller baker"`
	BakeryName    string `json:"bakeryName" validate:"max=120"`
	District      string `json:"district" validate:"max=80"`
	ContactNumber string `json:"contactNumber" validate:"max=32"`
}

func (h *AccountHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	_, err := h.svc.Register(c.Request().Context(), service.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		Role:         model.Role(req.Role),
		BakeryName:   req.BakeryName,
		District:     req.District,
		ContactPhone: req.ContactNumber,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailTaken):
			return c.JSON(http.StatusBadRequest, NewErrorResponse("email_taken", "Email already exists"))
		case errors.Is(err, service.ErrInvalidRole), errors.Is(err, service.ErrInvalidAccount):
			return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
		default:
			return internalError(c, h.log, "failed to register", err)
		}
	}
	return c.JSON(http.StatusCreated, MessageResponse{Message: "Verification email sent"})
}

func (h *AccountHandler) VerifyEmail(c echo.Context) error {
	err := h.svc.VerifyEmail(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidToken) {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_token", "Invalid token"))
		}
		return internalError(c, h.log, "failed to verify email", err)
	}
	return c.Redirect(http.StatusFound, h.frontendURL+"/login")
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AccountHandler) Login(c echo.Context) error {
	var req LoginRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.svc.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			return c.JSON(http.StatusBadRequest, NewErrorResponse("invalid_credentials", "Invalid credentials"))
		case errors.Is(err, service.ErrEmailNotVerified):
			return c.JSON(http.StatusForbidden, NewErrorResponse("email_not_verified", "Verify your email first"))
		case errors.Is(err, service.ErrApprovalPending):
			return c.JSON(http.StatusForbidden, NewErrorResponse("approval_pending", "Baker approval pending"))
		default:
			return internalError(c, h.log, "failed to log in", err)
		}
	}
	return c.JSON(http.StatusOK, AuthResponse{Token: res.Token, User: toAccountResponse(res.Account)})
}

type GoogleLoginRequest struct {
	Token string `json:"token" validate:"required"`
}

func (h *AccountHandler) GoogleLogin(c echo.Context) error {
	var req GoogleLoginRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	res, err := h.svc.GoogleLogin(c.Request().Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrGoogleDisabled):
			return c.JSON(http.StatusServiceUnavailable, NewErrorResponse("unavailable", err.Error()))
		case errors.Is(err, service.ErrInvalidToken):
			return c.JSON(http.StatusUnauthorized, NewErrorResponse("invalid_token", "Google token could not be verified"))
		case errors.Is(err, service.ErrApprovalPending):
			return c.JSON(http.StatusForbidden, NewErrorResponse("approval_pending", "Baker approval pending"))
		default:
			return internalError(c, h.log, "failed to sign in with google", err)
		}
	}
	return c.JSON(http.StatusOK, AuthResponse{Token: res.Token, User: toAccountResponse(res.Account)})
}

type PublicSellerResponse struct {
	ID         uint64 `json:"id"`
	Name       string `json:"name"`
	BakeryName string `json:"bakeryName"`
	District   string `json:"district"`
}

func (h *AccountHandler) GetPublicSeller(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid id"))
	}
	a, err := h.svc.PublicSeller(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "Baker not found"))
		}
		return internalError(c, h.log, "failed to fetch baker", err)
	}
	return c.JSON(http.StatusOK, PublicSellerResponse{ID: a.ID, Name: a.Name, BakeryName: a.BakeryName, District: a.District})
}

func (h *AccountHandler) ListPendingSellers(c echo.Context) error {
	list, err := h.svc.ListPendingSellers(c.Request().Context())
	if err != nil {
		return internalError(c, h.log, "failed to fetch pending bakers", err)
	}
	resp := make([]AccountResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toAccountResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AccountHandler) ApproveSeller(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "Baker not found"))
	}
	if _, err := h.svc.ApproveSeller(c.Request().Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "Baker not found"))
		}
		return internalError(c, h.log, "failed to approve baker", err, "account_id", id)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Baker approved"})
}

func (h *AccountHandler) RejectSeller(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "Baker not found"))
	}
	if err := h.svc.RejectSeller(c.Request().Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusNotFound, NewErrorResponse("not_found", "Baker not found"))
		}
		return internalError(c, h.log, "failed to reject baker", err, "account_id", id)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Baker rejected & removed"})
}
