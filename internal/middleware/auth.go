package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/cakemarket-backend/internal/auth"
	"github.com/shinyyama/cakemarket-backend/internal/model"
	"github.com/shinyyama/cakemarket-backend/internal/reqctx"
)

const (
	ContextUID  = "uid"
	ContextRole = "role"
)

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func reject(c echo.Context, status int, code, message string) error {
	var body errorBody
	body.Error.Code = code
	body.Error.Message = message
	return c.JSON(status, body)
}

type AuthMiddleware struct {
	tokens *auth.TokenIssuer
}

func NewAuthMiddleware(tokens *auth.TokenIssuer) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

func (m *AuthMiddleware) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authz := c.Request().Header.Get("Authorization")
		if authz == "" || !strings.HasPrefix(authz, "Bearer ") {
			return reject(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		}
		tokenStr := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
		claims, err := m.tokens.Parse(tokenStr)
		if err != nil || claims.AccountID == 0 {
			return reject(c, http.StatusUnauthorized, "invalid_token", "token is invalid or expired")
		}
		c.Set(ContextUID, claims.AccountID)
		c.Set(ContextRole, claims.Role)
		req := c.Request()
		c.SetRequest(req.WithContext(reqctx.WithAccountID(req.Context(), claims.AccountID)))
		return next(c)
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(model.Role)
			if !slices.Contains(roles, role) {
				return reject(c, http.StatusForbidden, "forbidden", "not allowed for this role")
			}
			return next(c)
		}
	}
}
