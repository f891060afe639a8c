package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shinyyama/cakemarket-backend/internal/auth"
	"github.com/shinyyama/cakemarket-backend/internal/config"
	"github.com/shinyyama/cakemarket-backend/internal/handler"
	"github.com/shinyyama/cakemarket-backend/internal/mail"
	"github.com/shinyyama/cakemarket-backend/internal/metrics"
	appmw "github.com/shinyyama/cakemarket-backend/internal/middleware"
	"github.com/shinyyama/cakemarket-backend/internal/model"
	"github.com/shinyyama/cakemarket-backend/internal/notify"
	"github.com/shinyyama/cakemarket-backend/internal/repository"
	"github.com/shinyyama/cakemarket-backend/internal/service"
	"gorm.io/gorm"
)

// Deps carries the collaborators built in main. Identity, Images and Writer
// may be nil, which turns the matching endpoints into 503 responses.
type Deps struct {
	Config   *config.Config
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Notifier notify.Dispatcher
	Mailer   mail.Mailer
	Identity auth.IdentityVerifier
	Images   handler.ImageUploader
	Writer   handler.DescriptionSuggester
}

type Server struct {
	e   *echo.Echo
	log *slog.Logger
}

func New(db *gorm.DB, d Deps, sha, buildTime string) *Server {
	log := d.Logger
	if log == nil {
		log = slog.Default()
	}
	cfg := d.Config

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(appmw.RequestContext)
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", handler.IdempotencyHeader},
		ExposeHeaders:    []string{echo.HeaderXRequestID},
		AllowCredentials: true,
		AllowOriginFunc:  allowOrigin(cfg.FrontendURL),
	}))
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware)
	}

	accountRepo := repository.NewAccountRepository(db)
	listingRepo := repository.NewListingRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	idemRepo := repository.NewIdempotencyRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL)
	authMw := appmw.NewAuthMiddleware(tokens)

	accountSvc := service.NewAccountService(accountRepo, tokens, d.Mailer, d.Identity, log)
	listingSvc := service.NewListingService(listingRepo)
	orderSvc := service.NewOrderService(service.OrderDeps{
		Orders:      orderRepo,
		Listings:    listingRepo,
		Accounts:    accountRepo,
		Idempotency: idemRepo,
		Notifier:    d.Notifier,
		Metrics:     d.Metrics,
		Logger:      log,
	})
	notificationSvc := service.NewNotificationService(notificationRepo)

	accountHandler := handler.NewAccountHandler(accountSvc, cfg.FrontendURL, log)
	listingHandler := handler.NewListingHandler(listingSvc, log)
	orderHandler := handler.NewOrderHandler(orderSvc, log)
	notificationHandler := handler.NewNotificationHandler(notificationSvc, log)
	mediaHandler := handler.NewMediaHandler(d.Images, d.Writer, log)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    sha,
			"build_time": buildTime,
		})
	})
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", accountHandler.Register)
	authGroup.GET("/verify-email", accountHandler.VerifyEmail)
	authGroup.POST("/login", accountHandler.Login)
	authGroup.POST("/google", accountHandler.GoogleLogin)

	admin := api.Group("/admin", authMw.RequireAuth, appmw.RequireRole(model.RoleAdmin))
	admin.GET("/pending-sellers", accountHandler.ListPendingSellers)
	admin.PUT("/approve-seller/:id", accountHandler.ApproveSeller)
	admin.DELETE("/reject-seller/:id", accountHandler.RejectSeller)

	api.GET("/sellers/:id", accountHandler.GetPublicSeller)

	seller := []echo.MiddlewareFunc{authMw.RequireAuth, appmw.RequireRole(model.RoleSeller)}
	cakes := api.Group("/cakes")
	cakes.GET("/browse", listingHandler.Browse)
	cakes.GET("/mine", listingHandler.ListMine, seller...)
	cakes.POST("/images", mediaHandler.UploadImage, seller...)
	cakes.POST("/describe", mediaHandler.Describe, seller...)
	cakes.POST("", listingHandler.Create, seller...)
	cakes.GET("/:id", listingHandler.Get)
	cakes.PUT("/:id", listingHandler.Update, seller...)
	cakes.DELETE("/:id", listingHandler.Delete, seller...)

	orders := api.Group("/orders", authMw.RequireAuth)
	orders.POST("", orderHandler.Place, appmw.RequireRole(model.RoleBuyer))
	orders.GET("/mine", orderHandler.ListMine)
	orders.GET("/seller", orderHandler.ListSeller, appmw.RequireRole(model.RoleSeller))
	orders.PUT("/:id/status", orderHandler.SetStatus, appmw.RequireRole(model.RoleSeller))

	api.GET("/me/notifications", notificationHandler.List, authMw.RequireAuth)

	return &Server{e: e, log: log}
}

// allowOrigin accepts localhost on any port plus the configured frontend origin.
func allowOrigin(frontendURL string) func(string) (bool, error) {
	frontend := ""
	if u, err := url.Parse(frontendURL); err == nil && u.Host != "" {
		frontend = strings.ToLower(u.Scheme + "://" + u.Host)
	}
	return func(origin string) (bool, error) {
		low := strings.ToLower(origin)
		if strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
			strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:") {
			return true, nil
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false, nil
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return false, nil
		}
		return frontend != "" && low == frontend, nil
	}
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	s.log.Info("listening", "addr", addr)
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
