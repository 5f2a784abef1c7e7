package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"golang.org/x/time/rate"

	_ "github.com/homestead/marketplace-api/docs"
	"github.com/homestead/marketplace-api/internal/api/handler"
	"github.com/homestead/marketplace-api/internal/api/middleware"
	"github.com/homestead/marketplace-api/internal/core/ports"
)

// Deps is everything the HTTP layer needs from the composition root.
type Deps struct {
	Auth       ports.AuthService
	Admin      ports.AdminService
	Properties ports.PropertyService
	Tokens     middleware.TokenVerifier
	Users      middleware.UserLoader
	Provider   ports.IdentityProvider
	Checks     map[string]handler.Check

	FrontendOrigin string
	AdminEmail     string
	BodyLimit      string
	// AuthRateLimit is requests per second per client on /auth. Zero disables it.
	AuthRateLimit float64
	// Registerer receives the HTTP metrics. Nil uses the default registry.
	Registerer prometheus.Registerer
	Log        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{d.FrontendOrigin},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Idempotency-Key"},
		AllowCredentials: true,
	}))
	if d.BodyLimit != "" {
		e.Use(echomiddleware.BodyLimit(d.BodyLimit))
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "marketplace",
		Registerer: d.Registerer,
	}))

	authHandler := handler.NewAuthHandler(d.Auth)
	propertyHandler := handler.NewPropertyHandler(d.Properties)
	adminHandler := handler.NewAdminHandler(d.Admin)
	healthHandler := handler.NewHealthHandler(d.Checks)

	authenticate := middleware.Authenticate(d.Tokens, d.Users, d.Log)

	// --- Auth routes ---
	auth := e.Group("/auth")
	if d.AuthRateLimit > 0 {
		auth.Use(echomiddleware.RateLimiter(echomiddleware.NewRateLimiterMemoryStore(rate.Limit(d.AuthRateLimit))))
	}
	auth.POST("/signup", authHandler.SignUp)
	auth.POST("/signin", authHandler.SignIn)
	auth.POST("/callback", authHandler.Callback)
	auth.POST("/forgot-password", authHandler.ForgotPassword)
	auth.POST("/reset-password", authHandler.ResetPassword)
	auth.GET("/me", authHandler.Me, authenticate)
	auth.PUT("/update-user", authHandler.UpdateUser, authenticate)
	auth.PUT("/change-password", authHandler.ChangePassword, authenticate)
	auth.POST("/signout", authHandler.SignOut, authenticate)
	auth.DELETE("/account", authHandler.DeleteAccount, authenticate)

	// --- Property routes ---
	props := e.Group("/properties")
	props.POST("", propertyHandler.Create, authenticate, middleware.ListingAccess())
	props.GET("/mine", propertyHandler.ListMine, authenticate)
	props.GET("/:id", propertyHandler.Get)
	props.DELETE("/:id", propertyHandler.Delete, authenticate)

	// --- Admin routes ---
	admin := e.Group("/admin", authenticate, middleware.AdminOnly(d.AdminEmail, d.Provider, d.Log))
	admin.GET("/users", adminHandler.ListUsers)
	admin.PUT("/users/:id/status", adminHandler.SetStatus)

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", metricsHandler(d.Registerer))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

func metricsHandler(reg prometheus.Registerer) echo.HandlerFunc {
	if g, ok := reg.(prometheus.Gatherer); ok {
		return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: g})
	}
	return echoprometheus.NewHandler()
}

// requestLogger writes one structured line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}
