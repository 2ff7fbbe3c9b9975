package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/parcelry/internal/domain"
	"github.com/dukerupert/parcelry/internal/handler/api"
	"github.com/dukerupert/parcelry/internal/middleware"
)

const healthTimeout = 2 * time.Second

// Server is the HTTP API together with the rate limiters it owns.
type Server struct {
	Echo *echo.Echo

	limiters []*middleware.RateLimiter
}

// NewServer builds the echo instance with the global middleware chain,
// /healthz, /metrics and the /api routes.
func NewServer(deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = api.HTTPErrorHandler
	e.Validator = api.NewValidator()

	apiLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	uploadLimiter := middleware.NewRateLimiter(middleware.UploadRateLimiterConfig())

	e.Use(echomw.Recover())
	e.Use(echo.WrapMiddleware(middleware.RequestID))
	e.Use(echo.WrapMiddleware(middleware.WithRequestLogger(deps.Logger)))
	e.Use(echo.WrapMiddleware(middleware.AccessLog))
	if deps.HTTPMetrics != nil {
		e.Use(echo.WrapMiddleware(deps.HTTPMetrics.Middleware))
	}
	e.Use(echo.WrapMiddleware(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig())))
	e.Use(renderErrors)

	e.GET("/healthz", healthz(deps.DB))

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	g := e.Group("/api", echo.WrapMiddleware(apiLimiter.Middleware))
	RegisterAPIRoutes(g, deps.API, uploadLimiter)

	return &Server{
		Echo:     e,
		limiters: []*middleware.RateLimiter{apiLimiter, uploadLimiter},
	}
}

// Shutdown stops accepting connections, waits for in-flight requests and
// stops the rate limiter cleanup goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.Echo.Shutdown(ctx)
	for _, rl := range s.limiters {
		rl.Stop()
	}
	return err
}

// renderErrors writes handler errors while the wrapped net/http middleware is
// still on the stack, so access logs and metrics see the final status.
func renderErrors(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := next(c); err != nil {
			c.Error(err)
		}
		return nil
	}
}

func healthz(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				return &domain.Error{
					Code:    domain.EUNAVAILABLE,
					Op:      "healthz",
					Message: "Database unavailable",
					Err:     err,
				}
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}
