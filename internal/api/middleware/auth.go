package middleware

import (
	"crypto/subtle"
	"log/slog"
	"strings"

	"github.com/labstack/echo/v4"
)

// APIKeyAuth validates the configured API key against the X-API-Key header or
// an Authorization bearer token. An empty configured key disables auth
// (development mode). Health endpoints are always reachable. Comparison is
// constant-time to prevent timing attacks.
func APIKeyAuth(apiKey string, logger *slog.Logger) echo.MiddlewareFunc {
	if apiKey == "" && logger != nil {
		logger.Warn("API key not configured - API is UNSECURED")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Path()

			// Health probes never need credentials
			if strings.HasPrefix(path, "/health") || strings.HasPrefix(path, "/ready") {
				return next(c)
			}

			if apiKey == "" {
				return next(c)
			}

			token := c.Request().Header.Get("X-API-Key")
			if token == "" {
				authHeader := c.Request().Header.Get("Authorization")
				token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
			}

			if token == "" {
				if logger != nil {
					logger.Warn("missing credentials",
						slog.String("ip", c.RealIP()),
						slog.String("path", path))
				}
				return echo.NewHTTPError(401, map[string]string{
					"error": "missing credentials",
					"code":  "UNAUTHORIZED",
				})
			}

			if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
				if logger != nil {
					logger.Warn("invalid API key attempt",
						slog.String("ip", c.RealIP()),
						slog.String("path", path))
				}
				return echo.NewHTTPError(401, map[string]string{
					"error": "invalid API key",
					"code":  "UNAUTHORIZED",
				})
			}

			return next(c)
		}
	}
}
