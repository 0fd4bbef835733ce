package middleware

import (
	"time"

	"ShopScore/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs each request at debug level and client errors at info.
func RequestLogging(log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			fields := []logger.Field{
				logger.String("method", req.Method),
				logger.String("route", routeOf(c)),
				logger.String("remote", c.RealIP()),
				logger.Int("status", c.Response().Status),
				logger.Duration("latency_ms", time.Since(start)),
			}
			if c.Response().Status >= 400 && c.Response().Status < 500 {
				log.Info("http request rejected", fields...)
			} else {
				log.Debug("http request", fields...)
			}
			return nil
		}
	}
}
