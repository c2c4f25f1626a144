package middleware

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs HTTP requests against the operational surface.
func RequestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			start := time.Now()

			err := next(c)

			log.Printf("[%s] %s - %d (%s)",
				req.Method,
				req.RequestURI,
				res.Status,
				time.Since(start),
			)

			return err
		}
	}
}
