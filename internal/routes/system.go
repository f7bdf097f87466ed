package routes

import (
	"context"
	"net/http"
	"time"

	"equipment-qms/pkg/database"
	"equipment-qms/pkg/metrics"

	"github.com/labstack/echo/v4"
)

func runSystemRouter(e *echo.Echo, db *database.DB, m *metrics.Metrics) {
	if m != nil {
		e.GET("/metrics", echo.WrapHandler(m.Handler()))
	}
	e.GET("/health", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{"status": false, "message": err.Error()})
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"status": true, "database": string(db.Dialect)})
	})
}
