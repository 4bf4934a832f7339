package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"engagement-pulse/internal/activity"
	"engagement-pulse/internal/apperr"
	"engagement-pulse/internal/auth"
	"engagement-pulse/internal/dashboard"
	"engagement-pulse/internal/directory"
	"engagement-pulse/internal/engagements"
	"engagement-pulse/internal/pulse"
	"engagement-pulse/internal/tracking"

	"github.com/gin-gonic/gin"
)

// Handlers: HTTP-обработчики API поверх сервисов.
type Handlers struct {
	Auth         *auth.Service
	Pulses       *pulse.Service
	Dashboard    *dashboard.Service
	Engagements  *engagements.Service
	Tracking     *tracking.Service
	Directory    *directory.Service
	Activity     *activity.Recorder
	OAuthEnabled bool
	Log          *slog.Logger
}

// fail отвечает ошибкой в едином формате {"error": вид, "detail": текст}.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		h.Log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.JSON(status, apperr.Body(err))
}

func (h *Handlers) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.fail(c, fmt.Errorf("%w: Некорректные данные: %v", apperr.ErrValidation, err))
		return false
	}
	return true
}

// queryInt читает целый параметр запроса; пустое значение даёт 0.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: параметр %s должен быть неотрицательным числом", apperr.ErrValidation, name)
	}
	return v, nil
}

func queryBool(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: параметр %s должен быть true или false", apperr.ErrValidation, name)
	}
	return &v, nil
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
