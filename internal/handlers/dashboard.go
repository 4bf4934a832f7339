package handlers

import (
	"net/http"

	"engagement-pulse/internal/middleware"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) DashboardSummary(c *gin.Context) {
	sum, err := h.Dashboard.Summary(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func (h *Handlers) RAGTrend(c *gin.Context) {
	weeks, err := queryInt(c, "weeks")
	if err != nil {
		h.fail(c, err)
		return
	}

	points, err := h.Dashboard.Trend(c.Request.Context(), middleware.Caller(c), c.Param("engagement_id"), weeks)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}
