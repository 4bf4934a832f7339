package handlers

import (
	"net/http"

	"engagement-pulse/internal/middleware"
	"engagement-pulse/internal/pulse"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) ListPulses(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		h.fail(c, err)
		return
	}

	pulses, err := h.Pulses.List(c.Request.Context(), middleware.Caller(c), c.Query("engagement_id"), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pulses)
}

// CurrentWeekPulse отвечает null, если пульса за текущую неделю нет.
func (h *Handlers) CurrentWeekPulse(c *gin.Context) {
	p, err := h.Pulses.CurrentWeek(c.Request.Context(), middleware.Caller(c), c.Param("engagement_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handlers) GetPulse(c *gin.Context) {
	p, err := h.Pulses.Get(c.Request.Context(), middleware.Caller(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handlers) CreatePulse(c *gin.Context) {
	var in pulse.CreateInput
	if !h.bind(c, &in) {
		return
	}

	p, err := h.Pulses.Create(c.Request.Context(), middleware.Caller(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *Handlers) UpdatePulse(c *gin.Context) {
	var in pulse.UpdateInput
	if !h.bind(c, &in) {
		return
	}

	p, err := h.Pulses.Update(c.Request.Context(), middleware.Caller(c), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
