package handlers

import (
	"net/http"

	"engagement-pulse/internal/engagements"
	"engagement-pulse/internal/middleware"
	"engagement-pulse/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) ListEngagements(c *gin.Context) {
	active, err := queryBool(c, "is_active")
	if err != nil {
		h.fail(c, err)
		return
	}

	list, err := h.Engagements.List(c.Request.Context(), middleware.Caller(c), engagements.Filter{
		ClientID:         c.Query("client_id"),
		ConsultantUserID: c.Query("consultant_user_id"),
		RAGStatus:        models.RAGStatus(c.Query("rag_status")),
		IsActive:         active,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) GetEngagement(c *gin.Context) {
	v, err := h.Engagements.Get(c.Request.Context(), middleware.Caller(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *Handlers) CreateEngagement(c *gin.Context) {
	var in engagements.CreateInput
	if !h.bind(c, &in) {
		return
	}

	e, err := h.Engagements.Create(c.Request.Context(), middleware.Caller(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *Handlers) UpdateEngagement(c *gin.Context) {
	var in engagements.UpdateInput
	if !h.bind(c, &in) {
		return
	}

	e, err := h.Engagements.Update(c.Request.Context(), middleware.Caller(c), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *Handlers) DeleteEngagement(c *gin.Context) {
	if err := h.Engagements.Delete(c.Request.Context(), middleware.Caller(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Engagement удалён"})
}
