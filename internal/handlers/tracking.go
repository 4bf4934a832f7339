package handlers

import (
	"net/http"

	"engagement-pulse/internal/middleware"
	"engagement-pulse/internal/models"
	"engagement-pulse/internal/tracking"

	"github.com/gin-gonic/gin"
)

// ====== ВЕХИ ======

func (h *Handlers) ListMilestones(c *gin.Context) {
	list, err := h.Tracking.ListMilestones(c.Request.Context(), middleware.Caller(c), tracking.MilestoneFilter{
		EngagementID: c.Query("engagement_id"),
		Status:       models.MilestoneStatus(c.Query("status")),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) CreateMilestone(c *gin.Context) {
	var in tracking.MilestoneInput
	if !h.bind(c, &in) {
		return
	}
	m, err := h.Tracking.CreateMilestone(c.Request.Context(), middleware.Caller(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handlers) UpdateMilestone(c *gin.Context) {
	var p tracking.MilestonePatch
	if !h.bind(c, &p) {
		return
	}
	m, err := h.Tracking.UpdateMilestone(c.Request.Context(), middleware.Caller(c), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *Handlers) DeleteMilestone(c *gin.Context) {
	if err := h.Tracking.DeleteMilestone(c.Request.Context(), middleware.Caller(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Веха удалена"})
}

// ====== РИСКИ ======

func (h *Handlers) ListRisks(c *gin.Context) {
	list, err := h.Tracking.ListRisks(c.Request.Context(), middleware.Caller(c), tracking.RiskFilter{
		EngagementID: c.Query("engagement_id"),
		Status:       models.RiskStatus(c.Query("status")),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) CreateRisk(c *gin.Context) {
	var in tracking.RiskInput
	if !h.bind(c, &in) {
		return
	}
	r, err := h.Tracking.CreateRisk(c.Request.Context(), middleware.Caller(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *Handlers) UpdateRisk(c *gin.Context) {
	var p tracking.RiskPatch
	if !h.bind(c, &p) {
		return
	}
	r, err := h.Tracking.UpdateRisk(c.Request.Context(), middleware.Caller(c), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handlers) DeleteRisk(c *gin.Context) {
	if err := h.Tracking.DeleteRisk(c.Request.Context(), middleware.Caller(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Риск удалён"})
}

// ====== ПРОБЛЕМЫ ======

func (h *Handlers) ListIssues(c *gin.Context) {
	list, err := h.Tracking.ListIssues(c.Request.Context(), middleware.Caller(c), tracking.IssueFilter{
		EngagementID: c.Query("engagement_id"),
		Status:       models.IssueStatus(c.Query("status")),
		Severity:     models.IssueSeverity(c.Query("severity")),
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) CreateIssue(c *gin.Context) {
	var in tracking.IssueInput
	if !h.bind(c, &in) {
		return
	}
	is, err := h.Tracking.CreateIssue(c.Request.Context(), middleware.Caller(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, is)
}

func (h *Handlers) UpdateIssue(c *gin.Context) {
	var p tracking.IssuePatch
	if !h.bind(c, &p) {
		return
	}
	is, err := h.Tracking.UpdateIssue(c.Request.Context(), middleware.Caller(c), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, is)
}

func (h *Handlers) DeleteIssue(c *gin.Context) {
	if err := h.Tracking.DeleteIssue(c.Request.Context(), middleware.Caller(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Проблема удалена"})
}

// ====== КОНТАКТЫ ======

func (h *Handlers) ListContacts(c *gin.Context) {
	list, err := h.Tracking.ListContacts(c.Request.Context(), middleware.Caller(c), c.Query("engagement_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) CreateContact(c *gin.Context) {
	var in tracking.ContactInput
	if !h.bind(c, &in) {
		return
	}
	ct, err := h.Tracking.CreateContact(c.Request.Context(), middleware.Caller(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, ct)
}

func (h *Handlers) UpdateContact(c *gin.Context) {
	var p tracking.ContactPatch
	if !h.bind(c, &p) {
		return
	}
	ct, err := h.Tracking.UpdateContact(c.Request.Context(), middleware.Caller(c), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ct)
}

func (h *Handlers) DeleteContact(c *gin.Context) {
	if err := h.Tracking.DeleteContact(c.Request.Context(), middleware.Caller(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Контакт удалён"})
}
