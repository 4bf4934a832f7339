package handlers

import (
	"net/http"

	"engagement-pulse/internal/directory"
	"engagement-pulse/internal/middleware"

	"github.com/gin-gonic/gin"
)

// ====== КЛИЕНТЫ ======

func (h *Handlers) ListClients(c *gin.Context) {
	list, err := h.Directory.ListClients(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) GetClient(c *gin.Context) {
	cl, err := h.Directory.GetClient(c.Request.Context(), middleware.Caller(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cl)
}

func (h *Handlers) CreateClient(c *gin.Context) {
	var in directory.ClientInput
	if !h.bind(c, &in) {
		return
	}
	cl, err := h.Directory.CreateClient(c.Request.Context(), middleware.Caller(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cl)
}

func (h *Handlers) UpdateClient(c *gin.Context) {
	var in directory.ClientInput
	if !h.bind(c, &in) {
		return
	}
	cl, err := h.Directory.UpdateClient(c.Request.Context(), middleware.Caller(c), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cl)
}

func (h *Handlers) DeleteClient(c *gin.Context) {
	if err := h.Directory.DeleteClient(c.Request.Context(), middleware.Caller(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Клиент удалён"})
}

// ====== ПОЛЬЗОВАТЕЛИ ======

func (h *Handlers) ListUsers(c *gin.Context) {
	list, err := h.Directory.ListUsers(c.Request.Context(), middleware.Caller(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handlers) GetUser(c *gin.Context) {
	u, err := h.Directory.GetUser(c.Request.Context(), middleware.Caller(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handlers) CreateUser(c *gin.Context) {
	var in directory.UserInput
	if !h.bind(c, &in) {
		return
	}
	u, err := h.Directory.CreateUser(c.Request.Context(), middleware.Caller(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *Handlers) UpdateUser(c *gin.Context) {
	var p directory.UserPatch
	if !h.bind(c, &p) {
		return
	}
	u, err := h.Directory.UpdateUser(c.Request.Context(), middleware.Caller(c), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// ====== ЖУРНАЛ ======

func (h *Handlers) ListActivity(c *gin.Context) {
	limit, err := queryInt(c, "limit")
	if err != nil {
		h.fail(c, err)
		return
	}
	logs, err := h.Activity.List(c.Request.Context(), middleware.Caller(c), c.Query("engagement_id"), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
