package handlers

import (
	"fmt"
	"net/http"

	"engagement-pulse/internal/apperr"
	"engagement-pulse/internal/auth"
	"engagement-pulse/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/markbates/goth/gothic"
)

type loginForm struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handlers) Login(c *gin.Context) {
	var form loginForm
	if !h.bind(c, &form) {
		return
	}

	user, err := h.Auth.Login(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := h.startSession(c, user.ID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handlers) Logout(c *gin.Context) {
	sess := sessions.Default(c)
	sess.Clear()
	if err := sess.Save(); err != nil {
		h.fail(c, fmt.Errorf("clear session: %w", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Выход выполнен"})
}

func (h *Handlers) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}

// ====== GOOGLE OAUTH ======

func withProvider(c *gin.Context) {
	// gothic берёт провайдера из параметра запроса
	q := c.Request.URL.Query()
	q.Set("provider", "google")
	c.Request.URL.RawQuery = q.Encode()
}

func (h *Handlers) GoogleLogin(c *gin.Context) {
	if !h.OAuthEnabled {
		h.fail(c, fmt.Errorf("%w: вход через Google не настроен", apperr.ErrNotFound))
		return
	}
	withProvider(c)
	gothic.BeginAuthHandler(c.Writer, c.Request)
}

func (h *Handlers) GoogleCallback(c *gin.Context) {
	if !h.OAuthEnabled {
		h.fail(c, fmt.Errorf("%w: вход через Google не настроен", apperr.ErrNotFound))
		return
	}
	withProvider(c)

	gothUser, err := gothic.CompleteUserAuth(c.Writer, c.Request)
	if err != nil {
		h.Log.Warn("oauth exchange failed", "error", err)
		h.fail(c, fmt.Errorf("%w: ошибка авторизации Google", apperr.ErrUnauthenticated))
		return
	}

	user, err := h.Auth.UpsertOAuth(c.Request.Context(), auth.Profile{
		Email:   gothUser.Email,
		Name:    gothUser.Name,
		Picture: gothUser.AvatarURL,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	if err := h.startSession(c, user.ID); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *Handlers) startSession(c *gin.Context, userID string) error {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Set(auth.SessionKey, userID)
	if err := sess.Save(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
