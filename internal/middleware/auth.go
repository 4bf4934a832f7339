package middleware

import (
	"log/slog"
	"net/http"

	"engagement-pulse/internal/access"
	"engagement-pulse/internal/apperr"
	"engagement-pulse/internal/auth"
	"engagement-pulse/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const currentUserKey = "CurrentUser"

// InjectUser кладёт в контекст активного пользователя из сессии.
// Отключённый или удалённый пользователь считается анонимным.
func InjectUser(svc *auth.Service, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		if uid, ok := sess.Get(auth.SessionKey).(string); ok && uid != "" {
			user, err := svc.Resolve(c.Request.Context(), uid)
			if err != nil {
				log.Error("failed to resolve session user", "user_id", uid, "error", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, apperr.Body(err))
				return
			}
			if user != nil {
				c.Set(currentUserKey, user)
			}
		}

		c.Next()
	}
}

func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

// Caller: вызывающий для проверок доступа; nil для анонимного запроса.
func Caller(c *gin.Context) *access.Caller {
	return access.FromUser(CurrentUser(c))
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := access.Authenticated(Caller(c)); err != nil {
			c.AbortWithStatusJSON(apperr.Status(err), apperr.Body(err))
			return
		}
		c.Next()
	}
}

func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := access.RequireRole(Caller(c), roles...); err != nil {
			c.AbortWithStatusJSON(apperr.Status(err), apperr.Body(err))
			return
		}
		c.Next()
	}
}
