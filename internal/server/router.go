package server

import (
	"net/http"

	"engagement-pulse/internal/auth"
	"engagement-pulse/internal/config"
	"engagement-pulse/internal/handlers"
	"engagement-pulse/internal/middleware"
	"engagement-pulse/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const sessionMaxAge = 7 * 24 * 60 * 60

func NewRouter(cfg *config.Config, h *handlers.Handlers, gatherer prometheus.Gatherer) (*gin.Engine, error) {
	if err := RegisterValidators(); err != nil {
		return nil, err
	}

	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(auth.SessionName, store))

	r.Use(middleware.InjectUser(h.Auth, h.Log))

	// HEALTHCHECK и МЕТРИКИ
	r.GET("/health", handlers.Health)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")

	// ====== AUTH ======
	api.POST("/auth/login", h.Login)
	api.POST("/auth/logout", h.Logout)
	api.GET("/auth/google", h.GoogleLogin)
	api.GET("/auth/google/callback", h.GoogleCallback)

	authed := api.Group("/")
	authed.Use(middleware.RequireAuth())

	authed.GET("/auth/me", h.Me)

	lead := middleware.RequireRole(models.RoleLead, models.RoleAdmin)
	admin := middleware.RequireRole(models.RoleAdmin)

	// ====== ПОЛЬЗОВАТЕЛИ ======
	authed.GET("/users", lead, h.ListUsers)
	authed.GET("/users/:id", h.GetUser)
	authed.POST("/users", admin, h.CreateUser)
	authed.PUT("/users/:id", admin, h.UpdateUser)

	// ====== КЛИЕНТЫ ======
	authed.GET("/clients", lead, h.ListClients)
	authed.GET("/clients/:id", lead, h.GetClient)
	authed.POST("/clients", admin, h.CreateClient)
	authed.PUT("/clients/:id", admin, h.UpdateClient)
	authed.DELETE("/clients/:id", admin, h.DeleteClient)

	// ====== ENGAGEMENTS ======
	authed.GET("/engagements", h.ListEngagements)
	authed.GET("/engagements/:id", h.GetEngagement)
	authed.POST("/engagements", admin, h.CreateEngagement)
	authed.PUT("/engagements/:id", lead, h.UpdateEngagement)
	authed.DELETE("/engagements/:id", admin, h.DeleteEngagement)

	// ====== ПУЛЬСЫ ======
	authed.GET("/pulses", h.ListPulses)
	authed.GET("/pulses/current-week/:engagement_id", h.CurrentWeekPulse)
	authed.GET("/pulses/:id", h.GetPulse)
	authed.POST("/pulses", h.CreatePulse)
	authed.PUT("/pulses/:id", h.UpdatePulse)

	// ====== ВЕХИ, РИСКИ, ПРОБЛЕМЫ, КОНТАКТЫ ======
	authed.GET("/milestones", h.ListMilestones)
	authed.POST("/milestones", lead, h.CreateMilestone)
	authed.PUT("/milestones/:id", lead, h.UpdateMilestone)
	authed.DELETE("/milestones/:id", admin, h.DeleteMilestone)

	authed.GET("/risks", h.ListRisks)
	authed.POST("/risks", lead, h.CreateRisk)
	authed.PUT("/risks/:id", lead, h.UpdateRisk)
	authed.DELETE("/risks/:id", admin, h.DeleteRisk)

	authed.GET("/issues", h.ListIssues)
	authed.POST("/issues", lead, h.CreateIssue)
	authed.PUT("/issues/:id", lead, h.UpdateIssue)
	authed.DELETE("/issues/:id", admin, h.DeleteIssue)

	authed.GET("/contacts", h.ListContacts)
	authed.POST("/contacts", lead, h.CreateContact)
	authed.PUT("/contacts/:id", lead, h.UpdateContact)
	authed.DELETE("/contacts/:id", admin, h.DeleteContact)

	// ====== ЖУРНАЛ И ДАШБОРД ======
	authed.GET("/activity-logs", lead, h.ListActivity)
	authed.GET("/dashboard/summary", lead, h.DashboardSummary)
	authed.GET("/dashboard/rag-trend/:engagement_id", h.RAGTrend)

	return r, nil
}
