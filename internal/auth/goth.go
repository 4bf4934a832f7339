package auth

import (
	"log/slog"
	"net/http"

	"engagement-pulse/internal/config"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
)

// InitProviders настраивает goth. Возвращает false, если Google не сконфигурирован.
func InitProviders(cfg *config.Config, log *slog.Logger) bool {
	// у gothic своё хранилище gorilla/sessions, отдельное от gin-contrib/sessions.
	// По умолчанию Secure=true, что ломает localhost.
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		Secure:   cfg.Production(),
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store

	if cfg.GoogleClientID == "" {
		log.Warn("GOOGLE_CLIENT_ID not set, oauth login disabled")
		return false
	}

	goth.UseProviders(
		google.New(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL, "email", "profile"),
	)
	log.Info("goth providers initialized", "providers", "google")
	return true
}
