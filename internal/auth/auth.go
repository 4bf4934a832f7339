// Package auth отвечает за вход по паролю и через Google, определение текущего пользователя.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"engagement-pulse/internal/apperr"
	"engagement-pulse/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	SessionName = "pulse_session"
	SessionKey  = "user_id"
)

type Service struct {
	db  *gorm.DB
	log *slog.Logger
}

func NewService(db *gorm.DB, log *slog.Logger) *Service {
	return &Service{db: db, log: log}
}

// Login проверяет email и пароль. Любая неудача даёт ErrUnauthenticated
// без уточнения причины.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var u models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthenticated)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}

	if u.PasswordHash == "" || !u.IsActive {
		return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthenticated)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthenticated)
	}

	s.log.Info("user logged in", "user_id", u.ID, "method", "password")
	return &u, nil
}

// Profile: данные пользователя от OAuth-провайдера.
type Profile struct {
	Email   string
	Name    string
	Picture string
}

// UpsertOAuth находит пользователя по email или создаёт нового с ролью
// CONSULTANT. Отключённый пользователь не входит.
func (s *Service) UpsertOAuth(ctx context.Context, p Profile) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(p.Email))
	if email == "" {
		return nil, fmt.Errorf("%w: provider returned no email", apperr.ErrUnauthenticated)
	}

	var u models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("email = ?", email).First(&u).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			u = models.User{
				Name:     p.Name,
				Email:    email,
				Picture:  p.Picture,
				Role:     models.RoleConsultant,
				IsActive: true,
			}
			if u.Name == "" {
				u.Name = email
			}
			if err := tx.Create(&u).Error; err != nil {
				return fmt.Errorf("create user: %w", err)
			}
			s.log.Info("user created from oauth", "user_id", u.ID)
			return nil
		case err != nil:
			return fmt.Errorf("find user: %w", err)
		}

		updates := map[string]any{}
		if p.Name != "" && p.Name != u.Name {
			updates["name"] = p.Name
		}
		if p.Picture != "" && p.Picture != u.Picture {
			updates["picture"] = p.Picture
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&u).Updates(updates).Error; err != nil {
			return fmt.Errorf("update user profile: %w", err)
		}
		return tx.First(&u, "id = ?", u.ID).Error
	})
	if err != nil {
		return nil, err
	}

	if !u.IsActive {
		return nil, fmt.Errorf("%w: user is deactivated", apperr.ErrUnauthenticated)
	}
	s.log.Info("user logged in", "user_id", u.ID, "method", "oauth")
	return &u, nil
}

// Resolve возвращает активного пользователя по id из сессии или nil.
func (s *Service) Resolve(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, nil
	}

	var u models.User
	err := s.db.WithContext(ctx).Where("id = ?", userID).Limit(1).Find(&u).Error
	if err != nil {
		return nil, fmt.Errorf("resolve user: %w", err)
	}
	if u.ID == "" || !u.IsActive {
		return nil, nil
	}
	return &u, nil
}
