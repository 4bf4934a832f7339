package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"engagement-pulse/internal/access"
	"engagement-pulse/internal/activity"
	"engagement-pulse/internal/apperr"
	"engagement-pulse/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const minPasswordLen = 8

type UserInput struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Role     models.Role `json:"role" binding:"omitempty,role"`
	Picture  string      `json:"picture"`
	Password string      `json:"password"`
}

type UserPatch struct {
	Name     *string      `json:"name"`
	Role     *models.Role `json:"role" binding:"omitempty,role"`
	IsActive *bool        `json:"is_active"`
}

func (p UserPatch) changes() (map[string]any, error) {
	ch := map[string]any{}
	if p.Name != nil {
		if strings.TrimSpace(*p.Name) == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", apperr.ErrValidation)
		}
		ch["name"] = strings.TrimSpace(*p.Name)
	}
	if p.Role != nil {
		if !p.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, *p.Role)
		}
		ch["role"] = *p.Role
	}
	if p.IsActive != nil {
		ch["is_active"] = *p.IsActive
	}
	if len(ch) == 0 {
		return nil, fmt.Errorf("%w: no data to update", apperr.ErrValidation)
	}
	return ch, nil
}

func (s *Service) ListUsers(ctx context.Context, caller *access.Caller) ([]models.User, error) {
	if err := access.ViewPortfolio(caller); err != nil {
		return nil, err
	}
	var out []models.User
	if err := s.db.WithContext(ctx).Order("name asc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (s *Service) GetUser(ctx context.Context, caller *access.Caller, id string) (*models.User, error) {
	if err := access.ViewUser(caller, id); err != nil {
		return nil, err
	}
	return s.findUser(ctx, id)
}

// CreateUser: без пароля пользователь входит только через OAuth.
func (s *Service) CreateUser(ctx context.Context, caller *access.Caller, in UserInput) (*models.User, error) {
	if err := access.ManageUsersAndClients(caller); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	name := strings.TrimSpace(in.Name)
	if email == "" || name == "" {
		return nil, fmt.Errorf("%w: name and email are required", apperr.ErrValidation)
	}
	if in.Role != "" && !in.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, in.Role)
	}

	u := &models.User{
		Name:     name,
		Email:    email,
		Role:     in.Role,
		Picture:  in.Picture,
		IsActive: true,
	}
	if in.Password != "" {
		if len(in.Password) < minPasswordLen {
			return nil, fmt.Errorf("%w: password must be at least %d characters", apperr.ErrValidation, minPasswordLen)
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
			return fmt.Errorf("check email: %w", err)
		}
		if n > 0 {
			return fmt.Errorf("%w: user with this email already exists", apperr.ErrValidation)
		}
		if err := tx.Create(u).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: user with this email already exists", apperr.ErrValidation)
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, activity.Entry{
		ActorUserID: caller.UserID,
		EntityType:  models.EntityUser,
		EntityID:    u.ID,
		Action:      models.ActionCreate,
		Message:     "Created user: " + u.Email,
	})
	return u, nil
}

func (s *Service) UpdateUser(ctx context.Context, caller *access.Caller, id string, p UserPatch) (*models.User, error) {
	if err := access.ManageUsersAndClients(caller); err != nil {
		return nil, err
	}
	changes, err := p.changes()
	if err != nil {
		return nil, err
	}

	u, err := s.findUser(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(u).Updates(changes).Error; err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.activity.Record(ctx, activity.Entry{
		ActorUserID: caller.UserID,
		EntityType:  models.EntityUser,
		EntityID:    id,
		Action:      models.ActionUpdate,
		Message:     "Updated user",
		Changes:     changes,
	})
	return s.findUser(ctx, id)
}

func (s *Service) findUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: user %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &u, nil
}
