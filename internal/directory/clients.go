// Package directory управляет справочниками клиентов и пользователей.
package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"engagement-pulse/internal/access"
	"engagement-pulse/internal/activity"
	"engagement-pulse/internal/apperr"
	"engagement-pulse/internal/models"

	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	activity *activity.Recorder
	log      *slog.Logger
}

func NewService(db *gorm.DB, rec *activity.Recorder, log *slog.Logger) *Service {
	return &Service{db: db, activity: rec, log: log}
}

// ====== КЛИЕНТЫ ======

type ClientInput struct {
	ClientName          string `json:"client_name" binding:"required"`
	Industry            string `json:"industry"`
	Notes               string `json:"notes"`
	PrimaryContactName  string `json:"primary_contact_name"`
	PrimaryContactEmail string `json:"primary_contact_email" binding:"omitempty,email"`
}

func (in *ClientInput) normalize() error {
	in.ClientName = strings.TrimSpace(in.ClientName)
	if in.ClientName == "" {
		return fmt.Errorf("%w: client_name is required", apperr.ErrValidation)
	}
	return nil
}

func (s *Service) ListClients(ctx context.Context, caller *access.Caller) ([]models.Client, error) {
	if err := access.ViewPortfolio(caller); err != nil {
		return nil, err
	}
	var out []models.Client
	if err := s.db.WithContext(ctx).Order("client_name asc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return out, nil
}

func (s *Service) GetClient(ctx context.Context, caller *access.Caller, id string) (*models.Client, error) {
	if err := access.ViewPortfolio(caller); err != nil {
		return nil, err
	}
	return s.findClient(ctx, id)
}

func (s *Service) CreateClient(ctx context.Context, caller *access.Caller, in ClientInput) (*models.Client, error) {
	if err := access.ManageUsersAndClients(caller); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	client := &models.Client{
		ClientName:          in.ClientName,
		Industry:            in.Industry,
		Notes:               in.Notes,
		PrimaryContactName:  in.PrimaryContactName,
		PrimaryContactEmail: in.PrimaryContactEmail,
	}
	if err := s.db.WithContext(ctx).Create(client).Error; err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}

	s.activity.Record(ctx, activity.Entry{
		ActorUserID: caller.UserID,
		EntityType:  models.EntityClient,
		EntityID:    client.ID,
		Action:      models.ActionCreate,
		Message:     "Created client: " + client.ClientName,
	})
	return client, nil
}

// UpdateClient заменяет все поля клиента.
func (s *Service) UpdateClient(ctx context.Context, caller *access.Caller, id string, in ClientInput) (*models.Client, error) {
	if err := access.ManageUsersAndClients(caller); err != nil {
		return nil, err
	}
	if err := in.normalize(); err != nil {
		return nil, err
	}

	client, err := s.findClient(ctx, id)
	if err != nil {
		return nil, err
	}
	changes := map[string]any{
		"client_name":           in.ClientName,
		"industry":              in.Industry,
		"notes":                 in.Notes,
		"primary_contact_name":  in.PrimaryContactName,
		"primary_contact_email": in.PrimaryContactEmail,
	}
	if err := s.db.WithContext(ctx).Model(client).Updates(changes).Error; err != nil {
		return nil, fmt.Errorf("update client: %w", err)
	}

	s.activity.Record(ctx, activity.Entry{
		ActorUserID: caller.UserID,
		EntityType:  models.EntityClient,
		EntityID:    id,
		Action:      models.ActionUpdate,
		Message:     "Updated client",
		Changes:     changes,
	})
	return s.findClient(ctx, id)
}

// DeleteClient не трогает engagement клиента: при чтении у них client = null.
func (s *Service) DeleteClient(ctx context.Context, caller *access.Caller, id string) error {
	if err := access.Delete(caller); err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Delete(&models.Client{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("delete client: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: client %s", apperr.ErrNotFound, id)
	}

	s.activity.Record(ctx, activity.Entry{
		ActorUserID: caller.UserID,
		EntityType:  models.EntityClient,
		EntityID:    id,
		Action:      models.ActionDelete,
		Message:     "Deleted client",
	})
	return nil
}

func (s *Service) findClient(ctx context.Context, id string) (*models.Client, error) {
	var client models.Client
	err := s.db.WithContext(ctx).First(&client, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: client %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("find client: %w", err)
	}
	return &client, nil
}
