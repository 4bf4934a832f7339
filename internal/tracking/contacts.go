package tracking

import (
	"context"
	"fmt"

	"engagement-pulse/internal/access"
	"engagement-pulse/internal/models"
)

var contactMeta = meta{entity: models.EntityContact, noun: "contact"}

type ContactInput struct {
	EngagementID string             `json:"engagement_id" binding:"required"`
	Name         string             `json:"name" binding:"required"`
	Title        string             `json:"title"`
	Email        string             `json:"email" binding:"omitempty,email"`
	Phone        string             `json:"phone"`
	Type         models.ContactType `json:"type" binding:"required,contact_type"`
	Notes        string             `json:"notes"`
}

func (in ContactInput) validate() error {
	if err := required(map[string]string{"engagement_id": in.EngagementID, "name": in.Name}); err != nil {
		return err
	}
	if !in.Type.Valid() {
		return invalid("type", in.Type)
	}
	return nil
}

type ContactPatch struct {
	Name  *string             `json:"name"`
	Title *string             `json:"title"`
	Email *string             `json:"email" binding:"omitempty,email"`
	Phone *string             `json:"phone"`
	Type  *models.ContactType `json:"type" binding:"omitempty,contact_type"`
	Notes *string             `json:"notes"`
}

func (p ContactPatch) changes() (map[string]any, error) {
	ch := map[string]any{}
	if p.Name != nil {
		if *p.Name == "" {
			return nil, invalid("name", "empty")
		}
		ch["name"] = *p.Name
	}
	if p.Title != nil {
		ch["title"] = *p.Title
	}
	if p.Email != nil {
		ch["email"] = *p.Email
	}
	if p.Phone != nil {
		ch["phone"] = *p.Phone
	}
	if p.Type != nil {
		if !p.Type.Valid() {
			return nil, invalid("type", *p.Type)
		}
		ch["type"] = *p.Type
	}
	if p.Notes != nil {
		ch["notes"] = *p.Notes
	}
	return ch, nil
}

func (s *Service) ListContacts(ctx context.Context, caller *access.Caller, engagementID string) ([]models.Contact, error) {
	q, err := s.scoped(ctx, caller, engagementID)
	if err != nil {
		return nil, err
	}

	var out []models.Contact
	if err := q.Order("name asc").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return out, nil
}

func (s *Service) CreateContact(ctx context.Context, caller *access.Caller, in ContactInput) (*models.Contact, error) {
	if err := access.ManageEngagementData(caller); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	c := &models.Contact{
		EngagementID: in.EngagementID,
		Name:         in.Name,
		Title:        in.Title,
		Email:        in.Email,
		Phone:        in.Phone,
		Type:         in.Type,
		Notes:        in.Notes,
	}
	err := create(ctx, s, caller, in.EngagementID, c, contactMeta, func(c *models.Contact) (string, string) {
		return c.ID, c.Name
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateContact(ctx context.Context, caller *access.Caller, id string, p ContactPatch) (*models.Contact, error) {
	if err := access.ManageEngagementData(caller); err != nil {
		return nil, err
	}
	changes, err := p.changes()
	if err != nil {
		return nil, err
	}
	return update(ctx, s, caller, id, changes, contactMeta, func(c *models.Contact) string { return c.EngagementID })
}

func (s *Service) DeleteContact(ctx context.Context, caller *access.Caller, id string) error {
	return remove(ctx, s, caller, id, contactMeta, func(c *models.Contact) string { return c.EngagementID })
}
