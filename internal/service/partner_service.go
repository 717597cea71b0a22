package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"gorm.io/gorm"
)

// DTOs
type CreatePartnerRequest struct {
	Name          string `json:"name" binding:"required"`
	Type          string `json:"type" binding:"required,oneof=CUSTOMER SUPPLIER BOTH"`
	TaxCode       string `json:"tax_code"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email" binding:"omitempty,email"`
}

type UpdatePartnerRequest struct {
	Name          string `json:"name"`
	Type          string `json:"type" binding:"omitempty,oneof=CUSTOMER SUPPLIER BOTH"`
	TaxCode       string `json:"tax_code"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email" binding:"omitempty,email"`
	IsActive      *bool  `json:"is_active"`
}

type PartnerService interface {
	Create(ctx context.Context, req CreatePartnerRequest) (*model.Partner, error)
	Update(ctx context.Context, partnerID string, req UpdatePartnerRequest) (*model.Partner, error)
	Get(ctx context.Context, partnerID string) (*model.Partner, error)
	List(ctx context.Context, partnerType string, page, limit int) ([]model.Partner, int64, error)
}

type partnerService struct {
	partnerRepo repository.PartnerRepository
}

func NewPartnerService(partnerRepo repository.PartnerRepository) PartnerService {
	return &partnerService{partnerRepo: partnerRepo}
}

func (s *partnerService) Create(ctx context.Context, req CreatePartnerRequest) (*model.Partner, error) {
	partner := &model.Partner{
		Name:          req.Name,
		Type:          req.Type,
		TaxCode:       req.TaxCode,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		IsActive:      true,
	}
	if err := s.partnerRepo.Create(ctx, partner); err != nil {
		return nil, fmt.Errorf("failed to create partner: %w", err)
	}
	return partner, nil
}

func (s *partnerService) Update(ctx context.Context, partnerID string, req UpdatePartnerRequest) (*model.Partner, error) {
	id, err := parseID("partner id", partnerID)
	if err != nil {
		return nil, err
	}
	partner, err := s.partnerRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "partner %s not found", partnerID)
		}
		return nil, fmt.Errorf("failed to find partner: %w", err)
	}

	if req.Name != "" {
		partner.Name = req.Name
	}
	if req.Type != "" {
		partner.Type = req.Type
	}
	if req.TaxCode != "" {
		partner.TaxCode = req.TaxCode
	}
	if req.ContactPerson != "" {
		partner.ContactPerson = req.ContactPerson
	}
	if req.Phone != "" {
		partner.Phone = req.Phone
	}
	if req.Email != "" {
		partner.Email = req.Email
	}
	if req.IsActive != nil {
		partner.IsActive = *req.IsActive
	}

	if err := s.partnerRepo.Update(ctx, partner); err != nil {
		return nil, fmt.Errorf("failed to update partner: %w", err)
	}
	return partner, nil
}

func (s *partnerService) Get(ctx context.Context, partnerID string) (*model.Partner, error) {
	id, err := parseID("partner id", partnerID)
	if err != nil {
		return nil, err
	}
	partner, err := s.partnerRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "partner %s not found", partnerID)
		}
		return nil, fmt.Errorf("failed to find partner: %w", err)
	}
	return partner, nil
}

func (s *partnerService) List(ctx context.Context, partnerType string, page, limit int) ([]model.Partner, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.partnerRepo.List(ctx, partnerType, page, limit)
}
