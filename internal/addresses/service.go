package addresses

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ardakurt/kapinda-backend/pkg/db/models"
	pkgerrors "github.com/ardakurt/kapinda-backend/pkg/errors"
)

type addressRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	Create(ctx context.Context, address *models.Address) error
	SetDefault(ctx context.Context, userID, addressID uuid.UUID) error
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
}

// AddressDTO is the read model returned to clients.
type AddressDTO struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone"`
	City         string    `json:"city"`
	District     string    `json:"district"`
	Neighborhood string    `json:"neighborhood"`
	FullAddress  string    `json:"full_address"`
	IsDefault    bool      `json:"is_default"`
}

// CreateAddressInput carries a new address.
type CreateAddressInput struct {
	Title        string `validate:"required,max=60"`
	FullName     string `validate:"required,max=120"`
	Phone        string `validate:"required,max=20"`
	City         string `validate:"required,max=60"`
	District     string `validate:"required,max=60"`
	Neighborhood string `validate:"required,max=80"`
	FullAddress  string `validate:"required,max=500"`
	IsDefault    bool
}

// Service exposes address book operations.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error)
	GetOwned(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateAddressInput) (*AddressDTO, error)
	SetDefault(ctx context.Context, userID, addressID uuid.UUID) error
	Delete(ctx context.Context, userID, addressID uuid.UUID) error
}

type service struct {
	repo addressRepository
}

// NewService builds an address service with the provided repository.
func NewService(repo addressRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]AddressDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "address book requires an authenticated user")
	}
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	out := make([]AddressDTO, 0, len(records))
	for i := range records {
		out = append(out, toDTO(&records[i]))
	}
	return out, nil
}

// GetOwned loads an address and verifies ownership. Checkout snapshots the
// returned model by value.
func (s *service) GetOwned(ctx context.Context, userID, addressID uuid.UUID) (*models.Address, error) {
	address, err := s.repo.FindByID(ctx, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load address")
	}
	if address.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return address, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID, input CreateAddressInput) (*AddressDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthenticated, "address book requires an authenticated user")
	}

	address := &models.Address{
		UserID:       userID,
		Title:        input.Title,
		FullName:     input.FullName,
		Phone:        input.Phone,
		City:         input.City,
		District:     input.District,
		Neighborhood: input.Neighborhood,
		FullAddress:  input.FullAddress,
	}
	if err := s.repo.Create(ctx, address); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
	}

	if input.IsDefault {
		if err := s.repo.SetDefault(ctx, userID, address.ID); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set default address")
		}
		address.IsDefault = true
	}

	dto := toDTO(address)
	return &dto, nil
}

func (s *service) SetDefault(ctx context.Context, userID, addressID uuid.UUID) error {
	if err := s.repo.SetDefault(ctx, userID, addressID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set default address")
	}
	return nil
}

func (s *service) Delete(ctx context.Context, userID, addressID uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, addressID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	return nil
}

func toDTO(address *models.Address) AddressDTO {
	return AddressDTO{
		ID:           address.ID,
		Title:        address.Title,
		FullName:     address.FullName,
		Phone:        address.Phone,
		City:         address.City,
		District:     address.District,
		Neighborhood: address.Neighborhood,
		FullAddress:  address.FullAddress,
		IsDefault:    address.IsDefault,
	}
}
