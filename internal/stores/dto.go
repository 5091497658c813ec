package stores

import (
	"github.com/google/uuid"

	"github.com/ardakurt/kapinda-backend/pkg/db/models"
	"github.com/ardakurt/kapinda-backend/pkg/enums"
)

// StoreDTO is the read model returned to clients.
type StoreDTO struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Type              enums.StoreType `json:"type"`
	City              string          `json:"city"`
	District          *string         `json:"district,omitempty"`
	DeliveryWindowMin *int            `json:"delivery_window_min,omitempty"`
	DeliveryWindowMax *int            `json:"delivery_window_max,omitempty"`
	IsActive          bool            `json:"is_active"`
}

func toDTO(store *models.Store) *StoreDTO {
	if store == nil {
		return nil
	}
	return &StoreDTO{
		ID:                store.ID,
		Name:              store.Name,
		Type:              store.Type,
		City:              store.City,
		District:          store.District,
		DeliveryWindowMin: store.DeliveryWindowMin,
		DeliveryWindowMax: store.DeliveryWindowMax,
		IsActive:          store.IsActive,
	}
}
