package controllers

import (
	"net/http"

	"github.com/ardakurt/kapinda-backend/api/responses"
	"github.com/ardakurt/kapinda-backend/api/validators"
	addresssvc "github.com/ardakurt/kapinda-backend/internal/addresses"
	pkgerrors "github.com/ardakurt/kapinda-backend/pkg/errors"
	"github.com/ardakurt/kapinda-backend/pkg/logger"
)

type createAddressRequest struct {
	Title        string `json:"title" validate:"required,max=60"`
	FullName     string `json:"full_name" validate:"required,max=120"`
	Phone        string `json:"phone" validate:"required,max=20"`
	City         string `json:"city" validate:"required,max=60"`
	District     string `json:"district" validate:"required,max=60"`
	Neighborhood string `json:"neighborhood" validate:"required,max=80"`
	FullAddress  string `json:"full_address" validate:"required,max=500"`
	IsDefault    bool   `json:"is_default"`
}

// ListAddresses returns the caller's address book, default first.
func ListAddresses(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		records, err := svc.List(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, records)
	}
}

// CreateAddress saves a new delivery address.
func CreateAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createAddressRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.Create(r.Context(), userID, addresssvc.CreateAddressInput{
			Title:        payload.Title,
			FullName:     payload.FullName,
			Phone:        payload.Phone,
			City:         payload.City,
			District:     payload.District,
			Neighborhood: payload.Neighborhood,
			FullAddress:  payload.FullAddress,
			IsDefault:    payload.IsDefault,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// SetDefaultAddress flips the default flag to the given address.
func SetDefaultAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addressID, err := pathUUID(r, "addressId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetDefault(r.Context(), userID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}

// DeleteAddress removes an address owned by the caller.
func DeleteAddress(svc addresssvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "address service unavailable"))
			return
		}

		userID, err := userIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		addressID, err := pathUUID(r, "addressId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), userID, addressID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
