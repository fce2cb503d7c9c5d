package handler

import (
	"path/filepath"
	"strings"

	"rehabdocs/internal/client/service"
	dErrors "rehabdocs/pkg/domain-errors"
)

// CreateClientRequest is the HTTP request body for POST /clients.
type CreateClientRequest struct {
	Name           string `json:"name"`
	ResidentNumber string `json:"resident_number,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Email          string `json:"email,omitempty"`
	Address        string `json:"address,omitempty"`
	Memo           string `json:"memo,omitempty"`
}

// Validate implements httputil.Validator.
func (r *CreateClientRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

// ToParams converts the request to service parameters.
func (r *CreateClientRequest) ToParams() service.CreateParams {
	return service.CreateParams{
		Name:           r.Name,
		ResidentNumber: r.ResidentNumber,
		Phone:          r.Phone,
		Email:          r.Email,
		Address:        r.Address,
		Memo:           r.Memo,
	}
}

// UpdateClientRequest is the HTTP request body for PUT /clients/{clientID}.
// Absent fields are left unchanged.
type UpdateClientRequest struct {
	Name           *string `json:"name,omitempty"`
	ResidentNumber *string `json:"resident_number,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Email          *string `json:"email,omitempty"`
	Address        *string `json:"address,omitempty"`
	Memo           *string `json:"memo,omitempty"`
}

// ToParams converts the request to service parameters.
func (r *UpdateClientRequest) ToParams() service.UpdateParams {
	return service.UpdateParams{
		Name:           r.Name,
		ResidentNumber: r.ResidentNumber,
		Phone:          r.Phone,
		Email:          r.Email,
		Address:        r.Address,
		Memo:           r.Memo,
	}
}

func hasCertExtension(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pfx", ".p12":
		return true
	}
	return false
}
