package handler

import (
	"strings"

	"rehabdocs/internal/casefile/service"
	id "rehabdocs/pkg/domain"
	dErrors "rehabdocs/pkg/domain-errors"
)

// CreateCaseRequest is the HTTP request body for POST /cases.
type CreateCaseRequest struct {
	ClientID   string `json:"client_id"`
	Court      string `json:"court"`
	CaseNumber string `json:"case_number"`
	Memo       string `json:"memo"`
}

func (r *CreateCaseRequest) Validate() error {
	if strings.TrimSpace(r.ClientID) == "" {
		return dErrors.New(dErrors.CodeValidation, "client_id is required")
	}
	if strings.TrimSpace(r.Court) == "" {
		return dErrors.New(dErrors.CodeValidation, "court is required")
	}
	return nil
}

// ToParams converts the request to service parameters.
func (r *CreateCaseRequest) ToParams() (service.CreateParams, error) {
	clientID, err := id.ParseClientID(r.ClientID)
	if err != nil {
		return service.CreateParams{}, err
	}
	return service.CreateParams{
		ClientID:   clientID,
		Court:      r.Court,
		CaseNumber: r.CaseNumber,
		Memo:       r.Memo,
	}, nil
}

// UpdateCaseRequest is the HTTP request body for PUT /cases/{caseID}.
// Absent fields are left unchanged.
type UpdateCaseRequest struct {
	Court      *string `json:"court"`
	CaseNumber *string `json:"case_number"`
	Status     *string `json:"status"`
	Memo       *string `json:"memo"`
}

func (r *UpdateCaseRequest) Validate() error {
	if r.Court == nil && r.CaseNumber == nil && r.Status == nil && r.Memo == nil {
		return dErrors.New(dErrors.CodeValidation, "at least one field must be provided")
	}
	return nil
}

// ToParams converts the request to service parameters.
func (r *UpdateCaseRequest) ToParams() service.UpdateParams {
	return service.UpdateParams{
		Court:      r.Court,
		CaseNumber: r.CaseNumber,
		Status:     r.Status,
		Memo:       r.Memo,
	}
}
