package handler

import (
	"strings"

	dErrors "rehabdocs/pkg/domain-errors"
)

// SetStatusRequest is the HTTP request body for
// PUT /documents/required/{entryID}/status.
type SetStatusRequest struct {
	Status string `json:"status"`
}

func (r *SetStatusRequest) Validate() error {
	if strings.TrimSpace(r.Status) == "" {
		return dErrors.New(dErrors.CodeValidation, "status is required")
	}
	return nil
}
