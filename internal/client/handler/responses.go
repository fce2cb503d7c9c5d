package handler

import (
	"time"

	"rehabdocs/internal/client/models"
	"rehabdocs/internal/client/service"
)

// ClientResponse is the list projection of a client.
type ClientResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone,omitempty"`
	Email          string    `json:"email,omitempty"`
	Address        string    `json:"address,omitempty"`
	Memo           string    `json:"memo,omitempty"`
	HasCertificate bool      `json:"has_certificate"`
	CreatedAt      time.Time `json:"created_at"`
}

// ClientDetailResponse adds the masked resident number.
type ClientDetailResponse struct {
	ClientResponse
	ResidentNumberMasked string `json:"resident_number_masked,omitempty"`
}

// ClientListResponse is the HTTP response for GET /clients.
type ClientListResponse struct {
	Items  []*ClientResponse `json:"items"`
	Total  int               `json:"total"`
	Offset int               `json:"offset"`
	Limit  int               `json:"limit"`
}

// CertificateResponse is the HTTP response for the certificate endpoints.
type CertificateResponse struct {
	HasCertificate bool   `json:"has_certificate"`
	Subject        string `json:"subject,omitempty"`
	ValidUntil     string `json:"valid_until,omitempty"`
	Expired        bool   `json:"expired"`
}

func (h *Handler) clientResponse(c *models.Client) *ClientResponse {
	return &ClientResponse{
		ID:             c.ID.String(),
		Name:           c.Name,
		Phone:          c.Phone,
		Email:          c.Email,
		Address:        c.Address,
		Memo:           c.Memo,
		HasCertificate: c.Certificate != nil,
		CreatedAt:      c.CreatedAt,
	}
}

func (h *Handler) clientDetail(c *models.Client) *ClientDetailResponse {
	return &ClientDetailResponse{
		ClientResponse:       *h.clientResponse(c),
		ResidentNumberMasked: h.service.MaskedResidentNumber(c),
	}
}

// FromCertificateInfo converts certificate info to its response form.
func FromCertificateInfo(info *service.CertificateInfo) *CertificateResponse {
	resp := &CertificateResponse{
		HasCertificate: info.HasCertificate,
		Subject:        info.Subject,
		Expired:        info.Expired,
	}
	if !info.ValidUntil.IsZero() {
		resp.ValidUntil = info.ValidUntil.Format(time.RFC3339)
	}
	return resp
}
