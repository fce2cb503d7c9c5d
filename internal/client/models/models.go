// Package models holds the client registry entities. A client is the debtor
// on whose behalf filings are prepared.
package models

import (
	"strings"
	"time"

	id "rehabdocs/pkg/domain"
)

// Client is one registered debtor. ResidentNumberSealed and the certificate
// material are ciphertext produced by the platform sealer; plaintext never
// reaches a store.
type Client struct {
	ID                   id.ClientID
	Name                 string
	ResidentNumberSealed string
	Phone                string
	Email                string
	Address              string
	Memo                 string
	Certificate          *Certificate
	CreatedBy            id.UserID
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// Certificate is the sealed NPKI certificate used for auto-issuance. The
// password protecting the original PKCS#12 file is verified at registration
// and never stored.
type Certificate struct {
	CertPEMSealed string
	KeyPEMSealed  string
	Subject       string
	ValidUntil    time.Time
}

// Expired reports whether the certificate has passed its validity window.
func (c *Certificate) Expired(now time.Time) bool {
	return now.After(c.ValidUntil)
}

// MaskResidentNumber renders a resident registration number with only the
// birth date and the leading digit of the serial visible, the way it appears
// on redacted court filings. Unparseable values are fully masked.
func MaskResidentNumber(rrn string) string {
	if rrn == "" {
		return ""
	}
	digits := strings.ReplaceAll(rrn, "-", "")
	if len(digits) != 13 {
		return "*******"
	}
	return digits[:6] + "-" + digits[6:7] + "******"
}
