// Package issuer talks to the Hyphen document issuance gateway: OAuth
// client-credentials tokens, the gateway's AES/Base64 identity encryption,
// and one endpoint per issuable document type.
package issuer

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"rehabdocs/internal/catalog"
	"rehabdocs/internal/platform/config"
	dErrors "rehabdocs/pkg/domain-errors"
)

// AuthMethod selects how the gateway verifies the subject's identity.
type AuthMethod string

const (
	AuthCertificate AuthMethod = "certificate"
	AuthCarrier     AuthMethod = "carrier"
)

// Request carries one issuance call. ResidentNumber is encrypted before it
// leaves the process; the plaintext is never logged.
type Request struct {
	DocType        catalog.DocumentType
	Name           string
	ResidentNumber string
	AuthMethod     AuthMethod

	// Carrier auth: the gateway pushes an approval prompt to the phone.
	Phone   string
	Telecom string

	// Certificate auth: NPKI material in PEM form.
	CertPEM string
	KeyPEM  string
}

// Result is a successfully issued document.
type Result struct {
	Payload  []byte
	FileName string
	MimeType string
	IssuedAt time.Time
}

// endpointPaths maps each auto-issuable document type to its gateway API.
var endpointPaths = map[catalog.DocumentType]string{
	catalog.DocHealthInsuranceCert: "/in0002000231",
	catalog.DocPensionCert:         "/in0002000190",
	catalog.DocResidentRegister:    "/in0001000234",
	catalog.DocResidentAbstract:    "/in0001000235",
	catalog.DocIncomeCert:          "/in0002000121",
	catalog.DocLocalTaxCert:        "/in0001000282",
}

// Client is the HTTP client for the gateway. Safe for concurrent use; the
// OAuth token is cached until shortly before expiry.
type Client struct {
	cfg  config.IssuerConfig
	http *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

func NewClient(cfg config.IssuerConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Issue performs one issuance call. Timeouts map to CodeTimeout so callers
// can distinguish a slow carrier approval from a gateway rejection.
func (c *Client) Issue(ctx context.Context, req Request) (*Result, error) {
	path, ok := endpointPaths[req.DocType]
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeValidation, "document type %q cannot be auto-issued", req.DocType)
	}

	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	encRRN, err := c.encryptIdentity(req.ResidentNumber)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encrypt identity")
	}

	body := map[string]any{
		"loginMethod": string(req.AuthMethod),
		"userName":    req.Name,
		"userIdentity": map[string]string{
			"encYn": "Y",
			"value": encRRN,
		},
	}
	switch req.AuthMethod {
	case AuthCarrier:
		body["mobileNo"] = req.Phone
		body["telecom"] = req.Telecom
	case AuthCertificate:
		body["signCert"] = req.CertPEM
		body["signPri"] = req.KeyPEM
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode issue request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "build issue request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)
	httpReq.Header.Set("user-id", c.cfg.UserID)
	httpReq.Header.Set("Hkey", c.cfg.APIKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, dErrors.Wrap(err, dErrors.CodeTimeout, "issuance timed out")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeExternal, "issuance request failed")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeExternal, "read issuance response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, dErrors.Newf(dErrors.CodeExternal, "issuer returned status %d", resp.StatusCode)
	}

	var out struct {
		Common struct {
			ErrYn  string `json:"errYn"`
			ErrMsg string `json:"errMsg"`
		} `json:"common"`
		Data struct {
			PDFFile  string `json:"pdfFile"`
			FileName string `json:"fileName"`
		} `json:"data"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeExternal, "decode issuance response")
	}
	if out.Common.ErrYn == "Y" {
		return nil, dErrors.Newf(dErrors.CodeExternal, "issuer rejected request: %s", out.Common.ErrMsg)
	}
	if out.Data.PDFFile == "" {
		return nil, dErrors.New(dErrors.CodeExternal, "issuer returned no document")
	}

	pdf, err := base64.StdEncoding.DecodeString(out.Data.PDFFile)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeExternal, "decode issued document")
	}

	fileName := out.Data.FileName
	if fileName == "" {
		fileName = catalog.DocumentName(req.DocType) + ".pdf"
	}
	return &Result{
		Payload:  pdf,
		FileName: fileName,
		MimeType: "application/pdf",
		IssuedAt: time.Now(),
	}, nil
}

// accessToken returns a cached token, refreshing when within a minute of
// expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" && time.Until(c.tokenExpiry) > time.Minute {
		return c.token, nil
	}

	payload, err := json.Marshal(map[string]string{
		"user_id":    c.cfg.UserID,
		"hkey":       c.cfg.APIKey,
		"grant_type": "client_credentials",
	})
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "encode token request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/oauth/token", bytes.NewReader(payload))
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "build token request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", dErrors.Wrap(err, dErrors.CodeTimeout, "token request timed out")
		}
		return "", dErrors.Wrap(err, dErrors.CodeExternal, "token request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", dErrors.Newf(dErrors.CodeExternal, "token endpoint returned status %d", resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeExternal, "decode token response")
	}
	if out.AccessToken == "" {
		return "", dErrors.New(dErrors.CodeExternal, "token endpoint returned no token")
	}

	c.token = out.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	return c.token, nil
}

// encryptIdentity applies the gateway's scheme: AES-128-CBC with the
// issuer-assigned ekey doubling as the IV, PKCS#7 padding, then Base64.
func (c *Client) encryptIdentity(plain string) (string, error) {
	key := []byte(c.cfg.EncryptionKey)
	if len(key) != aes.BlockSize {
		return "", fmt.Errorf("issuer encryption key must be %d bytes", aes.BlockSize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}

	data := pkcs7Pad([]byte(plain), aes.BlockSize)
	out := make([]byte, len(data))
	cipher.NewCBCEncrypter(block, key).CryptBlocks(out, data)
	return base64.StdEncoding.EncodeToString(out), nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	pad := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+pad)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(pad)
	}
	return padded
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	if errors.As(err, &t) && t.Timeout() {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}
