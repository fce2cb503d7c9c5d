package service

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"time"

	"golang.org/x/crypto/pkcs12"

	"rehabdocs/internal/audit"
	"rehabdocs/internal/client/models"
	id "rehabdocs/pkg/domain"
	dErrors "rehabdocs/pkg/domain-errors"
	"rehabdocs/pkg/requestcontext"
)

// CertificateInfo is the safe projection of a stored certificate.
type CertificateInfo struct {
	HasCertificate bool
	Subject        string
	ValidUntil     time.Time
	Expired        bool
}

// RegisterCertificate parses an NPKI PKCS#12 bundle, verifies the password
// against it, and stores the certificate and key sealed. The password itself
// is discarded: auto-issuance reuses the extracted key, not the bundle.
func (s *Service) RegisterCertificate(ctx context.Context, clientID id.ClientID, pfxData []byte, password string) (*CertificateInfo, error) {
	client, err := s.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if len(pfxData) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "certificate file is required")
	}

	certPEM, keyPEM, cert, err := decodePKCS12(pfxData, password)
	if err != nil {
		return nil, err
	}
	if time.Now().After(cert.NotAfter) {
		return nil, dErrors.New(dErrors.CodeValidation, "certificate has expired")
	}

	sealedCert, err := s.sealer.Seal(certPEM)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "seal certificate")
	}
	sealedKey, err := s.sealer.Seal(keyPEM)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "seal certificate key")
	}

	client.Certificate = &models.Certificate{
		CertPEMSealed: sealedCert,
		KeyPEMSealed:  sealedKey,
		Subject:       cert.Subject.String(),
		ValidUntil:    cert.NotAfter,
	}
	client.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, client); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "save client")
	}

	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionCertRegistered,
		ActorID:   requestcontext.UserID(ctx),
		Entity:    "client",
		EntityID:  clientID.String(),
		Detail:    cert.Subject.CommonName,
		RequestID: requestcontext.RequestID(ctx),
	})
	return &CertificateInfo{
		HasCertificate: true,
		Subject:        cert.Subject.String(),
		ValidUntil:     cert.NotAfter,
	}, nil
}

// Certificate reports the registration state of a client's certificate.
func (s *Service) Certificate(ctx context.Context, clientID id.ClientID) (*CertificateInfo, error) {
	client, err := s.Get(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client.Certificate == nil {
		return &CertificateInfo{}, nil
	}
	return &CertificateInfo{
		HasCertificate: true,
		Subject:        client.Certificate.Subject,
		ValidUntil:     client.Certificate.ValidUntil,
		Expired:        client.Certificate.Expired(time.Now()),
	}, nil
}

// RemoveCertificate discards a client's stored certificate material.
func (s *Service) RemoveCertificate(ctx context.Context, clientID id.ClientID) error {
	client, err := s.Get(ctx, clientID)
	if err != nil {
		return err
	}
	if client.Certificate == nil {
		return nil
	}
	client.Certificate = nil
	client.UpdatedAt = time.Now()
	if err := s.store.Save(ctx, client); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "save client")
	}

	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionCertRemoved,
		ActorID:   requestcontext.UserID(ctx),
		Entity:    "client",
		EntityID:  clientID.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	return nil
}

// CertificatePEM unseals the certificate and key for an auto-issue request.
// The client must hold an unexpired certificate.
func (s *Service) CertificatePEM(ctx context.Context, clientID id.ClientID) (certPEM, keyPEM string, err error) {
	client, err := s.Get(ctx, clientID)
	if err != nil {
		return "", "", err
	}
	cert := client.Certificate
	if cert == nil {
		return "", "", dErrors.New(dErrors.CodeInvalidAuth, "client has no certificate registered")
	}
	if cert.Expired(time.Now()) {
		return "", "", dErrors.New(dErrors.CodeInvalidAuth, "client certificate has expired")
	}

	certPEM, err = s.sealer.Open(cert.CertPEMSealed)
	if err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeInternal, "unseal certificate")
	}
	keyPEM, err = s.sealer.Open(cert.KeyPEMSealed)
	if err != nil {
		return "", "", dErrors.Wrap(err, dErrors.CodeInternal, "unseal certificate key")
	}
	return certPEM, keyPEM, nil
}

// decodePKCS12 opens a .pfx/.p12 bundle with the supplied password and
// re-encodes its contents as PEM. A wrong password surfaces as a validation
// error, not an internal one.
func decodePKCS12(pfxData []byte, password string) (certPEM, keyPEM string, cert *x509.Certificate, err error) {
	key, cert, err := pkcs12.Decode(pfxData, password)
	if err != nil {
		return "", "", nil, dErrors.New(dErrors.CodeValidation, "certificate file or password is invalid")
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return "", "", nil, dErrors.Wrap(err, dErrors.CodeInternal, "encode private key")
	}

	certPEM = string(pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw}))
	keyPEM = string(pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER}))
	return certPEM, keyPEM, cert, nil
}
