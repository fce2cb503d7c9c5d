package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"rehabdocs/internal/audit"
	"rehabdocs/internal/client/store"
	"rehabdocs/internal/platform/crypto"
	"rehabdocs/internal/platform/metrics"
	id "rehabdocs/pkg/domain"
	dErrors "rehabdocs/pkg/domain-errors"
)

// fakeCaseCounter returns a fixed case count per client.
type fakeCaseCounter struct {
	counts map[id.ClientID]int
}

func (f *fakeCaseCounter) CountByClient(_ context.Context, clientID id.ClientID) (int, error) {
	return f.counts[clientID], nil
}

type ClientServiceSuite struct {
	suite.Suite
	store *store.InMemoryStore
	cases *fakeCaseCounter
	svc   *Service
}

func TestClientServiceSuite(t *testing.T) {
	suite.Run(t, new(ClientServiceSuite))
}

func (s *ClientServiceSuite) SetupTest() {
	s.store = store.NewMemory()
	s.cases = &fakeCaseCounter{counts: make(map[id.ClientID]int)}
	sealer, err := crypto.NewSealer("test-secret")
	s.Require().NoError(err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.svc = New(s.store, s.cases, sealer, audit.Nop{}, metrics.New(prometheus.NewRegistry()), logger)
}

func (s *ClientServiceSuite) TestCreateSealsResidentNumber() {
	client, err := s.svc.Create(context.Background(), CreateParams{
		Name:           "김철수",
		ResidentNumber: "900101-1234567",
		Phone:          "010-1234-5678",
	})
	s.Require().NoError(err)
	s.NotEmpty(client.ResidentNumberSealed)
	s.NotContains(client.ResidentNumberSealed, "900101", "resident number must not be stored in the clear")

	s.Equal("900101-1******", s.svc.MaskedResidentNumber(client))

	plain, err := s.svc.ResidentNumber(context.Background(), client.ID)
	s.Require().NoError(err)
	s.Equal("900101-1234567", plain)
}

func (s *ClientServiceSuite) TestCreateValidation() {
	_, err := s.svc.Create(context.Background(), CreateParams{Name: "  "})
	s.True(dErrors.Is(err, dErrors.CodeValidation))

	_, err = s.svc.Create(context.Background(), CreateParams{Name: "김철수", ResidentNumber: "123"})
	s.True(dErrors.Is(err, dErrors.CodeValidation))
}

func (s *ClientServiceSuite) TestCreateWithoutResidentNumber() {
	client, err := s.svc.Create(context.Background(), CreateParams{Name: "김철수"})
	s.Require().NoError(err)
	s.Empty(client.ResidentNumberSealed)
	s.Empty(s.svc.MaskedResidentNumber(client))

	_, err = s.svc.ResidentNumber(context.Background(), client.ID)
	s.True(dErrors.Is(err, dErrors.CodeInvalidAuth))
}

func (s *ClientServiceSuite) TestUpdatePartial() {
	client, err := s.svc.Create(context.Background(), CreateParams{Name: "김철수", Phone: "010-1111-2222"})
	s.Require().NoError(err)

	newPhone := "010-9999-8888"
	updated, err := s.svc.Update(context.Background(), client.ID, UpdateParams{Phone: &newPhone})
	s.Require().NoError(err)
	s.Equal("010-9999-8888", updated.Phone)
	s.Equal("김철수", updated.Name, "unset fields stay untouched")

	empty := " "
	_, err = s.svc.Update(context.Background(), client.ID, UpdateParams{Name: &empty})
	s.True(dErrors.Is(err, dErrors.CodeValidation))
}

func (s *ClientServiceSuite) TestDeleteRefusedWhileCasesExist() {
	client, err := s.svc.Create(context.Background(), CreateParams{Name: "김철수"})
	s.Require().NoError(err)
	s.cases.counts[client.ID] = 2

	err = s.svc.Delete(context.Background(), client.ID)
	s.Require().Error(err)
	s.True(dErrors.Is(err, dErrors.CodeConflict))

	// Still present.
	_, err = s.svc.Get(context.Background(), client.ID)
	s.Require().NoError(err)

	s.cases.counts[client.ID] = 0
	s.Require().NoError(s.svc.Delete(context.Background(), client.ID))
	_, err = s.svc.Get(context.Background(), client.ID)
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *ClientServiceSuite) TestGetUnknownClient() {
	_, err := s.svc.Get(context.Background(), id.NewClientID())
	s.True(dErrors.Is(err, dErrors.CodeNotFound))
}

func (s *ClientServiceSuite) TestCertificateLifecycle() {
	client, err := s.svc.Create(context.Background(), CreateParams{Name: "김철수"})
	s.Require().NoError(err)

	s.Run("no certificate initially", func() {
		info, err := s.svc.Certificate(context.Background(), client.ID)
		s.Require().NoError(err)
		s.False(info.HasCertificate)

		_, _, err = s.svc.CertificatePEM(context.Background(), client.ID)
		s.True(dErrors.Is(err, dErrors.CodeInvalidAuth))
	})

	s.Run("garbage bundle is a validation error", func() {
		_, err := s.svc.RegisterCertificate(context.Background(), client.ID, []byte("not-a-pkcs12-bundle"), "pw")
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("empty file is a validation error", func() {
		_, err := s.svc.RegisterCertificate(context.Background(), client.ID, nil, "pw")
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})

	s.Run("removing a missing certificate is a no-op", func() {
		s.Require().NoError(s.svc.RemoveCertificate(context.Background(), client.ID))
	})
}

func (s *ClientServiceSuite) TestListClampsPaging() {
	for i := 0; i < 3; i++ {
		_, err := s.svc.Create(context.Background(), CreateParams{Name: "의뢰인"})
		s.Require().NoError(err)
	}

	clients, total, err := s.svc.List(context.Background(), store.ListFilter{Limit: 1000, Offset: -5})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Len(clients, 3)
}
