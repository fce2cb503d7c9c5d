//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"rehabdocs/internal/client/models"
	"rehabdocs/internal/client/store"
	id "rehabdocs/pkg/domain"
	"rehabdocs/pkg/platform/sentinel"
	"rehabdocs/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx, "documents", "checklist_entries", "cases", "clients")
	s.Require().NoError(err)
}

func newTestClient(name string) *models.Client {
	now := time.Now()
	return &models.Client{
		ID:        id.NewClientID(),
		Name:      name,
		Phone:     "010-1234-5678",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *PostgresStoreSuite) TestSaveAndFindRoundTrip() {
	ctx := context.Background()
	c := newTestClient("홍길동")
	c.ResidentNumberSealed = "sealed:rrn"
	c.Certificate = &models.Certificate{
		CertPEMSealed: "sealed:cert",
		KeyPEMSealed:  "sealed:key",
		Subject:       "CN=홍길동",
		ValidUntil:    time.Now().Add(365 * 24 * time.Hour),
	}
	s.Require().NoError(s.store.Save(ctx, c))

	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Equal(c.Name, found.Name)
	s.Equal("sealed:rrn", found.ResidentNumberSealed)
	s.Require().NotNil(found.Certificate)
	s.Equal("sealed:cert", found.Certificate.CertPEMSealed)
	s.Equal("CN=홍길동", found.Certificate.Subject)
	s.WithinDuration(c.Certificate.ValidUntil, found.Certificate.ValidUntil, time.Second)
}

func (s *PostgresStoreSuite) TestSaveUpsertsCertificateRemoval() {
	ctx := context.Background()
	c := newTestClient("홍길동")
	c.Certificate = &models.Certificate{
		CertPEMSealed: "sealed:cert",
		KeyPEMSealed:  "sealed:key",
		ValidUntil:    time.Now().Add(time.Hour),
	}
	s.Require().NoError(s.store.Save(ctx, c))

	c.Certificate = nil
	s.Require().NoError(s.store.Save(ctx, c))

	found, err := s.store.FindByID(ctx, c.ID)
	s.Require().NoError(err)
	s.Nil(found.Certificate)
}

func (s *PostgresStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(context.Background(), id.NewClientID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	c := newTestClient("홍길동")
	s.Require().NoError(s.store.Save(ctx, c))

	s.Require().NoError(s.store.Delete(ctx, c.ID))
	s.ErrorIs(s.store.Delete(ctx, c.ID), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestListSearchAndPaging() {
	ctx := context.Background()
	names := []string{"홍길동", "김철수", "김영희"}
	for i, name := range names {
		c := newTestClient(name)
		c.CreatedAt = time.Now().Add(time.Duration(i) * time.Millisecond)
		c.UpdatedAt = c.CreatedAt
		s.Require().NoError(s.store.Save(ctx, c))
	}

	matched, total, err := s.store.List(ctx, store.ListFilter{Search: "김", Limit: 10})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Len(matched, 2)

	page, total, err := s.store.List(ctx, store.ListFilter{Offset: 2, Limit: 10})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Len(page, 1)
}

func (s *PostgresStoreSuite) TestListMatchesPhone() {
	ctx := context.Background()
	c := newTestClient("홍길동")
	c.Phone = "010-9999-0000"
	s.Require().NoError(s.store.Save(ctx, c))
	s.Require().NoError(s.store.Save(ctx, newTestClient("김철수")))

	matched, total, err := s.store.List(ctx, store.ListFilter{Search: "9999", Limit: 10})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(matched, 1)
	s.Equal(c.ID, matched[0].ID)
}

func (s *PostgresStoreSuite) TestConcurrentSaves() {
	ctx := context.Background()
	const goroutines = 30

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := newTestClient("Client " + uuid.NewString())
			if err := s.store.Save(ctx, c); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(0), failures.Load())
	_, total, err := s.store.List(ctx, store.ListFilter{Limit: goroutines})
	s.Require().NoError(err)
	s.Equal(goroutines, total)
}
