package session

import (
	"context"
	"testing"
	"time"

	"rehabdocs/internal/auth/models"
	id "rehabdocs/pkg/domain"
	"rehabdocs/pkg/platform/sentinel"

	"github.com/stretchr/testify/suite"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *MemoryStore
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func makeSession(ttl time.Duration) *models.Session {
	now := time.Now()
	return &models.Session{
		ID:        id.NewSessionID(),
		UserID:    id.NewUserID(),
		Role:      models.RoleStaff,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

func (s *MemoryStoreSuite) TestCreateAndFind() {
	sess := makeSession(time.Hour)
	s.Require().NoError(s.store.Create(context.Background(), sess))

	found, err := s.store.FindByID(context.Background(), sess.ID)
	s.Require().NoError(err)
	s.Equal(sess.UserID, found.UserID)
	s.Equal(sess.Role, found.Role)
}

func (s *MemoryStoreSuite) TestExpiredSessionIsRejected() {
	sess := makeSession(-time.Minute)
	s.Require().NoError(s.store.Create(context.Background(), sess))

	_, err := s.store.FindByID(context.Background(), sess.ID)
	s.Require().ErrorIs(err, sentinel.ErrExpired)

	// Reaped on lookup, subsequent reads see not found.
	_, err = s.store.FindByID(context.Background(), sess.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestDelete() {
	sess := makeSession(time.Hour)
	s.Require().NoError(s.store.Create(context.Background(), sess))
	s.Require().NoError(s.store.Delete(context.Background(), sess.ID))

	_, err := s.store.FindByID(context.Background(), sess.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().ErrorIs(s.store.Delete(context.Background(), sess.ID), sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestDeleteByUser() {
	userID := id.NewUserID()
	for i := 0; i < 3; i++ {
		sess := makeSession(time.Hour)
		sess.UserID = userID
		s.Require().NoError(s.store.Create(context.Background(), sess))
	}
	other := makeSession(time.Hour)
	s.Require().NoError(s.store.Create(context.Background(), other))

	s.Require().NoError(s.store.DeleteByUser(context.Background(), userID))

	_, err := s.store.FindByID(context.Background(), other.ID)
	s.Require().NoError(err)
}
