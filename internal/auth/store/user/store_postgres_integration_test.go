//go:build integration

package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rehabdocs/internal/auth/models"
	"rehabdocs/internal/auth/store/user"
	id "rehabdocs/pkg/domain"
	"rehabdocs/pkg/platform/sentinel"
	"rehabdocs/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *user.PostgresStore
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
	s.store = user.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "users")
	s.Require().NoError(err)
}

func newTestUser(email string) *models.User {
	now := time.Now()
	return &models.User{
		ID:           id.NewUserID(),
		Email:        email,
		PasswordHash: "$2a$10$fakehashfakehashfakehash",
		Name:         "관리자",
		Role:         models.RoleAdmin,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *PostgresStoreSuite) TestSaveAndFind() {
	ctx := context.Background()
	u := newTestUser("admin@example.com")
	s.Require().NoError(s.store.Save(ctx, u))

	byID, err := s.store.FindByID(ctx, u.ID)
	s.Require().NoError(err)
	s.Equal(u.Email, byID.Email)
	s.Equal(models.RoleAdmin, byID.Role)
	s.True(byID.IsActive)

	byEmail, err := s.store.FindByEmail(ctx, "admin@example.com")
	s.Require().NoError(err)
	s.Equal(u.ID, byEmail.ID)
}

func (s *PostgresStoreSuite) TestFindMissing() {
	ctx := context.Background()
	_, err := s.store.FindByID(ctx, id.NewUserID())
	s.ErrorIs(err, sentinel.ErrNotFound)

	_, err = s.store.FindByEmail(ctx, "nobody@example.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDuplicateEmailRejected() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, newTestUser("dup@example.com")))
	s.Error(s.store.Save(ctx, newTestUser("dup@example.com")))
}

func (s *PostgresStoreSuite) TestCount() {
	ctx := context.Background()
	n, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Zero(n)

	s.Require().NoError(s.store.Save(ctx, newTestUser("a@example.com")))
	s.Require().NoError(s.store.Save(ctx, newTestUser("b@example.com")))

	n, err = s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(2, n)
}
