//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	casemodels "rehabdocs/internal/casefile/models"
	casestore "rehabdocs/internal/casefile/store"
	"rehabdocs/internal/catalog"
	clientmodels "rehabdocs/internal/client/models"
	clientstore "rehabdocs/internal/client/store"
	"rehabdocs/internal/document/models"
	"rehabdocs/internal/document/store"
	id "rehabdocs/pkg/domain"
	"rehabdocs/pkg/platform/sentinel"
	"rehabdocs/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
	caseID   id.CaseID
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

	now := time.Now()
	client := &clientmodels.Client{
		ID:        id.NewClientID(),
		Name:      "홍길동",
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(clientstore.NewPostgres(s.postgres.DB).Save(ctx, client))

	c := &casemodels.Case{
		ID:        id.NewCaseID(),
		ClientID:  client.ID,
		Court:     catalog.CourtDaegu,
		Status:    casemodels.StatusPreparing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.Require().NoError(casestore.NewPostgres(s.postgres.DB).Save(ctx, c))
	s.caseID = c.ID
}

func (s *PostgresStoreSuite) newDocument(docType catalog.DocumentType, age time.Duration) *models.Document {
	return &models.Document{
		ID:           id.NewDocumentID(),
		CaseID:       s.caseID,
		DocumentType: docType,
		FileName:     "서류.pdf",
		FilePath:     "cases/" + s.caseID.String() + "/서류.pdf",
		FileSize:     1024,
		MimeType:     "application/pdf",
		Source:       models.SourceManualUpload,
		CreatedAt:    time.Now().Add(-age),
	}
}

func (s *PostgresStoreSuite) TestSaveAndFindRoundTrip() {
	ctx := context.Background()
	issuedAt := time.Now().Add(-time.Minute)
	doc := s.newDocument(catalog.DocIncomeCert, 0)
	doc.Source = models.SourceHyphen
	doc.IssuedAt = &issuedAt
	s.Require().NoError(s.store.Save(ctx, doc))

	found, err := s.store.FindByID(ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(doc.CaseID, found.CaseID)
	s.Equal(catalog.DocIncomeCert, found.DocumentType)
	s.Equal("서류.pdf", found.FileName)
	s.Equal(int64(1024), found.FileSize)
	s.Equal(models.SourceHyphen, found.Source)
	s.Require().NotNil(found.IssuedAt)
	s.WithinDuration(issuedAt, *found.IssuedAt, time.Second)
}

func (s *PostgresStoreSuite) TestFindByCaseOrdersOldestFirst() {
	ctx := context.Background()
	older := s.newDocument(catalog.DocResidentRegister, 2*time.Hour)
	newer := s.newDocument(catalog.DocIncomeCert, time.Hour)
	s.Require().NoError(s.store.Save(ctx, newer))
	s.Require().NoError(s.store.Save(ctx, older))

	docs, err := s.store.FindByCase(ctx, s.caseID)
	s.Require().NoError(err)
	s.Require().Len(docs, 2)
	s.Equal(older.ID, docs[0].ID)
	s.Equal(newer.ID, docs[1].ID)
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	doc := s.newDocument(catalog.DocResidentRegister, 0)
	s.Require().NoError(s.store.Save(ctx, doc))

	s.Require().NoError(s.store.Delete(ctx, doc.ID))
	s.ErrorIs(s.store.Delete(ctx, doc.ID), sentinel.ErrNotFound)
	_, err := s.store.FindByID(ctx, doc.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestDeleteByCase() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, s.newDocument(catalog.DocResidentRegister, 0)))
	s.Require().NoError(s.store.Save(ctx, s.newDocument(catalog.DocIncomeCert, 0)))

	s.Require().NoError(s.store.DeleteByCase(ctx, s.caseID))
	docs, err := s.store.FindByCase(ctx, s.caseID)
	s.Require().NoError(err)
	s.Empty(docs)
}
