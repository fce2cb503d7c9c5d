package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"rehabdocs/internal/catalog"
	"rehabdocs/internal/checklist/models"
	id "rehabdocs/pkg/domain"
	"rehabdocs/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewMemory()
	s.ctx = context.Background()
}

func (s *MemoryStoreSuite) newEntry(caseID id.CaseID, docType catalog.DocumentType, createdAt time.Time) *models.Entry {
	return &models.Entry{
		ID:           id.NewChecklistEntryID(),
		CaseID:       caseID,
		DocumentType: docType,
		IsRequired:   true,
		Status:       models.StatusNotStarted,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func (s *MemoryStoreSuite) TestSaveAllAndFindByCase() {
	caseID := id.NewCaseID()
	base := time.Now()
	entries := []*models.Entry{
		s.newEntry(caseID, catalog.DocIncomeCert, base),
		s.newEntry(caseID, catalog.DocLocalTaxCert, base.Add(time.Microsecond)),
		s.newEntry(id.NewCaseID(), catalog.DocIncomeCert, base),
	}
	require.NoError(s.T(), s.store.SaveAll(s.ctx, entries))

	found, err := s.store.FindByCase(s.ctx, caseID)
	require.NoError(s.T(), err)
	require.Len(s.T(), found, 2)
	// Seeded order survives.
	require.Equal(s.T(), catalog.DocIncomeCert, found[0].DocumentType)
	require.Equal(s.T(), catalog.DocLocalTaxCert, found[1].DocumentType)

	// Mutating the returned copy must not touch the stored record.
	found[0].Note = "scratch"
	again, err := s.store.FindByID(s.ctx, found[0].ID)
	require.NoError(s.T(), err)
	require.Empty(s.T(), again.Note)
}

func (s *MemoryStoreSuite) TestFindMissing() {
	_, err := s.store.FindByID(s.ctx, id.NewChecklistEntryID())
	require.ErrorIs(s.T(), err, sentinel.ErrNotFound)

	_, err = s.store.FindByCaseAndType(s.ctx, id.NewCaseID(), catalog.DocIncomeCert)
	require.ErrorIs(s.T(), err, sentinel.ErrNotFound)

	_, err = s.store.FindByDocumentID(s.ctx, id.NewDocumentID())
	require.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestFindByCaseAndType() {
	caseID := id.NewCaseID()
	e := s.newEntry(caseID, catalog.DocBankStatement, time.Now())
	require.NoError(s.T(), s.store.Save(s.ctx, e))

	found, err := s.store.FindByCaseAndType(s.ctx, caseID, catalog.DocBankStatement)
	require.NoError(s.T(), err)
	require.Equal(s.T(), e.ID, found.ID)

	// Same type on another case does not match.
	_, err = s.store.FindByCaseAndType(s.ctx, id.NewCaseID(), catalog.DocBankStatement)
	require.ErrorIs(s.T(), err, sentinel.ErrNotFound)
}

func (s *MemoryStoreSuite) TestDocumentLinkRoundTrip() {
	caseID := id.NewCaseID()
	e := s.newEntry(caseID, catalog.DocHealthInsuranceCert, time.Now())
	require.NoError(s.T(), s.store.Save(s.ctx, e))

	docID := id.NewDocumentID()
	e.Status = models.StatusCompleted
	e.DocumentID = &docID
	require.NoError(s.T(), s.store.Save(s.ctx, e))

	found, err := s.store.FindByDocumentID(s.ctx, docID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), e.ID, found.ID)
	require.Equal(s.T(), models.StatusCompleted, found.Status)
	require.NotNil(s.T(), found.DocumentID)
	require.Equal(s.T(), docID, *found.DocumentID)
}

func (s *MemoryStoreSuite) TestDeleteByCase() {
	caseID := id.NewCaseID()
	other := id.NewCaseID()
	require.NoError(s.T(), s.store.SaveAll(s.ctx, []*models.Entry{
		s.newEntry(caseID, catalog.DocIncomeCert, time.Now()),
		s.newEntry(caseID, catalog.DocLocalTaxCert, time.Now()),
		s.newEntry(other, catalog.DocIncomeCert, time.Now()),
	}))

	require.NoError(s.T(), s.store.DeleteByCase(s.ctx, caseID))

	gone, err := s.store.FindByCase(s.ctx, caseID)
	require.NoError(s.T(), err)
	require.Empty(s.T(), gone)

	kept, err := s.store.FindByCase(s.ctx, other)
	require.NoError(s.T(), err)
	require.Len(s.T(), kept, 1)
}

func (s *MemoryStoreSuite) TestSummariesByCases() {
	caseID := id.NewCaseID()
	empty := id.NewCaseID()
	docID := id.NewDocumentID()

	completed := s.newEntry(caseID, catalog.DocIncomeCert, time.Now())
	completed.Status = models.StatusCompleted
	completed.DocumentID = &docID
	optional := s.newEntry(caseID, catalog.DocDivorceDocs, time.Now())
	optional.IsRequired = false
	require.NoError(s.T(), s.store.SaveAll(s.ctx, []*models.Entry{
		completed,
		s.newEntry(caseID, catalog.DocLocalTaxCert, time.Now()),
		optional,
	}))

	sums, err := s.store.SummariesByCases(s.ctx, []id.CaseID{caseID, empty})
	require.NoError(s.T(), err)

	// Non-required entries stay out of the denominator.
	require.Equal(s.T(), 2, sums[caseID].Total)
	require.Equal(s.T(), 1, sums[caseID].Completed)
	require.InDelta(s.T(), 50.0, sums[caseID].CompletionRate, 0.001)

	// Cases without entries still get a zero summary.
	require.Zero(s.T(), sums[empty].Total)
	require.Zero(s.T(), sums[empty].CompletionRate)
}
