package main

import (
	"context"
	"errors"

	casemodels "rehabdocs/internal/casefile/models"
	id "rehabdocs/pkg/domain"
	dErrors "rehabdocs/pkg/domain-errors"
	"rehabdocs/pkg/platform/sentinel"
)

// caseStore is the subset of the case store the document service needs for
// existence checks. Looking up through the store instead of the case service
// keeps construction acyclic: the case service holds the document service as
// its purger.
type caseStore interface {
	FindByID(ctx context.Context, caseID id.CaseID) (*casemodels.Case, error)
}

type caseFinder struct {
	store caseStore
}

func (f caseFinder) Get(ctx context.Context, caseID id.CaseID) (*casemodels.Case, error) {
	c, err := f.store.FindByID(ctx, caseID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "case not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "look up case")
	}
	return c, nil
}
