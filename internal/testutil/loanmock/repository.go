package loanmock

import (
	"context"
	"errors"

	domain "loan-origination-api/internal/domain/loan"
)

var _ domain.Repository = (*Repo)(nil)

var errUnimplemented = errors.New("loanmock: method not implemented")

// Repo is a function-backed mock that satisfies domain.Repository.
// Unset Create is a no-op; unset GetByLoanIDAndOwner returns errUnimplemented.
type Repo struct {
	CreateFn              func(ctx context.Context, l *domain.Loan) error
	GetByLoanIDAndOwnerFn func(ctx context.Context, loanID, owner string) (*domain.Loan, error)
}

func (m *Repo) Create(ctx context.Context, l *domain.Loan) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, l)
	}
	return nil
}

func (m *Repo) GetByLoanIDAndOwner(ctx context.Context, loanID, owner string) (*domain.Loan, error) {
	if m.GetByLoanIDAndOwnerFn != nil {
		return m.GetByLoanIDAndOwnerFn(ctx, loanID, owner)
	}
	return nil, errUnimplemented
}
