package loan

import "context"

type Repository interface {
	Create(ctx context.Context, l *Loan) error
	// GetByLoanIDAndOwner returns ErrNotFound both for an unknown id and for
	// a loan created by another partner.
	GetByLoanIDAndOwner(ctx context.Context, loanID, owner string) (*Loan, error)
}
