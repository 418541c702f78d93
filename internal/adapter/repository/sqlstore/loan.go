package sqlstore

import (
	"context"
	"errors"
	"fmt"

	loanDomain "loan-origination-api/internal/domain/loan"

	"gorm.io/gorm"
)

type LoanRepository struct{ db *gorm.DB }

var _ loanDomain.Repository = (*LoanRepository)(nil)

func NewLoanRepository(db *gorm.DB) *LoanRepository { return &LoanRepository{db: db} }

func (r *LoanRepository) Create(ctx context.Context, l *loanDomain.Loan) error {
	if err := r.db.WithContext(ctx).Create(l).Error; err != nil {
		return fmt.Errorf("create loan %s: %w", l.LoanID, err)
	}
	return nil
}

func (r *LoanRepository) GetByLoanIDAndOwner(ctx context.Context, loanID, owner string) (*loanDomain.Loan, error) {
	var out loanDomain.Loan
	err := r.db.WithContext(ctx).
		Where("loan_id = ? AND created_by = ?", loanID, owner).
		First(&out).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, loanDomain.ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("get loan %s: %w", loanID, err)
	}
	// collations may fold case or accents; ownership is exact byte equality
	if out.CreatedBy != owner {
		return nil, loanDomain.ErrNotFound
	}
	return &out, nil
}
