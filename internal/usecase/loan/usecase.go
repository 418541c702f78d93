package loan

import (
	"context"
	"errors"
	"net/http"

	"loan-origination-api/internal/apperror"
	"loan-origination-api/internal/domain/loan"
	"loan-origination-api/pkg/id"

	"go.uber.org/zap"
)

const (
	dateLayout = "2006-01-02"

	// created_by column width
	maxPartnerSecretLen = 50
)

type Usecase struct {
	repo loan.Repository
	log  *zap.Logger
}

func NewUsecase(r loan.Repository, log *zap.Logger) *Usecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &Usecase{repo: r, log: log}
}

// Submit prices an already validated application and stores it as a PENDING
// loan owned by partnerSecret.
func (u *Usecase) Submit(ctx context.Context, partnerSecret string, in SubmitLoanInput) (*SubmissionDTO, error) {
	if err := checkPartnerSecret(partnerSecret); err != nil {
		return nil, err
	}

	terms, err := loan.CalculateTerms(in.PrincipalAmount, in.TermMonths)
	if err != nil {
		return nil, apperror.Wrap(err, http.StatusBadRequest, "Invalid loan terms")
	}

	l := &loan.Loan{
		LoanID:                      id.NewLoanID(),
		PrincipalAmount:             in.PrincipalAmount,
		TermMonths:                  in.TermMonths,
		CollateralBrand:             in.Collateral.Brand,
		CollateralModel:             in.Collateral.Model,
		CollateralManufacturingYear: in.Collateral.ManufacturingYear,
		CustomerName:                in.Customer.Name,
		CustomerBirthDate:           in.Customer.BirthDate.UTC(),
		CustomerMonthlyIncome:       in.Customer.MonthlyIncome,
		CustomerIDNumber:            in.Customer.IDNumber,
		CreatedBy:                   partnerSecret,
		Status:                      loan.StatusPending,
		LoanInterest:                terms.Interest,
		MonthlyInstallment:          terms.MonthlyInstallment,
	}
	if err := u.repo.Create(ctx, l); err != nil {
		return nil, err
	}
	u.log.Info("loan submitted",
		zap.String("loan_id", l.LoanID),
		zap.Int64("principal_amount", l.PrincipalAmount),
		zap.Int64("term_months", l.TermMonths),
	)

	return &SubmissionDTO{
		CustomerName: l.CustomerName,
		LoanID:       l.LoanID,
		Status:       string(l.Status),
	}, nil
}

// Track returns the loan only to the partner that submitted it. Unknown ids
// and foreign loans produce the same 403.
func (u *Usecase) Track(ctx context.Context, partnerSecret, loanID string) (*LoanDTO, error) {
	if err := checkPartnerSecret(partnerSecret); err != nil {
		return nil, err
	}
	if loanID == "" {
		return nil, apperror.New(http.StatusBadRequest, "Invalid request", "loan_id query parameter is required")
	}

	// ids are always UUIDs; anything else cannot exist
	if !id.IsLoanID(loanID) {
		return nil, apperror.LoanNotFound(loanID)
	}
	l, err := u.repo.GetByLoanIDAndOwner(ctx, loanID, partnerSecret)
	if errors.Is(err, loan.ErrNotFound) {
		return nil, apperror.LoanNotFound(loanID)
	}
	if err != nil {
		return nil, err
	}
	return toLoanDTO(l), nil
}

func checkPartnerSecret(s string) error {
	if s == "" {
		return apperror.New(http.StatusBadRequest, "Missing partner secret", "partner_secret header is required")
	}
	if len(s) > maxPartnerSecretLen {
		return apperror.New(http.StatusBadRequest, "Invalid partner secret", "partner_secret must be at most 50 characters")
	}
	return nil
}

func toLoanDTO(l *loan.Loan) *LoanDTO {
	return &LoanDTO{
		LoanID:          l.LoanID,
		PrincipalAmount: l.PrincipalAmount,
		TermMonths:      l.TermMonths,
		Collateral: CollateralDTO{
			Brand:             l.CollateralBrand,
			Model:             l.CollateralModel,
			ManufacturingYear: l.CollateralManufacturingYear,
		},
		Customer: CustomerDTO{
			IDNumber:      l.CustomerIDNumber,
			BirthDate:     l.CustomerBirthDate.Format(dateLayout),
			MonthlyIncome: l.CustomerMonthlyIncome,
			Name:          l.CustomerName,
		},
		Status:             string(l.Status),
		Interest:           l.LoanInterest,
		MonthlyInstallment: l.MonthlyInstallment,
	}
}
