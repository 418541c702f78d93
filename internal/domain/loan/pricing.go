package loan

// Terms are the amounts derived from principal and term at submission.
type Terms struct {
	Interest           int64
	MonthlyInstallment int64
}

// interestRatePerMonth is 1%, expressed as a fraction of 100.
const interestRatePerMonth = 1

// CalculateTerms computes
//
//	interest            = ceil(principal * term * 0.01)
//	monthly installment = ceil((principal + interest) / term)
//
// in integer arithmetic so both ceilings are exact.
func CalculateTerms(principal, termMonths int64) (Terms, error) {
	if termMonths <= 0 {
		return Terms{}, ErrInvalidTerm
	}
	if principal <= 0 {
		return Terms{}, ErrInvalidPrincipal
	}
	interest := ceilDiv(principal*termMonths*interestRatePerMonth, 100)
	installment := ceilDiv(principal+interest, termMonths)
	return Terms{Interest: interest, MonthlyInstallment: installment}, nil
}

// ceilDiv assumes a >= 0 and b > 0.
func ceilDiv(a, b int64) int64 { return (a + b - 1) / b }
