package loan

import "time"

type SubmitLoanInput struct {
	PrincipalAmount int64
	TermMonths      int64
	Collateral      CollateralInput
	Customer        CustomerInput
}

type CollateralInput struct {
	Brand             string
	Model             string
	ManufacturingYear int64
}

type CustomerInput struct {
	Name          string
	BirthDate     time.Time
	MonthlyIncome int64
	IDNumber      string
}

type SubmissionDTO struct {
	CustomerName string `json:"customer_name"`
	LoanID       string `json:"loan_id"`
	Status       string `json:"status"`
}

type LoanDTO struct {
	LoanID             string        `json:"loan_id"`
	PrincipalAmount    int64         `json:"principal_amount"`
	TermMonths         int64         `json:"term_months"`
	Collateral         CollateralDTO `json:"collateral"`
	Customer           CustomerDTO   `json:"customer"`
	Status             string        `json:"status"`
	Interest           int64         `json:"interest"`
	MonthlyInstallment int64         `json:"monthly_installment"`
}

type CollateralDTO struct {
	Brand             string `json:"brand"`
	Model             string `json:"model"`
	ManufacturingYear int64  `json:"manufacturing_year"`
}

type CustomerDTO struct {
	IDNumber      string `json:"id_number"`
	BirthDate     string `json:"birth_date"` // YYYY-MM-DD
	MonthlyIncome int64  `json:"monthly_income"`
	Name          string `json:"name"`
}
