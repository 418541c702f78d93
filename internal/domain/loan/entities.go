package loan

import (
	"errors"
	"time"
)

var (
	ErrNotFound         = errors.New("loan not found")
	ErrInvalidTerm      = errors.New("term months must be positive")
	ErrInvalidPrincipal = errors.New("principal amount must be positive")
)

type Status string

// StatusPending is the only status a loan is created with.
const StatusPending Status = "PENDING"

// Table: loans
type Loan struct {
	LoanID                      string    `gorm:"column:loan_id;type:varchar(36);primaryKey"`
	PrincipalAmount             int64     `gorm:"column:principal_amount;not null"`
	TermMonths                  int64     `gorm:"column:term_months;not null"`
	CollateralBrand             string    `gorm:"column:collateral_brand;size:50;not null"`
	CollateralModel             string    `gorm:"column:collateral_model;size:50;not null"`
	CollateralManufacturingYear int64     `gorm:"column:collateral_manufacturing_year;not null"`
	CustomerName                string    `gorm:"column:customer_name;size:50;not null"`
	CustomerBirthDate           time.Time `gorm:"column:customer_birth_date;type:date;not null"`
	CustomerMonthlyIncome       int64     `gorm:"column:customer_monthly_income;not null"`
	CustomerIDNumber            string    `gorm:"column:customer_id_number;size:50;not null"`

	// Partner secret that submitted the loan; scopes every later read.
	CreatedBy          string    `gorm:"column:created_by;size:50;not null;index:idx_loans_created_by"`
	Status             Status    `gorm:"column:status;size:50;not null"`
	LoanInterest       int64     `gorm:"column:loan_interest;not null"`
	MonthlyInstallment int64     `gorm:"column:monthly_installment;not null"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Loan) TableName() string { return "loans" }
