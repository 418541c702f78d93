package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"loan-origination-api/internal/apperror"
	"loan-origination-api/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

const (
	// HeaderPartnerSecret is the name partners have always sent. Go keeps the
	// underscore; the hyphenated spelling survives proxies that drop it.
	HeaderPartnerSecret    = "partner_secret"
	headerPartnerSecretAlt = "Partner-Secret"

	dateLayout = "2006-01-02"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type submitLoanReq struct {
	PrincipalAmount *int64         `json:"principal_amount" validate:"required,gte=100,lte=99999"`
	TermMonths      *int64         `json:"term_months"      validate:"required,oneof=3 6 9 12 15 18 24"`
	Collateral      *collateralReq `json:"collateral"       validate:"required"`
	Customer        *customerReq   `json:"customer"         validate:"required"`
}

type collateralReq struct {
	Brand             string `json:"brand"              validate:"required,max=50"`
	Model             string `json:"model"              validate:"required,max=50"`
	ManufacturingYear *int64 `json:"manufacturing_year" validate:"required,gte=2015,maxcurrentyear"`
}

// birth_date is a calendar date, `YYYY-MM-DD`.
type customerReq struct {
	Name          string `json:"name"           validate:"required,max=50"`
	BirthDate     string `json:"birth_date"     validate:"required,datetime=2006-01-02"`
	MonthlyIncome *int64 `json:"monthly_income" validate:"required"`
	IDNumber      string `json:"id_number"      validate:"required,max=50"`
}

// PartnerSecret reads the partner credential from either header spelling.
func PartnerSecret(c echo.Context) string {
	h := c.Request().Header
	if v := strings.TrimSpace(h.Get(HeaderPartnerSecret)); v != "" {
		return v
	}
	return strings.TrimSpace(h.Get(headerPartnerSecretAlt))
}

func (h *LoanHandler) SubmitLoan(c echo.Context) error {
	secret := PartnerSecret(c)
	if secret == "" {
		return apperror.New(http.StatusBadRequest, "Missing partner secret", "partner_secret header is required")
	}

	var req submitLoanReq
	if err := c.Bind(&req); err != nil {
		var ute *json.UnmarshalTypeError
		if errors.As(err, &ute) {
			return apperror.Validation([]FieldError{typeMismatch(ute)})
		}
		return bindError(err)
	}
	if err := c.Validate(&req); err != nil {
		return apperror.Validation(ToFieldErrors(err))
	}

	in, err := req.toInput()
	if err != nil {
		return apperror.Validation([]FieldError{{Field: "customer.birth_date", Message: err.Error()}})
	}
	dto, err := h.uc.Submit(c.Request().Context(), secret, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) TrackLoan(c echo.Context) error {
	dto, err := h.uc.Track(c.Request().Context(), PartnerSecret(c), c.QueryParam("loan_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto)
}

func (r *submitLoanReq) toInput() (loan.SubmitLoanInput, error) {
	birth, err := time.Parse(dateLayout, r.Customer.BirthDate)
	if err != nil {
		return loan.SubmitLoanInput{}, errors.New("must be a date in YYYY-MM-DD format")
	}
	return loan.SubmitLoanInput{
		PrincipalAmount: *r.PrincipalAmount,
		TermMonths:      *r.TermMonths,
		Collateral: loan.CollateralInput{
			Brand:             r.Collateral.Brand,
			Model:             r.Collateral.Model,
			ManufacturingYear: *r.Collateral.ManufacturingYear,
		},
		Customer: loan.CustomerInput{
			Name:          r.Customer.Name,
			BirthDate:     birth,
			MonthlyIncome: *r.Customer.MonthlyIncome,
			IDNumber:      r.Customer.IDNumber,
		},
	}, nil
}

// bindError keeps echo's status (400, 415, ...) but reports its message as detail.
func bindError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return apperror.New(he.Code, requestErrorMessage(he.Code), fmt.Sprint(he.Message))
	}
	return apperror.Wrap(err, http.StatusBadRequest, "Invalid request")
}
