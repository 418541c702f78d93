package http

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ---- helpers ----

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func mustJSON(v any) *bytes.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

// validBody is a complete application; tests mutate copies of it.
func validBody() map[string]any {
	return map[string]any{
		"principal_amount": 1000,
		"term_months":      12,
		"collateral": map[string]any{
			"brand":              "Honda",
			"model":              "Beat",
			"manufacturing_year": 2020,
		},
		"customer": map[string]any{
			"name":           "Jane Doe",
			"birth_date":     "1990-04-02",
			"monthly_income": 5000,
			"id_number":      "3201010101900001",
		},
	}
}

func int64p(v int64) *int64 { return &v }

func validReq() submitLoanReq {
	return submitLoanReq{
		PrincipalAmount: int64p(1000),
		TermMonths:      int64p(12),
		Collateral:      &collateralReq{Brand: "Honda", Model: "Beat", ManufacturingYear: int64p(2020)},
		Customer: &customerReq{
			Name:          "Jane Doe",
			BirthDate:     "1990-04-02",
			MonthlyIncome: int64p(5000),
			IDNumber:      "3201010101900001",
		},
	}
}
