package id

import "github.com/google/uuid"

// NewLoanID returns a random (v4) UUID in its canonical 36-char form.
func NewLoanID() string {
	return uuid.NewString()
}

// IsLoanID reports whether s is a canonical UUID string.
func IsLoanID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
