package user

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Field bounds
const (
	UsernameMinLength = 3
	UsernameMaxLength = 20

	AgeMin = 6
	AgeMax = 129

	// PatchAgeMax is deliberately wider than AgeMax; partial updates have
	// always accepted ages up to 199.
	PatchAgeMax = 199
)

// FieldError describes one violated constraint.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every violated field of an input.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Add records a violation.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// errOrNil returns nil when no field was recorded.
func (e *ValidationError) errOrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// ValidateUser checks a full record for create and replace.
func ValidateUser(u *User) error {
	verr := &ValidationError{}
	validateUsername(verr, u.Username)
	if u.Age != nil {
		validateAge(verr, *u.Age, AgeMax)
	}
	return verr.errOrNil()
}

// ValidatePatch checks a partial update. Absent fields are not checked.
func ValidatePatch(p *Patch) error {
	verr := &ValidationError{}
	validateUsername(verr, p.Username)
	if p.Age.Present && p.Age.Value != nil {
		validateAge(verr, *p.Age.Value, PatchAgeMax)
	}
	return verr.errOrNil()
}

func validateUsername(verr *ValidationError, username string) {
	n := utf8.RuneCountInString(username)
	switch {
	case n == 0:
		verr.Add("username", "field required")
	case n < UsernameMinLength || n > UsernameMaxLength:
		verr.Add("username", fmt.Sprintf("must be between %d and %d characters", UsernameMinLength, UsernameMaxLength))
	}
}

func validateAge(verr *ValidationError, age, maxAge int) {
	if age < AgeMin || age > maxAge {
		verr.Add("age", fmt.Sprintf("must be between %d and %d", AgeMin, maxAge))
	}
}
