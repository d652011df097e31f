package validate

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput classifies every validation failure.
var ErrInvalidInput = errors.New("invalid input")

// Error reports a rejected request field.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

// Is makes errors.Is(err, ErrInvalidInput) hold for every *Error.
func (e *Error) Is(target error) bool {
	return target == ErrInvalidInput
}

// Errorf builds a field error.
func Errorf(field, format string, args ...interface{}) error {
	return &Error{Field: field, Message: fmt.Sprintf(format, args...)}
}

// Positive rejects zero, negative and non-finite values.
func Positive(field string, v float64) error {
	if err := Finite(field, v); err != nil {
		return err
	}
	if v <= 0 {
		return Errorf(field, "must be greater than 0")
	}
	return nil
}

// NonNegative rejects negative and non-finite values.
func NonNegative(field string, v float64) error {
	if err := Finite(field, v); err != nil {
		return err
	}
	if v < 0 {
		return Errorf(field, "must not be negative")
	}
	return nil
}

// Finite rejects NaN and infinities.
func Finite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Errorf(field, "must be a finite number")
	}
	return nil
}

// Range rejects values outside [lo, hi].
func Range(field string, v, lo, hi float64) error {
	if err := Finite(field, v); err != nil {
		return err
	}
	if v < lo || v > hi {
		return Errorf(field, "must be between %g and %g", lo, hi)
	}
	return nil
}

// Required rejects a missing optional number.
func Required(field string, v *float64) (float64, error) {
	if v == nil {
		return 0, Errorf(field, "is required")
	}
	return *v, Finite(field, *v)
}

// First returns the first non-nil error.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// Nullable maps NaN and infinities to nil so results stay JSON-encodable.
func Nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RoundN rounds half away from zero to n decimals.
func RoundN(v float64, n int) float64 {
	p := math.Pow(10, float64(n))
	return math.Round(v*p) / p
}
