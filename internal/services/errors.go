package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"homease-backend/internal/supabase"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrValidation      = errors.New("validation failed")
	ErrLeadUnavailable = errors.New("lead is no longer available")
	ErrForbidden       = errors.New("forbidden")
	// ErrDuplicateEvent marks a webhook event that was already applied.
	ErrDuplicateEvent = errors.New("webhook event already processed")

	ErrNoImage        = fmt.Errorf("%w: assessment has no image", ErrValidation)
	ErrNotConnected   = fmt.Errorf("%w: contractor Stripe account not found", ErrValidation)
	ErrAccountExists  = fmt.Errorf("%w: an account with this email already exists", ErrValidation)
	ErrNoModification = fmt.Errorf("%w: at least one modification must be specified", ErrValidation)
)

// ValidationError lists the offending fields of a rejected request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + ": " + e.Fields[name]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			fields[fe.Field()] = fe.Tag() + "=" + fe.Param()
		} else {
			fields[fe.Field()] = fe.Tag()
		}
	}
	return &ValidationError{Fields: fields}
}

// storeErr maps store sentinel errors onto service sentinels.
func storeErr(err error) error {
	if errors.Is(err, supabase.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}
