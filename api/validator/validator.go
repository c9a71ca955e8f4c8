package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/localpi/pilocal/market"
)

// Validator is a struct that provides methods for struct validation using the underlying validator library.
type Validator struct {
	cli *validator.Validate
}

// ValidationError represents an error encountered during validation of a struct field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v *Validator) formatError(err error) []ValidationError {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []ValidationError{{Message: err.Error()}}
	}
	errors := make([]ValidationError, 0, len(verrs))
	for _, err := range verrs {
		errors = append(errors, ValidationError{
			Field:   err.Field(),
			Message: err.Error(),
		})
	}

	return errors
}

// ValidateStruct validates the provided struct using the underlying validator and returns a slice of validation errors.
func (v *Validator) ValidateStruct(s interface{}) []ValidationError {
	err := v.cli.Struct(s)
	if err != nil {
		return v.formatError(err)
	}
	return nil
}

// Validate checks the provided value against the specified validation tags and returns a slice of validation errors.
func (v *Validator) Validate(value interface{}, tag string) []ValidationError {
	err := v.cli.Var(value, tag)
	if err != nil {
		return v.formatError(err)
	}
	return nil
}

// isDecimal accepts strings holding a positive decimal number, such as
// listing prices and payment amounts.
func isDecimal(fl validator.FieldLevel) bool {
	d, err := market.ParseDecimal(fl.Field().String())
	return err == nil && d.IsPositive()
}

func isEscrowStatus(fl validator.FieldLevel) bool {
	return market.EscrowStatus(fl.Field().String()).Valid()
}

// New initializes and returns a new instance of the Validator with the
// marketplace tags "decimal" and "escrow_status" registered.
func New() *Validator {
	cli := validator.New(validator.WithRequiredStructEnabled())
	cli.RegisterTagNameFunc(jsonName)
	// Registration only fails for empty tags or nil funcs.
	_ = cli.RegisterValidation("decimal", isDecimal)
	_ = cli.RegisterValidation("escrow_status", isEscrowStatus)
	return &Validator{
		cli: cli,
	}
}
