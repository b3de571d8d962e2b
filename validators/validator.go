package validators

import (
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/anonto42/nano-midea/threads/internal/apperr"
)

// CustomValidator adapts go-playground/validator to echo.Validator
type CustomValidator struct {
	validator *validator.Validate
}

var _ echo.Validator = (*CustomValidator)(nil)

func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate checks i against its validate tags. Failures wrap
// apperr.ErrValidation.
func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return apperr.Validation("%s", err.Error())
	}
	return nil
}
