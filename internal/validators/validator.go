package validators

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

// CustomValidator adapts go-playground/validator to echo.Validator
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a CustomValidator
func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

// Validate validates struct tags and reports the failing fields as a 400
func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Missing or invalid "+fieldList(verrs))
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func fieldList(verrs validator.ValidationErrors) string {
	s := ""
	for i, fe := range verrs {
		if i > 0 {
			s += ", "
		}
		s += fe.Field()
	}
	return s
}
