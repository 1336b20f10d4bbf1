package service

import (
	"errors"
	"reflect"
	"strings"

	"smart-pantry-api/internal/model"
	"smart-pantry-api/pkg/apierror"

	"github.com/go-playground/validator/v10"
)

const msgMissingFields = "Missing required fields"

// newValidator returns a validator that reports JSON field names and knows
// the "pantrydate" tag.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("pantrydate", func(fl validator.FieldLevel) bool {
		_, err := model.ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

// validationError converts validator output into an API error. Any missing
// required field takes precedence over other failures.
func validationError(err error) *apierror.Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierror.BadRequest("Invalid request")
	}

	details := make([]apierror.FieldError, 0, len(verrs))
	missing := false
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = true
		}
		details = append(details, apierror.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}

	if missing {
		return apierror.ValidationError(msgMissingFields, details...)
	}
	return apierror.ValidationError("Invalid item", details...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "uuid":
		return "must be a valid UUID"
	case "pantrydate":
		return "must be YYYY-MM-DD or an RFC 3339 timestamp"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "is invalid"
	}
}
