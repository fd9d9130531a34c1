package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

func formatFieldName(s string) string {
	// employee_id -> employee id -> Employee Id
	s = strings.ReplaceAll(s, "_", " ")

	caser := cases.Title(language.English)
	return caser.String(s)
}

// MapValidationError turns a binding error into an *AppError. Only the first
// failing field is reported; field names come from json tags (see Init).
func MapValidationError(err error) error {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) && len(errs) > 0 {
		e := errs[0]
		humanReadableField := formatFieldName(e.Field())
		details := map[string]string{"field": e.Field(), "rule": e.Tag()}

		switch e.Tag() {
		case "required":
			return RequiredField(humanReadableField).WithDetails(details)
		case "oneof":
			return New(
				CodeInvalidInput,
				fmt.Sprintf("%s must be one of: %s", humanReadableField, strings.ReplaceAll(e.Param(), " ", ", ")),
				http.StatusBadRequest,
			).WithDetails(details)
		default:
			return InvalidField(humanReadableField).WithDetails(details)
		}
	}

	return Wrap(
		err,
		CodeInvalidInput,
		"Invalid input",
		http.StatusBadRequest,
	)
}
