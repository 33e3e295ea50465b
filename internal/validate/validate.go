// ABOUTME: Local struct validation on top of go-playground/validator
// ABOUTME: Turns validator field errors into apierr.ValidationError before any network call

// Package validate runs the required-field and format checks that must
// pass before a create/update request is sent.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/2389/registrar/internal/apierr"
)

// studentIDPattern is the NNNN-NNNN student number format.
var studentIDPattern = regexp.MustCompile(`^\d{4}-\d{4}$`)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so messages line up with form fields
	val.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = val.RegisterValidation("studentid", func(fl validator.FieldLevel) bool {
		return studentIDPattern.MatchString(fl.Field().String())
	})

	return val
}

// Struct validates s and returns a *apierr.ValidationError describing every
// failing field, or nil.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = fieldMessage(fe)
	}
	return apierr.NewValidationError(fields)
}

// IsStudentID reports whether id matches the student number format.
func IsStudentID(id string) bool {
	return studentIDPattern.MatchString(id)
}

func fieldMessage(fe validator.FieldError) string {
	field := label(fe.Field())

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "studentid":
		return fmt.Sprintf("%s must follow the format NNNN-NNNN (e.g., 2021-0001)", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func label(field string) string {
	labels := map[string]string{
		"id":           "Student ID",
		"code":         "Code",
		"name":         "Name",
		"college_code": "College",
		"program_code": "Program",
		"first_name":   "First name",
		"last_name":    "Last name",
		"year_level":   "Year level",
		"gender":       "Gender",
		"username":     "Username",
		"email":        "Email",
		"password":     "Password",
		"full_name":    "Full name",
		"role":         "Role",
		"old_password": "Current password",
		"new_password": "New password",
	}

	if name, ok := labels[field]; ok {
		return name
	}
	return field
}
