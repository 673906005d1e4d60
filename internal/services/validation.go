package services

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
)

// reservedUsernames collide with routes under /api/users
var reservedUsernames = map[string]bool{"me": true, "subscriptions": true, "set_password": true}

// getValidator returns the shared validator. Field errors are reported with
// the json name of the field.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			value := fl.Field().String()
			return usernamePattern.MatchString(value) && !reservedUsernames[strings.ToLower(value)]
		})
		validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// validateStruct runs the struct tags and converts the first failure into a
// validation ServiceError naming the field
func validateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return validationError("", err.Error())
	}
	fe := fieldErrs[0]
	return validationError(fieldPath(fe), describeFieldError(fe))
}

// fieldPath turns "CreateRecipeInput.ingredients[0].amount" into "ingredients[0].amount"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s items", fe.Param())
		}
		return fmt.Sprintf("must be at most %s characters long", fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s characters long", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "username":
		return "may contain only letters, digits and @/./+/-/_ characters and must not be a reserved name"
	case "slug":
		return "may contain only letters, digits, hyphens and underscores"
	case "hexcolor":
		return "must be a hex color such as #E26C2D"
	default:
		return fmt.Sprintf("failed the %q check", fe.Tag())
	}
}
