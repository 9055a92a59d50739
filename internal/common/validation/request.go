package validation

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"coach-hub/internal/common/errors"
)

// domainTag is a custom validation tag and the message reported when it
// fails. The message is formatted with the field's JSON name.
type domainTag struct {
	fn      validator.Func
	message string
}

var domainTags = map[string]domainTag{
	"program_type": {oneOfFold("fitness", "nutrition"), "field '%s' must be fitness or nutrition"},
	"upload_mode":  {oneOfFold("append", "replace"), "field '%s' must be replace or append"},
	"product_type": {oneOfFold("program", "workshop", "document"), "field '%s' must be program, workshop or document"},
}

func oneOfFold(allowed ...string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := strings.ToLower(strings.TrimSpace(fl.Field().String()))
		for _, a := range allowed {
			if value == a {
				return true
			}
		}
		return false
	}
}

// requests validates decoded request bodies and form fields.
var requests = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()
	for tag, rule := range domainTags {
		if err := v.RegisterValidation(tag, rule.fn); err != nil {
			panic(fmt.Sprintf("validation: register %s: %v", tag, err))
		}
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateStruct checks the validate tags of s. Failures come back as one
// validation AppError listing every offending field.
func ValidateStruct(s interface{}) error {
	err := requests.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.ValidationError(err.Error())
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fieldMessage(fe))
	}
	if len(messages) == 1 {
		return errors.ValidationError(messages[0])
	}
	return errors.ValidationError("validation failed: " + strings.Join(messages, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	if rule, ok := domainTags[fe.Tag()]; ok {
		return fmt.Sprintf(rule.message, fe.Field())
	}
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("field '%s' is required", fe.Field())
	case "min":
		return fmt.Sprintf("field '%s' must be at least %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("field '%s' must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("field '%s' failed validation: %s", fe.Field(), fe.Tag())
	}
}
