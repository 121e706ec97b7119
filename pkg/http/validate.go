package http

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var (
	validate = newValidator()

	// Exchange trading symbols: upper-case letters and digits, with '&', '-'
	// or '_' inside (M&M, BAJAJ-AUTO, NIFTY_50).
	symbolPattern = regexp.MustCompile(`^[A-Z0-9][A-Z0-9&_-]{0,29}$`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	_ = v.RegisterValidation("symbol", func(fl validator.FieldLevel) bool {
		return symbolPattern.MatchString(strings.ToUpper(fl.Field().String()))
	})
	return v
}

// ReadAndValidateRequest binds the request (body, query and path), applies
// default tags and validates. It returns []ValidationError or nil.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	return ValidateStruct(c.Request().Context(), req)
}

// ValidateStruct applies default tags and validates an already decoded
// request, e.g. one read from Kafka or built by the CLI.
func ValidateStruct(ctx context.Context, req interface{}) interface{} {
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(ctx, req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) interface{} {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		out := make([]ValidationError, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msg, params := describe(fe)
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(fe.Tag()),
				Field:   fe.Field(),
				Message: msg,
				Params:  params,
			})
		}
		return out
	}

	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprintf("%v", he.Message)
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: msg}}
}

var comparisons = map[string]struct {
	phrase string
	param  string
}{
	"gt":  {"greater than", "value"},
	"gte": {"greater than or equal to", "min"},
	"lt":  {"less than", "value"},
	"lte": {"less than or equal to", "max"},
	"min": {"at least", "min"},
	"max": {"at most", "max"},
}

func describe(fe validator.FieldError) (string, map[string]interface{}) {
	field, p := fe.Field(), fe.Param()
	switch tag := fe.Tag(); tag {
	case "required":
		return field + " is required", map[string]interface{}{}
	case "oneof":
		opts := strings.Fields(p)
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(opts, ", ")),
			map[string]interface{}{"options": opts}
	case "symbol":
		return field + " must be an exchange trading symbol", map[string]interface{}{}
	default:
		cmp, ok := comparisons[tag]
		if !ok {
			return fmt.Sprintf("%s failed validation: %s", field, tag), map[string]interface{}{}
		}
		msg := fmt.Sprintf("%s must be %s %s", field, cmp.phrase, p)
		if (tag == "min" || tag == "max") && fe.Kind() == reflect.String {
			msg += " characters"
		}
		return msg, map[string]interface{}{cmp.param: p}
	}
}
