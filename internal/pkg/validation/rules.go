package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/coursetable/ferry/internal/pkg/apperrors"
	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// SeasonCodePattern is a four digit year followed by a two digit term
	SeasonCodePattern = `^\d{4}0[1-3]$`
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	SeasonCode *regexp.Regexp
}{
	SeasonCode: regexp.MustCompile(SeasonCodePattern),
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// report fields by their json names, which is what the input files use
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("seasoncode", func(fl validator.FieldLevel) bool {
		return IsSeasonCode(fl.Field().String())
	})

	// whitespace-only strings count as empty
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})

	return v
}

// IsSeasonCode reports whether code looks like a season code such as 202403.
func IsSeasonCode(code string) bool {
	return CompiledPatterns.SeasonCode.MatchString(code)
}

// Struct validates a tagged struct. The first failing field is returned as an
// *apperrors.ValidationError.
func Struct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return apperrors.NewValidationError(fe.Field(), formatFieldError(fe))
	}
	return apperrors.NewValidationError("", err.Error())
}

// formatFieldError creates a human-readable validation error reason
func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "notblank":
		return "is required"
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be at least " + e.Param()
	case "min":
		return "must have at least " + e.Param() + " entries"
	case "seasoncode":
		return "must be a season code like 202403"
	default:
		return "failed the " + e.Tag() + " check"
	}
}
