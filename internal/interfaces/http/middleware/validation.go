package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/destinpq/groow-sub007/internal/interfaces/http/dto"
)

var (
	setupOnce sync.Once
	codeRe    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)
)

// SetupValidator configures gin's validator once: errors report JSON field
// names and the "code" tag accepts campaign and carrier codes
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation("code", func(fl validator.FieldLevel) bool {
			return codeRe.MatchString(fl.Field().String())
		})
	})
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return ""
}

// FormatValidationErrors turns a bind error into the validation envelope.
// Decoder errors (bad JSON, wrong types) become one "body" detail.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail
	var fieldErrs validator.ValidationErrors
	switch {
	case errors.As(err, &fieldErrs):
		details = make([]dto.ValidationDetail, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			details = append(details, dto.ValidationDetail{Field: fe.Field(), Message: describe(fe)})
		}
	case err != nil:
		details = []dto.ValidationDetail{{Field: "body", Message: err.Error()}}
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, c.GetString(RequestIDKey)))
}

var messages = map[string]string{
	"required": "This field is required",
	"email":    "Invalid email format",
	"uuid":     "Invalid UUID format",
	"url":      "Invalid URL format",
	"code":     "May only contain letters, digits, '-' and '_'",
	"len":      "Must be exactly %s characters",
	"oneof":    "Must be one of: %s",
	"gt":       "Must be greater than %s",
	"gte":      "Must be greater than or equal to %s",
	"lte":      "Must be less than or equal to %s",
	"gtfield":  "Must be after %s",
	"gtefield": "Must not be less than %s",
}

func describe(fe validator.FieldError) string {
	tag := fe.Tag()
	if tag == "min" || tag == "max" {
		bound := map[string]string{"min": "at least", "max": "at most"}[tag]
		if fe.Kind() == reflect.String {
			return "Must be " + bound + " " + fe.Param() + " characters"
		}
		return "Must be " + bound + " " + fe.Param()
	}
	msg, ok := messages[tag]
	if !ok {
		return "Invalid value"
	}
	return strings.Replace(msg, "%s", fe.Param(), 1)
}
