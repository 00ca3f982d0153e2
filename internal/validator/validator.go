package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/stemsi/formcraft-backend/internal/model"
)

// trans is the singleton English translator for validation errors.
var trans ut.Translator

// Setup registers the validator with English translations on Gin's binding engine.
// Call once during application startup.
func Setup() {
	if v, ok := binding.Validator.Engine().(*govalidator.Validate); ok {
		// Use JSON tag name for field names in error messages.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		// Register English translations.
		enLocale := en.New()
		uni := ut.New(enLocale, enLocale)
		trans, _ = uni.GetTranslator("en")
		en_translations.RegisterDefaultTranslations(v, trans)

		RegisterFormTags(v)
	}
}

// customTags are the form-builder enums checked at the binding layer.
var customTags = map[string]struct {
	fn      govalidator.Func
	message string
}{
	"fieldkind": {
		fn:      func(fl govalidator.FieldLevel) bool { return model.FieldKind(fl.Field().String()).Valid() },
		message: "{0} must be a known field type",
	},
	"selectiontype": {
		fn:      func(fl govalidator.FieldLevel) bool { return model.SelectionType(fl.Field().String()).Valid() },
		message: "{0} must be SINGLE or MULTI",
	},
	"dateformat": {
		fn:      func(fl govalidator.FieldLevel) bool { return model.DateFormat(fl.Field().String()).Valid() },
		message: "{0} must be DD/MM/YYYY or MM-DD-YYYY",
	},
}

// RegisterFormTags adds the fieldkind, selectiontype and dateformat tags
// and their English messages to v.
func RegisterFormTags(v *govalidator.Validate) {
	for tag, ct := range customTags {
		_ = v.RegisterValidation(tag, ct.fn)
		if trans == nil {
			continue
		}
		msg := ct.message
		_ = v.RegisterTranslation(tag, trans,
			func(ut ut.Translator) error { return ut.Add(tag, msg, true) },
			func(ut ut.Translator, fe govalidator.FieldError) string {
				t, _ := ut.T(fe.Tag(), fe.Field())
				return t
			},
		)
	}
}

// TranslateErrors takes a binding/validation error and returns a map of
// field name to human-readable error message. If the error is not a
// validation error, it returns a single-key map with "detail".
func TranslateErrors(err error) map[string]string {
	fields := make(map[string]string)

	var ve govalidator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			fields[fe.Field()] = fe.Translate(trans)
		}
		return fields
	}

	// Not a validation error (e.g., JSON syntax error).
	fields["detail"] = err.Error()
	return fields
}

// Bind binds and validates the request body into dst.
// Returns nil on success or a translated field error map on failure.
func Bind(c *gin.Context, dst interface{}) map[string]string {
	if err := c.ShouldBindJSON(dst); err != nil {
		return TranslateErrors(err)
	}
	return nil
}
