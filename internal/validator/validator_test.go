package validator

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	govalidator "github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/stemsi/formcraft-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator(t *testing.T) *govalidator.Validate {
	t.Helper()
	v := govalidator.New()
	v.SetTagName("binding")
	enLocale := en.New()
	trans, _ = ut.New(enLocale, enLocale).GetTranslator("en")
	require.NoError(t, en_translations.RegisterDefaultTranslations(v, trans))
	RegisterFormTags(v)
	return v
}

func TestFormTags(t *testing.T) {
	v := newValidator(t)

	kind := model.FieldKindDropdown
	multi := model.SelectionMulti
	format := model.DateFormatDayFirst
	ok := model.FieldPatch{Kind: &kind, SelectionType: &multi, DateFormat: &format}
	assert.NoError(t, v.Struct(ok))

	badKind := model.FieldKind("SLIDER")
	badFormat := model.DateFormat("YYYY")
	err := v.Struct(model.FieldPatch{Kind: &badKind, DateFormat: &badFormat})
	require.Error(t, err)

	fields := TranslateErrors(err)
	assert.Equal(t, "Kind must be a known field type", fields["Kind"])
	assert.Equal(t, "DateFormat must be DD/MM/YYYY or MM-DD-YYYY", fields["DateFormat"])
}

func TestTranslateErrors_NonValidationError(t *testing.T) {
	fields := TranslateErrors(assert.AnError)
	assert.Equal(t, assert.AnError.Error(), fields["detail"])
}
