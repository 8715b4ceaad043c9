package models

import (
	"fmt"
	"strings"
	"sync"

	apiErrors "github.com/conghoan1211/v0-app-chat-cute/errors"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/leebenson/conform"
	pkgErrors "github.com/pkg/errors"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
	trans        ut.Translator
)

func setupValidator() {
	validate = validator.New()
	english := en.New()
	uni := ut.New(english, english)
	trans, _ = uni.GetTranslator("en")
	_ = enTranslations.RegisterDefaultTranslations(validate, trans)
}

// ValidateStruct normalizes the conform-tagged strings of req in place and
// then checks its validate tags. The returned error wraps ErrValidation.
func ValidateStruct(req interface{}) error {
	validateOnce.Do(setupValidator)

	if err := validateWhiteSpaces(req); err != nil {
		return pkgErrors.Wrap(apiErrors.ErrValidation, err.Error())
	}
	errs := translateError(validate.Struct(req), trans)
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return pkgErrors.Wrap(apiErrors.ErrValidation, strings.Join(msgs, "; "))
}

func validateWhiteSpaces(data interface{}) error {
	return conform.Strings(data)
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []error{err}
	}
	for _, e := range validatorErrs {
		errs = append(errs, fmt.Errorf("%s", e.Translate(trans)))
	}
	return errs
}
