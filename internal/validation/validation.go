// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package validation wraps go-playground/validator with the custom tags used
// by the portal forms and French/English error messages.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	"github.com/go-playground/locales/fr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	fr_translations "github.com/go-playground/validator/v10/translations/fr"

	"github.com/olegiv/ecole-go/internal/model"
)

// custom validation tags
const (
	notBlankTag = "notblank"
	levelTag    = "level"
	subjectTag  = "subject"
)

// DefaultLang is used when a caller asks for an unknown language.
const DefaultLang = "fr"

var customMessages = map[string]map[string]string{
	"fr": {
		notBlankTag: "{0} ne peut pas être vide",
		levelTag:    "{0} n'est pas un niveau valide",
		subjectTag:  "{0} n'est pas une matière valide",
	},
	"en": {
		notBlankTag: "{0} cannot be blank",
		levelTag:    "{0} is not a valid level",
		subjectTag:  "{0} is not a valid subject",
	},
}

// FieldError is a translated validation failure on one form field.
type FieldError struct {
	Field   string
	Message string
}

// Errors is returned when a struct fails validation.
type Errors []FieldError

func (e Errors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Message
	}
	return strings.Join(msgs, "; ")
}

// Get returns the message for field, or "" if the field is valid.
func (e Errors) Get(field string) string {
	for _, fe := range e {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

// Validator validates form structs and translates failures.
type Validator struct {
	validate    *validator.Validate
	translators map[string]ut.Translator
}

// New creates a Validator with the portal's custom tags and the fr and en
// translations registered.
func New() (*Validator, error) {
	v := &Validator{
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		translators: make(map[string]ut.Translator, 2),
	}

	// Use JSON tag names for errors instead of Go struct names.
	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.validate.RegisterValidation(notBlankTag, notBlank); err != nil {
		return nil, err
	}
	if err := v.validate.RegisterValidation(levelTag, validLevel); err != nil {
		return nil, err
	}
	if err := v.validate.RegisterValidation(subjectTag, validSubject); err != nil {
		return nil, err
	}

	frLocale := fr.New()
	uni := ut.New(frLocale, frLocale, en.New())

	frTrans, _ := uni.GetTranslator("fr")
	if err := fr_translations.RegisterDefaultTranslations(v.validate, frTrans); err != nil {
		return nil, err
	}
	v.translators["fr"] = frTrans

	enTrans, _ := uni.GetTranslator("en")
	if err := en_translations.RegisterDefaultTranslations(v.validate, enTrans); err != nil {
		return nil, err
	}
	v.translators["en"] = enTrans

	for lang, trans := range v.translators {
		for tag, msg := range customMessages[lang] {
			if err := v.registerTranslation(trans, tag, msg); err != nil {
				return nil, err
			}
		}
	}

	return v, nil
}

func (v *Validator) registerTranslation(trans ut.Translator, tag, msg string) error {
	register := func(t ut.Translator) error {
		return t.Add(tag, msg, true)
	}
	translate := func(t ut.Translator, fe validator.FieldError) string {
		msg, err := t.T(fe.Tag(), fe.Field())
		if err != nil {
			return fe.Error()
		}
		return msg
	}
	return v.validate.RegisterTranslation(tag, trans, register, translate)
}

// Struct validates s and returns Errors translated into lang, or nil.
// Errors that are not field failures (e.g. a nil argument) are returned as is.
func (v *Validator) Struct(lang string, s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	trans, ok := v.translators[lang]
	if !ok {
		trans = v.translators[DefaultLang]
	}

	out := make(Errors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: fe.Translate(trans)})
	}
	return out
}

// Custom Validators

func notBlank(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func validLevel(fl validator.FieldLevel) bool {
	return model.Level(fl.Field().String()).IsValid()
}

func validSubject(fl validator.FieldLevel) bool {
	return model.Subject(fl.Field().String()).IsValid()
}
