// Package validation provides request validation utilities using the validator/v10 library.
package validation

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/boardicon/boardicon-server/internal/domain"
	domainerrors "github.com/boardicon/boardicon-server/internal/errors"
	"github.com/boardicon/boardicon-server/internal/glyphs"
)

// Validator wraps go-playground/validator with domain error conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator configured for our domain.
//
// Custom tags:
//   - rgba: empty or a color of the form "rgba(r, g, b, a)"
//   - glyph: empty, a library glyph name or an uploaded icon reference.
//     Whether the referenced icon exists is checked by the services.
//   - slot: a known default slot name
func New() *Validator {
	v := validator.New()

	// Use JSON tag names in error messages.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "rgba", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || domain.ValidColor(s)
	})
	mustRegister(v, "glyph", func(fl validator.FieldLevel) bool {
		return ValidGlyphSyntax(fl.Field().String())
	})
	mustRegister(v, "slot", func(fl validator.FieldLevel) bool {
		return domain.DefaultSlot(fl.Field().String()).Valid()
	})

	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// ValidGlyphSyntax reports whether glyph is empty, a library glyph or shaped like an uploaded icon reference.
func ValidGlyphSyntax(glyph string) bool {
	if glyph == "" || glyphs.Has(glyph) {
		return true
	}
	_, ok := domain.ParseUploadedRef(glyph)
	return ok
}

// Validate validates a struct and returns a domain error.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// formatError converts validator errors to domain errors.
func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string)
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = v.friendlyMessage(e)
	}

	fields := slices.Sorted(maps.Keys(fieldErrors))
	return domainerrors.ValidationWithDetails("validation failed: "+strings.Join(fields, ", "), fieldErrors)
}

func (v *Validator) friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "rgba":
		return "must be a color of the form rgba(r, g, b, a)"
	case "glyph":
		return "is not a known icon"
	case "slot":
		return "must be one of: " + joinSlots()
	default:
		return "is invalid"
	}
}

func joinSlots() string {
	names := make([]string, len(domain.DefaultSlots))
	for i, s := range domain.DefaultSlots {
		names[i] = string(s)
	}
	return strings.Join(names, " ")
}
