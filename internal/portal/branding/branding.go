// Package branding decodes client colour schemes stored with projects.
package branding

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/dmitrijs2005/studioportal/internal/common"
	"github.com/go-playground/validator/v10"
)

type ColorScheme struct {
	Primary    string `json:"primary" validate:"required,hexcolor"`
	Secondary  string `json:"secondary" validate:"required,hexcolor"`
	Accent     string `json:"accent" validate:"required,hexcolor"`
	Background string `json:"background" validate:"required,hexcolor"`
	Text       string `json:"text" validate:"required,hexcolor"`
}

// DecodeError describes why a raw value is not a colour scheme. Fields lists
// the offending JSON field names when validation, not parsing, failed.
type DecodeError struct {
	Fields []string
	Err    error
}

func (e *DecodeError) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("invalid color scheme: bad fields %s", strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("invalid color scheme: %v", e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{common.ErrorValidation, e.Err}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func init() {
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
}

// Decode parses raw strictly: unknown fields, trailing data and missing or
// malformed colours are all errors.
func Decode(raw json.RawMessage) (ColorScheme, error) {
	var cs ColorScheme

	if len(bytes.TrimSpace(raw)) == 0 {
		return cs, &DecodeError{Err: errors.New("empty value")}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cs); err != nil {
		return ColorScheme{}, &DecodeError{Err: err}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ColorScheme{}, &DecodeError{Err: errors.New("trailing data after object")}
	}

	if err := cs.Validate(); err != nil {
		return ColorScheme{}, err
	}
	return cs, nil
}

// Validate checks every colour is present and a hex colour.
func (cs ColorScheme) Validate() error {
	err := validate.Struct(cs)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &DecodeError{Err: err}
	}
	de := &DecodeError{Err: err}
	for _, fe := range verrs {
		de.Fields = append(de.Fields, fe.Field())
	}
	return de
}

// Encode returns the JSON form stored in the database.
func (cs ColorScheme) Encode() (json.RawMessage, error) {
	if err := cs.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(cs)
}
