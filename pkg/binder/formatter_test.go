package binder

import (
	"reflect"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/gorilla/schema"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
)

// fieldError is a validator.FieldError with only the parts the formatter
// reads filled in.
type fieldError struct {
	tag   string
	param string
	kind  reflect.Kind
}

func (e fieldError) Error() string                    { return "field error" }
func (e fieldError) Tag() string                      { return e.tag }
func (e fieldError) ActualTag() string                { return e.tag }
func (e fieldError) Namespace() string                { return "" }
func (e fieldError) StructNamespace() string          { return "" }
func (e fieldError) Field() string                    { return "due_date" }
func (e fieldError) StructField() string              { return "DueDate" }
func (e fieldError) Value() interface{}               { return nil }
func (e fieldError) Param() string                    { return e.param }
func (e fieldError) Type() reflect.Type               { return reflect.TypeOf("") }
func (e fieldError) Translate(_ ut.Translator) string { return "" }
func (e fieldError) Kind() reflect.Kind {
	if e.kind == reflect.Invalid {
		return reflect.String
	}
	return e.kind
}

func TestFormatValidationError(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		err fieldError
		msg string
	}{
		"date":         {fieldError{tag: date}, `"due_date" should be in the format of YYYY-MM-DD`},
		"email":        {fieldError{tag: email}, `"due_date" is not a valid email`},
		"isbn":         {fieldError{tag: isbn}, `"due_date" is not a valid ISBN-10 or ISBN-13`},
		"required":     {fieldError{tag: required}, `"due_date" is required`},
		"max string":   {fieldError{tag: mx, param: "300"}, `"due_date" length must be less than or equal to 300 characters`},
		"min string 1": {fieldError{tag: mn, param: "1"}, `"due_date" length must be greater than or equal to 1 character`},
		"min int":      {fieldError{tag: mn, param: "0", kind: reflect.Int}, `"due_date" must be greater than or equal to 0`},
		"max float":    {fieldError{tag: mx, param: "9", kind: reflect.Float64}, `"due_date" must be less than or equal to 9`},
		"max slice":    {fieldError{tag: mx, param: "3", kind: reflect.Slice}, `"due_date" length must be less than or equal to 3 elements`},
		"oneof": {
			fieldError{tag: oneof, param: "pending approved returned"},
			`"due_date" must be one of the following: "pending", "approved", "returned"`,
		},
		"unknown tag": {fieldError{tag: "uuid4"}, `"due_date" is invalid`},
	}

	for name, tc := range cases {
		t.Run(name, func(tt *testing.T) {
			assert.Equal(tt, tc.msg, formatValidationError(tc.err))
		})
	}
}

func TestFormatDecodeErrors(t *testing.T) {
	t.Parallel()

	msg := formatUnmarshalTypeError(&json.UnmarshalTypeError{Field: "quantity", Type: reflect.TypeOf(0)})
	assert.Equal(t, `"quantity" should be of type int`, msg)

	msg = formatSchemaConversionError(schema.ConversionError{Key: "available", Type: reflect.TypeOf(true)})
	assert.Equal(t, `"available" should be of type bool`, msg)
}
