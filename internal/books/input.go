package books

import (
	"errors"
	"math"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var inputValidator = newInputValidator()

func newInputValidator() *validator.Validate {
	validate := validator.New(validator.WithRequiredStructEnabled())

	// Los errores se reportan con el nombre del campo del formulario.
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	if err := validate.RegisterValidation("isbn_num", validISBN); err != nil {
		panic(err)
	}

	return validate
}

// validISBN acepta ISBN-10 o ISBN-13 guardados como número.
func validISBN(field validator.FieldLevel) bool {
	value := field.Field()
	if value.Kind() != reflect.Int64 && value.Kind() != reflect.Int {
		return false
	}
	number := value.Int()
	if number <= 0 {
		return false
	}
	digits := len(strconv.FormatInt(number, 10))
	return digits == 10 || digits == 13
}

// validateInput corre las reglas declaradas en los tags del input.
func validateInput(input any) error {
	err := inputValidator.Struct(input)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	validationError := &ValidationError{}
	for _, fieldError := range fieldErrors {
		validationError.add(fieldError.Field(), messageFor(fieldError))
	}
	return validationError
}

func messageFor(fieldError validator.FieldError) string {
	isText := fieldError.Kind() == reflect.String

	switch fieldError.Tag() {
	case "required":
		return "is required"
	case "min":
		if isText {
			return "must not be empty"
		}
		return "must be at least " + fieldError.Param()
	case "max":
		if isText {
			return "must be at most " + fieldError.Param() + " characters"
		}
		return "must be at most " + fieldError.Param()
	case "isbn_num":
		return "must have 10 or 13 digits"
	default:
		return "is invalid"
	}
}

// formReader lee campos de un formulario acumulando errores de formato.
// Un string vacío (o solo espacios) cuenta como campo no enviado.
type formReader struct {
	values url.Values
	errs   ValidationError
}

func (reader *formReader) text(name string) *string {
	value := strings.TrimSpace(reader.values.Get(name))
	if value == "" {
		return nil
	}
	return &value
}

func (reader *formReader) integer(name string) *int {
	raw := reader.text(name)
	if raw == nil {
		return nil
	}
	number, err := strconv.Atoi(*raw)
	if err != nil {
		reader.errs.add(name, "must be an integer")
		return nil
	}
	return &number
}

func (reader *formReader) integer64(name string) *int64 {
	raw := reader.text(name)
	if raw == nil {
		return nil
	}
	number, err := strconv.ParseInt(*raw, 10, 64)
	if err != nil {
		reader.errs.add(name, "must be an integer")
		return nil
	}
	return &number
}

func (reader *formReader) number(name string) *float64 {
	raw := reader.text(name)
	if raw == nil {
		return nil
	}
	number, err := strconv.ParseFloat(*raw, 64)
	if err != nil || math.IsNaN(number) || math.IsInf(number, 0) {
		reader.errs.add(name, "must be a number")
		return nil
	}
	return &number
}

// ParseCreateForm convierte el formulario de alta en un CreateBookInput.
// Solo detecta errores de formato; las reglas de negocio las aplica el service.
func ParseCreateForm(values url.Values) (CreateBookInput, error) {
	reader := &formReader{values: values}

	input := CreateBookInput{
		Title:       valueOrEmpty(reader.text("title")),
		Author:      valueOrEmpty(reader.text("author")),
		Category:    valueOrEmpty(reader.text("category")),
		PublishYear: reader.integer("publish_year"),
		ISBNNum:     reader.integer64("isbn_num"),
		Price:       reader.number("price"),
	}

	if err := reader.errs.errOrNil(); err != nil {
		return CreateBookInput{}, err
	}
	return input, nil
}

// ParseUpdateForm convierte el formulario de edición en un UpdateBookInput.
func ParseUpdateForm(values url.Values) (UpdateBookInput, error) {
	reader := &formReader{values: values}

	input := UpdateBookInput{
		Title:       reader.text("title"),
		Author:      reader.text("author"),
		Category:    reader.text("category"),
		PublishYear: reader.integer("publish_year"),
		ISBNNum:     reader.integer64("isbn_num"),
		Price:       reader.number("price"),
	}

	if err := reader.errs.errOrNil(); err != nil {
		return UpdateBookInput{}, err
	}
	return input, nil
}

func valueOrEmpty(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

