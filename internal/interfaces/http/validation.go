package http

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"json", "query"} {
			if tag := strings.SplitN(f.Tag.Get(key), ",", 2)[0]; tag != "" && tag != "-" {
				return tag
			}
		}
		return f.Name
	})
	return v
}

func init() {
	// Fechas en query string: RFC3339 o AAAA-MM-DD (UTC).
	fiber.SetParserDecoder(fiber.ParserConfig{
		IgnoreUnknownKeys: true,
		ZeroEmpty:         true,
		ParserType: []fiber.ParserType{{
			Customtype: time.Time{},
			Converter:  parseTimeValue,
		}},
	})
}

func parseTimeValue(s string) reflect.Value {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return reflect.ValueOf(t)
		}
	}
	return reflect.Value{}
}

// requestError error de forma de la petición (cuerpo, query o parámetro de ruta).
type requestError struct {
	code    string
	message string
}

func (e *requestError) Error() string { return e.message }

// parseBody decodifica el JSON y valida las etiquetas validate.
func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return &requestError{code: "INVALID_BODY", message: "cuerpo inválido"}
	}
	return validate.Struct(dst)
}

// parseQuery decodifica y valida los parámetros de consulta.
func parseQuery(c *fiber.Ctx, dst any) error {
	if err := c.QueryParser(dst); err != nil {
		return &requestError{code: "INVALID_QUERY", message: "parámetros de consulta inválidos"}
	}
	return validate.Struct(dst)
}

// uuidParam lee un parámetro de ruta que debe ser UUID.
func uuidParam(c *fiber.Ctx, name string) (string, error) {
	v := c.Params(name)
	if validate.Var(v, "required,uuid") != nil {
		return "", &requestError{code: "INVALID_ID", message: name + " debe ser un UUID"}
	}
	return v, nil
}

func validationDetails(errs validator.ValidationErrors) map[string]string {
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		details[fe.Field()] = validationMessage(fe)
	}
	return details
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "es requerido"
	case "uuid":
		return "debe ser un UUID"
	case "min":
		return fmt.Sprintf("mínimo %s", fe.Param())
	case "max":
		return fmt.Sprintf("máximo %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("debe ser uno de: %s", fe.Param())
	}
	return "es inválido"
}
