package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/pos-ledger/internal/application/dto"
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

// parseBody decodifica y valida el cuerpo. Si falla ya escribió la respuesta y ok es false.
func parseBody(c *fiber.Ctx, dest any) (ok bool, err error) {
	if err := c.BodyParser(dest); err != nil {
		return false, invalidBody(c)
	}
	return validateStruct(c, dest)
}

// parseQuery decodifica y valida los parámetros de consulta.
func parseQuery(c *fiber.Ctx, dest any) (ok bool, err error) {
	if err := c.QueryParser(dest); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	return validateStruct(c, dest)
}

func validateStruct(c *fiber.Ctx, dest any) (bool, error) {
	err := validate.Struct(dest)
	if err == nil {
		return true, nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return false, c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		details[fieldPath(fe)] = validationMessage(fe)
	}
	return false, c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
		Code:    "VALIDATION",
		Message: "datos inválidos",
		Details: details,
	})
}

// fieldPath quita el nombre del struct raíz: "CheckoutRequest.items[0].product_id" → "items[0].product_id".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_with":
		return "es requerido"
	case "min":
		return fmt.Sprintf("debe ser al menos %s", fe.Param())
	case "max":
		return fmt.Sprintf("debe ser como máximo %s", fe.Param())
	case "len":
		return fmt.Sprintf("debe tener longitud %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("debe ser uno de: %s", fe.Param())
	case "nefield":
		return fmt.Sprintf("debe ser distinto de %s", fe.Param())
	case "datetime":
		return "debe ser una fecha RFC 3339"
	}
	return "es inválido"
}
