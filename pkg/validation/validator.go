// Package validation - валидатор тела запросов для echo.
package validation

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RequestValidator реализует echo.Validator.
type RequestValidator struct {
	validate *validator.Validate
}

func (rv *RequestValidator) Validate(i interface{}) error {
	return rv.validate.Struct(i)
}

// New собирает валидатор с правилами equipment_status и notblank.
// Без правил сервер не стартует.
func New() *RequestValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	if err := registerRules(v); err != nil {
		panic("ошибка регистрации валидаторов: " + err.Error())
	}
	return &RequestValidator{validate: v}
}

// jsonFieldName - в ошибках поле называется так, как его прислал клиент.
func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}
