package validation

import (
	"strings"

	"equipment-qms/pkg/constants"

	"github.com/go-playground/validator/v10"
)

// registerRules регистрирует теги, которые мы используем в struct tags
func registerRules(v *validator.Validate) error {
	if err := v.RegisterValidation("equipment_status", isEquipmentStatus); err != nil {
		return err
	}
	if err := v.RegisterValidation("notblank", isNotBlank); err != nil {
		return err
	}
	return nil
}

// isEquipmentStatus - Active / Maintenance / Inactive, регистр важен
func isEquipmentStatus(fl validator.FieldLevel) bool {
	return constants.EquipmentStatus(fl.Field().String()).IsValid()
}

// isNotBlank - строка не пустая и не из одних пробелов
func isNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
