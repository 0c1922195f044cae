package validate

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RegisterCustomValidators wires the gallery's validators into a validator
// instance, usually gin's binding engine.
func RegisterCustomValidators(v *validator.Validate) {
	v.RegisterValidation("max_string_length", MaxStringLengthValidator)
	v.RegisterAlias("collection_name", "max_string_length=200")
	v.RegisterAlias("photo_title", "max_string_length=200")
	v.RegisterAlias("photo_description", "max_string_length=600")
}

// MaxStringLengthValidator caps a string's length after trimming whitespace
var MaxStringLengthValidator validator.Func = func(fl validator.FieldLevel) bool {
	maxLen, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(fl.Field().String())) <= maxLen
}
