package dto

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// dateLayouts are the formats accepted wherever the API takes a date string.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

func validDate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, s); err == nil {
			return true
		}
	}
	return false
}

// RegisterValidators installs the custom binding validators on gin's
// validator engine. Called once at startup.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	return v.RegisterValidation("date", validDate)
}
