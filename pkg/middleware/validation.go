package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var initValidatorOnce sync.Once

// InitValidator registers custom validators with Gin's binding engine
func InitValidator() {
	initValidatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}

		_ = v.RegisterValidation("dateonly", validateDateOnly)
	})
}

// validateDateOnly accepts dates in YYYY-MM-DD form
func validateDateOnly(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}
