package api

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/lalith-99/notevault/internal/models"
)

var registerOnce sync.Once

// registerValidators adds the "role" tag to gin's validator engine, so a
// request struct can say `binding:"required,role"` and an unknown role is
// rejected at bind time with a 400.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = v.RegisterValidation("role", func(fl validator.FieldLevel) bool {
			return models.Role(fl.Field().String()).IsValid()
		})
	})
}
