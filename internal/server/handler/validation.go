package handler

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/julianstephens/hemma/internal/constants"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding rules to gin's validator.
// Safe to call more than once.
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("dayindex", ValidateDayIndex)
		}
	})
}

// ValidateDayIndex accepts 0-based day indexes inside the tracked period.
func ValidateDayIndex(fl validator.FieldLevel) bool {
	day := fl.Field().Int()
	return day >= 0 && day < constants.TotalDays
}
