package utils

import (
	"log"
	"reflect"
	"strings"

	"taskboard/recurrence"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var Validate *validator.Validate

// InitValidator registers the custom rules on both the standalone validator
// and the one gin uses for request binding.
func InitValidator() {
	Validate = validator.New()
	RegisterCustomValidators(Validate)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		RegisterCustomValidators(v)
	}
}

func RegisterCustomValidators(v *validator.Validate) {
	rules := map[string]validator.Func{
		"weekday":      ValidateWeekdayRule,
		"frequency":    ValidateFrequencyRule,
		"endcondition": ValidateEndConditionRule,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			log.Printf("Error registering %s validator: %v", tag, err)
		}
	}
}

// ValidateWeekdayRule accepts a day name ("mon", "Friday") or an index 0-6.
func ValidateWeekdayRule(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.String:
		_, ok := recurrence.ParseWeekday(field.String())
		return ok
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		_, ok := recurrence.ParseWeekday(int(field.Int()))
		return ok
	case reflect.Float32, reflect.Float64:
		f := field.Float()
		if f != float64(int(f)) {
			return false
		}
		_, ok := recurrence.ParseWeekday(int(f))
		return ok
	default:
		return false
	}
}

func ValidateFrequencyRule(fl validator.FieldLevel) bool {
	switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
	case "", "daily", "weekly", "monthly", "custom":
		return true
	default:
		return false
	}
}

func ValidateEndConditionRule(fl validator.FieldLevel) bool {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(fl.Field().String()), "_", "")) {
	case "", "never", "after", "ondate":
		return true
	default:
		return false
	}
}
