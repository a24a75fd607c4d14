package utils

import (
	"math"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// InitValidator registers the coordinate rule with gin's binding engine
// so request DTOs can declare it in their binding tags.
func InitValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("coordinate", CoordinateRule)
	}
}

func CoordinateRule(fl validator.FieldLevel) bool {
	value := fl.Field().Float()
	return !math.IsNaN(value) && !math.IsInf(value, 0)
}

// ValidCoordinates rejects NaN and infinite values. Range clamping is
// left to the map layer; a slightly out-of-range fix from a flaky GPS is
// still more useful to a responder than no fix at all.
func ValidCoordinates(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	if math.IsInf(lat, 0) || math.IsInf(lng, 0) {
		return false
	}
	return true
}
