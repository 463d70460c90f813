package httpapi

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorInstance *validator.Validate
	validatorOnce     sync.Once
)

// getValidator returns the shared validator.Validate instance, configured
// once to report JSON field names in error messages rather than Go field
// names.
func getValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		validatorInstance = v
	})
	return validatorInstance
}

func validateStruct(v interface{}) error {
	return getValidator().Struct(v)
}
