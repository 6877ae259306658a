package service

import (
	"github.com/go-playground/validator/v10"

	appErrors "github.com/noah-isme/kkn-placement-api/pkg/errors"
)

var validate = validator.New()

// validateStruct runs the validator tags on a request payload and converts
// failures into the shared validation error shape.
func validateStruct(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return nil
}
