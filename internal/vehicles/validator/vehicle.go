package validator

import (
	"errors"
	"fmt"
	"railbook/pkg/logger"
	"railbook/pkg/model"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	return fmt.Sprintf("validation failed: %d error(s)", len(v))
}

func (v ValidationErrors) Details() map[string]any {
	fields := make(map[string]any, len(v))
	for _, err := range v {
		fields[err.Field] = err.Message
	}
	return map[string]any{"fields": fields}
}

type VehicleValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewVehicleValidator(log *logger.Logger) *VehicleValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("clock", validateClock); err != nil {
		log.Fatal("Failed to register 'clock' validator", "error", err)
	}

	return &VehicleValidator{
		validate: v,
		logger:   log,
	}
}

// validateClock accepts HH:MM and the "--" placeholder used for stops the
// vehicle does not halt at.
func validateClock(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == "--" || clockPattern.MatchString(s)
}

func (v *VehicleValidator) Validate(id string, def *model.VehicleDefinition) error {
	var errs ValidationErrors
	if strings.TrimSpace(id) == "" || len(id) > 64 {
		errs = append(errs, ValidationError{Field: "id", Message: "id is required and at most 64 characters"})
	}

	if err := v.validate.Struct(def); err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return err
		}
		errs = append(errs, v.translateValidationErrors(validationErrs)...)
	}

	if len(errs) > 0 {
		v.logger.Warn("Vehicle definition rejected", "vehicle_id", id, "errors", len(errs))
		return errs
	}
	return nil
}

func (v *VehicleValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var out ValidationErrors
	for _, err := range errs {
		field := strings.TrimPrefix(err.Namespace(), "VehicleDefinition.")
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", field)
		case "min":
			message = fmt.Sprintf("%s must be at least %s", field, err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", field, err.Param())
		case "nefield":
			message = fmt.Sprintf("%s must differ from %s", field, err.Param())
		case "clock":
			message = fmt.Sprintf("%s must be HH:MM or --", field)
		}

		out = append(out, ValidationError{Field: field, Message: message})
	}
	return out
}
