package validator

import (
	"errors"
	"fmt"
	"railbook/pkg/logger"
	"railbook/pkg/model"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

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
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

// Details flattens the errors for an API error payload.
func (v ValidationErrors) Details() map[string]any {
	fields := make(map[string]any, len(v))
	for _, err := range v {
		fields[err.Field] = err.Message
	}
	return map[string]any{"fields": fields}
}

type BookingValidator struct {
	validate *validator.Validate
	maxSeats int
	now      func() time.Time
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger, maxSeats int) *BookingValidator {
	v := validator.New()
	v.RegisterTagNameFunc(jsonFieldName)

	if err := v.RegisterValidation("station", validateStation); err != nil {
		log.Fatal("Failed to register 'station' validator", "error", err)
	}

	return &BookingValidator{
		validate: v,
		maxSeats: maxSeats,
		now:      time.Now,
		logger:   log,
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func validateStation(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return strings.TrimSpace(s) != "" && !strings.ContainsAny(s, "\n\t")
}

func (v *BookingValidator) Validate(req *model.BookingRequest) error {
	if err := v.validate.Struct(req); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	var errs ValidationErrors

	if req.Seats > v.maxSeats {
		errs = append(errs, ValidationError{
			Field:   "seats",
			Message: fmt.Sprintf("at most %d seats can be booked at once", v.maxSeats),
		})
	}

	if strings.EqualFold(strings.TrimSpace(req.StartStation), strings.TrimSpace(req.EndStation)) {
		errs = append(errs, ValidationError{
			Field:   "end_station",
			Message: "end_station must differ from start_station",
		})
	}

	date, err := model.ParseTravelDate(req.TravelDate)
	if err == nil {
		today := v.now().UTC().Truncate(24 * time.Hour)
		if date.Before(today) {
			errs = append(errs, ValidationError{
				Field:   "travel_date",
				Message: "travel_date cannot be in the past",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +919876543210)", err.Field())
		case "email":
			message = fmt.Sprintf("%s must be a valid email address", err.Field())
		case "datetime":
			message = fmt.Sprintf("%s must be a date in YYYY-MM-DD format", err.Field())
		case "station":
			message = fmt.Sprintf("%s must be a station name", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
