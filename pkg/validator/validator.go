package validator

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"

	apperrors "github.com/ayurcare/clinic-api/pkg/errors"
)

const (
	dateLayout         = "2006-01-02"
	defaultPhoneRegion = "IN"
)

// Rules holds the clinic calendar used by the date validators and the
// region assumed for phone numbers written without a country code.
type Rules struct {
	Location    *time.Location
	ClosedDay   time.Weekday
	Now         func() time.Time
	PhoneRegion string
}

// Validator wraps go-playground/validator with the clinic's custom tags
// and per-field messages keyed by JSON name.
type Validator struct {
	validate *validator.Validate
	rules    Rules
}

func New(rules Rules) *Validator {
	if rules.Location == nil {
		rules.Location = time.UTC
	}
	if rules.Now == nil {
		rules.Now = time.Now
	}
	if rules.PhoneRegion == "" {
		rules.PhoneRegion = defaultPhoneRegion
	}
	rules.PhoneRegion = strings.ToUpper(rules.PhoneRegion)

	v := &Validator{validate: validator.New(validator.WithRequiredStructEnabled()), rules: rules}

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.validate.RegisterValidation("notpast", v.notPast)
	_ = v.validate.RegisterValidation("openday", v.openDay)
	_ = v.validate.RegisterValidation("phone", v.validPhone)

	return v
}

// Today returns the current date in the clinic's timezone.
func (v *Validator) Today() time.Time {
	now := v.rules.Now().In(v.rules.Location)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, v.rules.Location)
}

// Validate returns nil or an AppError carrying one message per field.
func (v *Validator) Validate(obj interface{}) error {
	err := v.validate.Struct(obj)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.BadRequest("invalid request", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; seen {
			continue
		}
		fields[fe.Field()] = v.message(fe)
	}
	return apperrors.Validation(fields)
}

func (v *Validator) message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "eqfield":
		return "does not match"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "notpast":
		return "cannot be in the past"
	case "openday":
		return fmt.Sprintf("clinic is closed on %s", v.rules.ClosedDay)
	case "phone":
		return "must be a valid phone number"
	default:
		return "is invalid"
	}
}

func (v *Validator) parseDate(fl validator.FieldLevel) (time.Time, bool) {
	d, err := time.ParseInLocation(dateLayout, fl.Field().String(), v.rules.Location)
	return d, err == nil
}

// notPast accepts today and any later date.
func (v *Validator) notPast(fl validator.FieldLevel) bool {
	d, ok := v.parseDate(fl)
	if !ok {
		// datetime reports the format problem
		return true
	}
	return !d.Before(v.Today())
}

func (v *Validator) openDay(fl validator.FieldLevel) bool {
	d, ok := v.parseDate(fl)
	if !ok {
		return true
	}
	return d.Weekday() != v.rules.ClosedDay
}

// validPhone accepts numbers libphonenumber considers valid, written with
// ASCII digits and the usual separators. Numbers without a leading + are
// read in the configured region.
func (v *Validator) validPhone(fl validator.FieldLevel) bool {
	raw := fl.Field().String()
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
		case r == '+' || r == '-' || r == ' ' || r == '(' || r == ')' || r == '.':
		default:
			return false
		}
	}
	num, err := phonenumbers.Parse(raw, v.rules.PhoneRegion)
	return err == nil && phonenumbers.IsValidNumber(num)
}
