package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type guestRules struct {
	Adults   int `json:"adults" validate:"min=1"`
	Children int `json:"children" validate:"min=0"`
	Infants  int `json:"infants" validate:"min=0"`
}

type contactRules struct {
	FullName string `json:"fullName" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Phone    string `json:"phone" validate:"required,min=5,max=30"`
	Country  string `json:"country" validate:"required"`
}

// requiredContact is the looser rule set the booking store enforces.
type requiredContact struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Country  string `json:"country" validate:"required"`
}

func fieldErrors(step int, err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Step: step, Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = describe(fe)
	}
	return out
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "invalid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	}
	return "is invalid"
}

func ValidateDates(d BookingDraft) error {
	fields := map[string]string{}
	if d.CheckIn == nil {
		fields["checkIn"] = "is required"
	}
	if d.CheckOut == nil {
		fields["checkOut"] = "is required"
	}
	if d.CheckIn != nil && d.CheckOut != nil && NightsBetween(*d.CheckIn, *d.CheckOut) <= 0 {
		fields["checkOut"] = "must be after check-in"
	}
	if len(fields) > 0 {
		return &ValidationError{Step: StepDates, Fields: fields}
	}
	return nil
}

func ValidateGuests(g GuestCounts) error {
	err := fieldErrors(StepGuests, validate.Struct(guestRules(g)))
	if err != nil {
		return err
	}
	if g.Billable() <= 0 {
		return &ValidationError{Step: StepGuests, Fields: map[string]string{"guests": "at least one guest is required"}}
	}
	return nil
}

func ValidateContact(c ContactInfo) error {
	rules := contactRules{
		FullName: strings.TrimSpace(c.FullName),
		Email:    strings.TrimSpace(c.Email),
		Phone:    strings.TrimSpace(c.Phone),
		Country:  strings.TrimSpace(c.Country),
	}
	return fieldErrors(StepDetails, validate.Struct(rules))
}

// ValidateStep reports whether the draft satisfies everything the given
// wizard screen asks for.
func ValidateStep(step int, d BookingDraft) error {
	switch step {
	case StepDates:
		return ValidateDates(d)
	case StepGuests:
		return ValidateGuests(d.Guests)
	case StepAddOns:
		return nil
	case StepDetails:
		return ValidateContact(d.Contact)
	case StepPayment:
		for _, s := range []int{StepDates, StepGuests, StepDetails} {
			if err := ValidateStep(s, d); err != nil {
				return err
			}
		}
		return nil
	}
	return &ValidationError{Fields: map[string]string{"step": "out of range"}}
}

// FirstIncompleteStep returns the lowest step that fails validation, or 0
// when the draft is ready to submit.
func FirstIncompleteStep(d BookingDraft) int {
	for step := FirstStep; step <= LastStep; step++ {
		if ValidateStep(step, d) != nil {
			return step
		}
	}
	return 0
}

// ValidateForStorage applies the checks a stored booking must pass.
func ValidateForStorage(d BookingDraft) error {
	fields := map[string]string{}
	switch {
	case d.CheckIn == nil || d.CheckOut == nil:
		fields["dates"] = "check-in and check-out dates are required"
	case !d.CheckOut.After(*d.CheckIn):
		fields["checkOut"] = "check-out must be after check-in"
	}
	if d.Guests.Adults < 1 {
		fields["adults"] = "at least one adult is required"
	}

	contact := requiredContact{
		FullName: strings.TrimSpace(d.Contact.FullName),
		Email:    strings.TrimSpace(d.Contact.Email),
		Phone:    strings.TrimSpace(d.Contact.Phone),
		Country:  strings.TrimSpace(d.Contact.Country),
	}
	var verr *ValidationError
	if err := fieldErrors(0, validate.Struct(contact)); errors.As(err, &verr) {
		for k, v := range verr.Fields {
			fields[k] = v
		}
	} else if err != nil {
		return err
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
