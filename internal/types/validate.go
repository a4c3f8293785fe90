package types

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var cnicPattern = regexp.MustCompile(`^\d{5}-\d{7}-\d$`)

// MaxMoney is the exclusive upper bound of an amount; money columns are NUMERIC(14,2).
var MaxMoney = decimal.New(1, 12)

// fieldMessages overrides the generated message for a field, whatever tag failed.
var fieldMessages = map[string]string{
	"title":               "Invalid title",
	"first_name":          "First name is required and cannot exceed 50 characters",
	"middle_name":         "Middle name cannot exceed 50 characters",
	"last_name":           "Last name is required and cannot exceed 50 characters",
	"father_name":         "Father name is required and cannot exceed 100 characters",
	"dob":                 "Valid date of birth is required",
	"marital_status":      "Invalid marital status",
	"gender":              "Invalid gender",
	"permanent_address":   "Permanent address is required and cannot exceed 500 characters",
	"mailing_address":     "Mailing address is required and cannot exceed 500 characters",
	"cnic":                "CNIC must be in the format 12345-1234567-1",
	"qualification_level": "Invalid qualification level",
	"start_date":          "Valid start date is required",
	"institute":           "Institute name is required and cannot exceed 200 characters",
	"discipline":          "Discipline is required and cannot exceed 100 characters",
	"campus":              "Campus is required and cannot exceed 100 characters",
	"department":          "Department is required and cannot exceed 100 characters",
	"degree_type":         "Invalid degree type",
	"session_type":        "Invalid session type",
	"major":               "Major is required and cannot exceed 100 characters",
	"organization_type":   "Invalid organization type",
	"sector":              "Invalid sector",
	"category":            "Invalid category",
	"employer_name":       "Employer name is required and cannot exceed 200 characters",
	"job_type":            "Invalid job type",
	"job_title":           "Job title is required and cannot exceed 100 characters",
	"field_of_work":       "Invalid field of work",
	"career_level":        "Invalid career level",
	"office_email":        "Please provide a valid office email",
	"research_title":      "Research title is required and cannot exceed 200 characters",
	"research_area":       "Invalid research area",
	"duration":            "Duration must be between 1 and 36 months",
	"budget_requested":    "Budget must be a positive number",
	"research_abstract":   "Research abstract is required and cannot exceed 2000 characters",
	"status":              "Invalid status",
	"review_comments":     "Review comments cannot exceed 1000 characters",
	"approved_budget":     "Approved budget must be a positive number",
	"funding_start_date":  "Valid funding start date is required",
	"funding_end_date":    "Valid funding end date is required",
	"progress":            "Progress is required",
	"email":               "Please provide a valid email",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Money fields validate as numbers.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Date fields validate on their time value; the zero date counts as empty.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(Date); ok {
			if d.IsZero() {
				return nil
			}
			return d.Time
		}
		return nil
	}, Date{})

	_ = v.RegisterValidation("cnic", func(fl validator.FieldLevel) bool {
		return cnicPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		d, ok := decimalField(fl)
		if !ok {
			return false
		}
		return d.Equal(d.Round(2)) && d.Abs().LessThan(MaxMoney)
	})

	return v
}

// decimalField reads the decimal behind fl. The registered type func hands
// validators a float64, which cannot tell 100.555 from 100.55499999.
func decimalField(fl validator.FieldLevel) (decimal.Decimal, bool) {
	parent := reflect.Indirect(fl.Parent())
	if parent.Kind() != reflect.Struct {
		return decimal.Decimal{}, false
	}
	f := reflect.Indirect(parent.FieldByName(fl.StructFieldName()))
	if !f.IsValid() || !f.CanInterface() {
		return decimal.Decimal{}, false
	}
	d, ok := f.Interface().(decimal.Decimal)
	return d, ok
}

// Validate checks v against its struct tags and returns an *ErrValidation
// describing the first failing field, or nil.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ErrValidation{Field: fe.Field(), Message: messageFor(fe)}
	}
	return &ErrValidation{Message: err.Error()}
}

func messageFor(fe validator.FieldError) string {
	if fe.Tag() == "money" {
		return humanize(fe.Field()) + " must have at most 2 decimal places and be less than " + MaxMoney.String()
	}
	if msg, ok := fieldMessages[fe.Field()]; ok {
		return msg
	}

	label := humanize(fe.Field())
	switch fe.Tag() {
	case "required", "notblank":
		return label + " is required"
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", label, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", label, fe.Param())
	case "oneof":
		return "Invalid " + strings.ToLower(label)
	case "email":
		return "Please provide a valid email"
	case "gte":
		return label + " cannot be negative"
	}
	return fmt.Sprintf("%s is invalid", label)
}

// humanize turns "permanent_country" into "Permanent country".
func humanize(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
