package validator

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	v10 "github.com/go-playground/validator/v10"
)

// Singleton validator dari go-playground
var (
	once sync.Once
	v    *v10.Validate
)

var phonePattern = regexp.MustCompile(`^[\d\s\+\-\(\)]+$`)

// New mengembalikan instance validator yang sama (thread-safe).
func New() *v10.Validate {
	once.Do(func() {
		v = v10.New()
		// pakai nama field dari tag json supaya error map cocok dengan body request
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("phone", func(fl v10.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
	})
	return v
}

// ValidateStruct memvalidasi struct dan merapikan error menjadi map[field][]message.
func ValidateStruct(s any) (map[string][]string, error) {
	err := New().Struct(s)
	if err == nil {
		return nil, nil
	}
	ve, ok := err.(v10.ValidationErrors)
	if !ok {
		// bukan error validasi terstruktur
		return map[string][]string{"non_field_errors": {err.Error()}}, err
	}
	fields := make(map[string][]string, len(ve))
	for _, fe := range ve {
		fields[fe.Field()] = append(fields[fe.Field()], msgForTag(fe))
	}
	return fields, err
}

// msgForTag bikin pesan ringkas per rule
func msgForTag(fe v10.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "min":
		return "Ensure this value is at least " + fe.Param() + "."
	case "max":
		return "Ensure this value is at most " + fe.Param() + "."
	case "gte":
		return "Ensure this value is greater than or equal to " + fe.Param() + "."
	case "ne":
		return "This value must not be " + fe.Param() + "."
	case "oneof":
		return "Must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ") + "."
	case "datetime":
		return "Date has wrong format. Use YYYY-MM-DD."
	case "phone":
		return "Phone number must contain only digits, spaces, +, -, (, )"
	case "eqfield":
		return "Must match " + fe.Param() + "."
	default:
		return fe.Error() // fallback detail bawaan
	}
}
