package record

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Validate checks app against the record rules: non-blank company and
// position, enumerated status/jobType/interviewType, a set application date
// and updatedAt not earlier than createdAt. It has no side effects.
func Validate(app Application) error {
	verr := &ValidationError{}

	if err := validate.Struct(app); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate application: %w", err)
		}
		for _, fe := range fieldErrs {
			verr.add(fe.Field(), describe(fe))
		}
	}

	if app.ApplicationDate.IsZero() {
		verr.add("applicationDate", "is required")
	}
	if !app.CreatedAt.IsZero() && !app.UpdatedAt.IsZero() && app.UpdatedAt.Before(app.CreatedAt) {
		verr.add("updatedAt", "must not be earlier than createdAt")
	}

	return verr.orNil()
}

// CheckUniqueIDs rejects a record set in which two records share a
// non-empty id. Empty ids are assigned by the store later.
func CheckUniqueIDs(apps []Application) error {
	verr := &ValidationError{}
	first := make(map[string]int, len(apps))
	for i, app := range apps {
		if app.ID == "" {
			continue
		}
		if j, dup := first[app.ID]; dup {
			verr.add("id", fmt.Sprintf("duplicate id %q at positions %d and %d", app.ID, j, i))
			continue
		}
		first[app.ID] = i
	}
	return verr.orNil()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return "must not be blank"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("failed %q rule", fe.Tag())
	}
}
