package handler

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/iliyamo/expense-tracker/internal/model"
	"github.com/iliyamo/expense-tracker/internal/service"
)

// fieldMessages maps "<json field>.<tag>" to the message returned to clients.
var fieldMessages = map[string]string{
	"name.notblank":        service.MsgNameRequired,
	"name.max":             service.MsgNameTooLong,
	"email.required":       service.MsgEmailInvalid,
	"email.email":          service.MsgEmailInvalid,
	"email.max":            service.MsgEmailTooLong,
	"password.notblank":    service.MsgPasswordRequired,
	"category.notblank":    service.MsgCategoryRequired,
	"category.max":         service.MsgCategoryTooLong,
	"subCategory.notblank": service.MsgSubCategoryRequired,
	"subCategory.max":      service.MsgSubCategoryTooLong,
	"amount.required":      service.MsgAmountRequired,
	"amount.gt":            service.MsgAmountPositive,
	"amount.lt":            service.MsgAmountTooLarge,
	"date.required":        service.MsgDateRequired,
}

// Validator adapts go-playground/validator to echo.Validator.  Failures are
// returned as *service.ValidationError keyed by JSON field name.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns a Validator that understands the request DTOs of this
// package, including their amount and date types.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		a := field.Interface().(amount)
		f, _ := a.Float64()
		return f
	}, amount{})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		return field.Interface().(model.Date).Time
	}, model.Date{})
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return &Validator{v: v}
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	out := &service.ValidationError{}
	for _, fe := range fieldErrs {
		msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
		if !ok {
			msg = "Invalid value"
		}
		out.Add(fe.Field(), msg)
	}
	return out
}
