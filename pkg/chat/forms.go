package chat

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Forms the views submit. Field names in errors are the json names.
type (
	SignInForm struct {
		Email    string `json:"email" validate:"notblank,email"`
		Password string `json:"password" validate:"notblank"`
	}

	RoomForm struct {
		Name string `json:"name" validate:"notblank"`
	}

	MessageForm struct {
		Message string `json:"message" validate:"notblank"`
	}
)

var requiredMessages = map[string]string{
	"email":    "Email is required",
	"password": "Password is required",
	"name":     "Please enter a room name",
	"message":  "Please type your message",
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks a form and returns FieldErrors, or nil.
func Validate(form interface{}) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(FieldErrors, 0, len(verrs))
	for _, fe := range verrs {
		msg := requiredMessages[fe.Field()]
		if fe.Tag() == "email" {
			msg = "Email is invalid"
		}
		if msg == "" {
			msg = "is invalid"
		}
		out = append(out, &ValidationError{Field: fe.Field(), Message: msg})
	}
	return out
}
