package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type credentialsForm struct {
	Username string            `validate:"required,max=80"`
	Password string            `validate:"required"`
	Errors   map[string]string `validate:"-"`
}

type programForm struct {
	Name        string            `validate:"required,max=120"`
	Description string            `validate:"max=2000"`
	Errors      map[string]string `validate:"-"`
}

type clientForm struct {
	Name   string            `validate:"required,max=120"`
	Age    string            `validate:"required,number,max=3"`
	Gender string            `validate:"required,max=10"`
	Errors map[string]string `validate:"-"`
}

// clientEditForm leaves blank fields unchanged.
type clientEditForm struct {
	Name   string            `validate:"omitempty,max=120"`
	Age    string            `validate:"omitempty,number,max=3"`
	Errors map[string]string `validate:"-"`
}

func readCredentialsForm(r *http.Request) credentialsForm {
	return credentialsForm{
		Username: strings.TrimSpace(r.PostFormValue("username")),
		Password: r.PostFormValue("password"),
	}
}

func readProgramForm(r *http.Request) programForm {
	return programForm{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
	}
}

func readClientForm(r *http.Request) clientForm {
	return clientForm{
		Name:   strings.TrimSpace(r.PostFormValue("name")),
		Age:    strings.TrimSpace(r.PostFormValue("age")),
		Gender: strings.TrimSpace(r.PostFormValue("gender")),
	}
}

func readClientEditForm(r *http.Request) clientEditForm {
	return clientEditForm{
		Name: strings.TrimSpace(r.PostFormValue("name")),
		Age:  strings.TrimSpace(r.PostFormValue("age")),
	}
}

// validateForm returns a message per invalid field keyed by its form name,
// or nil when the form is valid.
func validateForm(form any) map[string]string {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return map[string]string{"form": err.Error()}
	}

	messages := make(map[string]string, len(ve))
	for _, fe := range ve {
		messages[strings.ToLower(fe.Field())] = fieldError(fe)
	}
	return messages
}

func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "number":
		return field + " must be a whole number"
	case "max":
		if field == "age" {
			return "age is out of range"
		}
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}

func parseAge(value string) (int, error) {
	age, err := strconv.Atoi(value)
	if err != nil || age < 0 {
		return 0, fmt.Errorf("invalid age %q", value)
	}
	return age, nil
}
