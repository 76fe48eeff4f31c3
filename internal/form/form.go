// Package form parses and validates the form-encoded bodies of the web pages.
package form

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"warbler/internal/model"
)

// Errors maps a form field name to a human readable message.
type Errors map[string]string

// Signup is the user registration form.
type Signup struct {
	Username string `form:"username" validate:"required,max=50"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
	ImageURL string `form:"image_url" validate:"omitempty,imageurl"`
}

// Login is the login form.
type Login struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required,min=6"`
}

// Message is the new message form.
type Message struct {
	Text string `form:"text" validate:"required,max=140"`
}

// UserEdit is the profile edit form. Password must match the current one.
type UserEdit struct {
	Username       string `form:"username" validate:"required,max=50"`
	Email          string `form:"email" validate:"required,email"`
	ImageURL       string `form:"image_url" validate:"omitempty,imageurl"`
	HeaderImageURL string `form:"header_image_url" validate:"omitempty,imageurl"`
	Bio            string `form:"bio"`
	Location       string `form:"location" validate:"max=100"`
	Password       string `form:"password" validate:"required"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			return fld.Tag.Get("form")
		})
		// absolute http(s) URLs or site-relative paths such as the default images
		_ = validate.RegisterValidation("imageurl", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			if strings.HasPrefix(s, "/") && !strings.HasPrefix(s, "//") {
				return true
			}
			u, err := url.ParseRequestURI(s)
			return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
		})
	})
	return validate
}

// Parse fills dst (a pointer to one of the form structs) from the request's
// POST body, trimming whitespace, and validates it. A nil Errors means the form is valid.
func Parse(r *http.Request, dst any) (Errors, error) {
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("parse form: %w", err)
	}

	v := reflect.ValueOf(dst).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name := t.Field(i).Tag.Get("form")
		if name == "" {
			continue
		}
		value := r.PostForm.Get(name)
		if name != "password" {
			value = strings.TrimSpace(value)
		}
		v.Field(i).SetString(value)
	}

	return Validate(dst), nil
}

// Validate runs the struct tags on dst.
func Validate(dst any) Errors {
	err := instance().Struct(dst)
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return Errors{"_form": err.Error()}
	}

	errs := make(Errors, len(ve))
	for _, fe := range ve {
		errs[fe.Field()] = message(fe)
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "min":
		return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	case "imageurl":
		return "Invalid URL."
	default:
		return fmt.Sprintf("Failed %s validation.", fe.Tag())
	}
}

// ToSignupRequest converts the form into the service request.
func (f Signup) ToSignupRequest() model.SignupRequest {
	return model.SignupRequest{
		Username: f.Username,
		Email:    f.Email,
		Password: f.Password,
		ImageURL: f.ImageURL,
	}
}

// ToUpdateRequest converts the form into the service request.
func (f UserEdit) ToUpdateRequest() model.UpdateProfileRequest {
	return model.UpdateProfileRequest{
		Username:       f.Username,
		Email:          f.Email,
		ImageURL:       f.ImageURL,
		HeaderImageURL: f.HeaderImageURL,
		Bio:            f.Bio,
		Location:       f.Location,
		Password:       f.Password,
	}
}
