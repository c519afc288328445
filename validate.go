package mesto

import (
	"errors"
	"regexp"
	"sync"

	"github.com/go-playground/validator/v10"
)

// urlPattern is the link/avatar format accepted by the API.
var urlPattern = regexp.MustCompile(`^https?://(www\.)?([a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}(/[0-9a-zA-Z\-._~:/?#[\]@!$&'()*+,;=]*)?/?#?$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("mestourl", func(fl validator.FieldLevel) bool {
			return urlPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// IsValidURL reports whether s is an acceptable link or avatar URL.
func IsValidURL(s string) bool {
	return urlPattern.MatchString(s)
}

// SignupRequest is the signup payload.
type SignupRequest struct {
	Name     string `json:"name" validate:"omitempty,min=2,max=30"`
	About    string `json:"about" validate:"omitempty,min=2,max=200"`
	Avatar   string `json:"avatar" validate:"omitempty,mestourl"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest is the signin payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileRequest is the PATCH /users/me payload.
type ProfileRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=30"`
	About string `json:"about" validate:"required,min=2,max=200"`
}

// AvatarRequest is the PATCH /users/me/avatar payload.
type AvatarRequest struct {
	Avatar string `json:"avatar" validate:"required,mestourl"`
}

// CardRequest is the POST /cards payload.
type CardRequest struct {
	Name string `json:"name" validate:"required,min=2,max=30"`
	Link string `json:"link" validate:"required,mestourl"`
}

// fieldMessages maps "Field.tag" to the message shown to the caller.
var fieldMessages = map[string]string{
	"Email.required":    "Поля email и password обязательны",
	"Password.required": "Поля email и password обязательны",
	"Email.email":       "Некорректный email",
	"Name.required":     "Поле name обязательно",
	"Name.min":          "Поле name должно содержать от 2 до 30 символов",
	"Name.max":          "Поле name должно содержать от 2 до 30 символов",
	"About.required":    "Поле about обязательно",
	"About.min":         "Поле about должно содержать от 2 до 200 символов",
	"About.max":         "Поле about должно содержать от 2 до 200 символов",
	"Avatar.required":   "Поле avatar обязательно",
	"Avatar.mestourl":   "Некорректная ссылка на аватар",
	"Link.required":     "Поле link обязательно",
	"Link.mestourl":     "Некорректная ссылка на изображение",
}

// Validate checks v against its struct tags and returns a BadRequest naming
// the first failing field.
func Validate(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &Error{Kind: KindBadRequest, Message: "Переданы некорректные данные", Err: err}
	}
	first := verrs[0]
	msg, ok := fieldMessages[first.Field()+"."+first.Tag()]
	if !ok {
		msg = "Переданы некорректные данные"
	}
	return &Error{Kind: KindBadRequest, Message: msg, Err: err}
}
