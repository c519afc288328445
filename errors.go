package mesto

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure and decides the HTTP status it maps to.
type Kind int

const (
	KindInternal Kind = iota
	KindBadRequest
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
)

func (k Kind) String() string {
	switch k {
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "internal"
	}
}

// StatusCode returns the HTTP status for the kind.
func (k Kind) StatusCode() int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Response messages shared by the flows and the HTTP layer.
const (
	MsgInvalidCredentials = "Неправильные почта или пароль"
	MsgAuthRequired       = "Необходима авторизация"
	MsgEmailTaken         = "Пользователь с таким email уже зарегистрирован"
	MsgForeignCard        = "Нельзя удалить чужую карточку"
	MsgCardNotFound       = "Карточка с указанным _id не найдена."
	MsgUserNotFound       = "Пользователь по указанному _id не найден."
	MsgNoCards            = "Карточки не найдены"
	MsgNoUsers            = "Пользователи не добавлены"
	MsgRouteNotFound      = "Ресурс не найден"
	MsgInternal           = "На сервере произошла ошибка"
)

// Error is a failure tagged with its Kind. Message is safe to show to the
// caller; Err carries the detail that is only logged.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func BadRequest(msg string) *Error   { return newError(KindBadRequest, msg) }
func Unauthorized(msg string) *Error { return newError(KindUnauthorized, msg) }
func Forbidden(msg string) *Error    { return newError(KindForbidden, msg) }
func NotFound(msg string) *Error     { return newError(KindNotFound, msg) }
func Conflict(msg string) *Error     { return newError(KindConflict, msg) }

// Internal wraps an unexpected failure. The caller only ever sees MsgInternal.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Message: MsgInternal, Err: err}
}

// KindOf returns the Kind of err, or KindInternal for untagged errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// PublicMessage returns the text that may be sent to the caller for err.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return MsgInternal
}

// Sentinels returned by stores and token verification.
var (
	ErrNotFound     = errors.New("not found")
	ErrDuplicate    = errors.New("duplicate key")
	ErrTokenInvalid = errors.New("token invalid")
	ErrConfig       = errors.New("configuration error")
	ErrInvalidInput = errors.New("invalid input")
)
