package backend

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gogazub/miniapp-checkout/internal/model"
)

// Error ошибка вызова бэкенда. Kind одна из сентинел-ошибок model, по ней работает errors.Is.
type Error struct {
	Kind   error
	Op     string
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// UserDetail текст, который бэкенд вернул в поле detail.
func (e *Error) UserDetail() string { return e.Detail }

// kindForStatus 404 NotFound, прочие 4xx отказ в валидации, остальное недоступность.
func kindForStatus(status int) error {
	switch {
	case status == http.StatusNotFound:
		return model.ErrNotFound
	case status >= 400 && status < 500:
		return model.ErrValidationRejected
	default:
		return model.ErrUnavailable
	}
}

// parseDetail достает detail из тела ошибки. detail бывает строкой или списком ошибок валидации.
func parseDetail(body []byte) string {
	var env struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	var s string
	if len(env.Detail) > 0 && json.Unmarshal(env.Detail, &s) == nil {
		return s
	}
	var list []struct {
		Msg string `json:"msg"`
	}
	if len(env.Detail) > 0 && json.Unmarshal(env.Detail, &list) == nil && len(list) > 0 {
		return list[0].Msg
	}
	return env.Message
}
