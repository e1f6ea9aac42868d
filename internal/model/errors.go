package model

import "errors"

// Таксономия ошибок. Ни одна из них не фатальна: пользователь всегда возвращается в интерактивное состояние.
var (
	// ErrValidationRejected незаполненные поля на клиенте или 4xx от бэкенда
	ErrValidationRejected = errors.New("validation rejected")
	// ErrUnavailable 5xx, сеть, открытый circuit breaker
	ErrUnavailable = errors.New("backend unavailable")
	// ErrNotFound товар, категория или пользователь не найдены
	ErrNotFound = errors.New("not found")
)
