package e

import "fmt"

var (
	// Ошибки индекса эмбеддингов
	ErrDimensionMismatch = fmt.Errorf("vector dimension mismatch")
	ErrInvalidVector     = fmt.Errorf("vector contains non-finite values")
	ErrInvalidArgument   = fmt.Errorf("invalid argument")
	ErrNotFound          = fmt.Errorf("not found")

	// Ошибки внешних сервисов (LLM, поиск, хранилища)
	ErrUpstreamFailure = fmt.Errorf("upstream failure")

	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Внутренние ошибки конфигурации
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
	ErrNotConfigured        = fmt.Errorf("collaborator is not configured")

	// 400 Bad Request
	ErrStatusBadRequest = fmt.Errorf("bad request")
	ErrInvalidJSON      = fmt.Errorf("invalid JSON body")
	ErrMissingFields    = fmt.Errorf("missing required fields")
	ErrInvalidPrice     = fmt.Errorf("invalid price")
	ErrPricePrecision   = fmt.Errorf("price must have at most 2 decimal places")
	ErrEmptyQuery       = fmt.Errorf("search query is required")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// Upstream помечает ошибку внешнего сервиса как ErrUpstreamFailure, сохраняя исходную причину.
func Upstream(service string, err error) error {
	return fmt.Errorf("%s: %w: %w", service, ErrUpstreamFailure, err)
}
