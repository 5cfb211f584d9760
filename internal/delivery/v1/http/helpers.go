package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/briannabogos1157/threadtwin/pkg/e"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

// ToHTTPResponse сопоставляет ошибку usecase с HTTP-статусом.
// Для ошибок клиента отдаётся полный текст, чтобы было видно, что именно не так с запросом.
func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrDimensionMismatch),
		errors.Is(err, e.ErrInvalidVector),
		errors.Is(err, e.ErrInvalidArgument),
		errors.Is(err, e.ErrMissingFields),
		errors.Is(err, e.ErrInvalidJSON),
		errors.Is(err, e.ErrInvalidPrice),
		errors.Is(err, e.ErrPricePrecision),
		errors.Is(err, e.ErrEmptyQuery),
		errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, e.ErrUpstreamFailure):
		return http.StatusBadGateway, e.ErrUpstreamFailure.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса не больше maxBytes и разбирает его в dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return e.Wrap("request body too large", e.ErrStatusBadRequest)
		case errors.Is(err, io.EOF):
			return e.Wrap("empty body", e.ErrInvalidJSON)
		default:
			return e.Wrap(err.Error(), e.ErrInvalidJSON)
		}
	}

	return nil
}
