package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/retrack-dev/retrack/internal/errors"
)

// validate checks the shape of decoded request bodies. Deep semantic checks
// (cron sources, URLs, script sizes) live in the service layer.
var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct runs struct tag validation on a decoded request body.
// Returns true if valid, false if an error response was written.
func ValidateStruct(w http.ResponseWriter, req any) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		fields := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields = append(fields, strings.ToLower(fe.Field()))
		}
		err = errors.New("invalid fields: " + strings.Join(fields, ", "))
	}
	WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
	return false
}

// WriteServiceError maps a service-layer error to an HTTP response.
// Internal details never reach the client; they are the caller's to log.
func WriteServiceError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.IsNotFound(err):
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: err})
	case apperrors.IsValidation(err):
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err})
	case apperrors.IsConflict(err):
		WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "conflict", Err: err})
	case apperrors.IsFetch(err):
		WriteError(w, ErrorParams{Code: http.StatusBadGateway, ErrCode: "fetch_failed", Err: err})
	case apperrors.IsScript(err):
		WriteError(w, ErrorParams{Code: http.StatusUnprocessableEntity, ErrCode: "script_failed", Err: err})
	default:
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "internal_error",
			Err:     errors.New("internal error"),
		})
	}
}
