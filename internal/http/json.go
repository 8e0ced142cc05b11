package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/target/checkqueue/internal/domain/model"
	apperrors "github.com/target/checkqueue/internal/errors"
)

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, ErrorParams{Code: http.StatusRequestEntityTooLarge, ErrCode: "body_too_large", Err: err})
			return false
		}
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_json", Err: err})
		return false
	}

	return true
}

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := buf.WriteTo(w); err != nil {
		// Response writer errors (e.g., client disconnect) can't be recovered from here.
		return
	}
}

// ErrorParams groups parameters for WriteError.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": p.Err.Error()})
}

// WriteServiceError maps queue and store errors onto HTTP status codes.
func WriteServiceError(w http.ResponseWriter, err error) {
	WriteError(w, serviceErrorParams(err))
}

func serviceErrorParams(err error) ErrorParams {
	switch {
	case errors.Is(err, model.ErrSubmissionCheckingTimeout):
		return ErrorParams{Code: http.StatusRequestTimeout, ErrCode: "checking_timeout", Err: err}
	case errors.Is(err, model.ErrSubmissionLookupFailed):
		return ErrorParams{Code: http.StatusNotFound, ErrCode: "lookup_failed", Err: err}
	case errors.Is(err, model.ErrSubmissionNotFound), apperrors.IsNotFound(err):
		return ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: err}
	case apperrors.IsValidation(err):
		return ErrorParams{Code: http.StatusBadRequest, ErrCode: "validation_failed", Err: err}
	case apperrors.IsConflict(err):
		return ErrorParams{Code: http.StatusConflict, ErrCode: "conflict", Err: err}
	case apperrors.IsTimeout(err):
		return ErrorParams{Code: http.StatusGatewayTimeout, ErrCode: "timeout", Err: err}
	default:
		return ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "internal_error",
			Err:     errors.New(http.StatusText(http.StatusInternalServerError)),
		}
	}
}
