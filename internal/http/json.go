package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"

	errs "github.com/clinova/platform/internal/errors"
)

// DecodeJSON decodes JSON from the request body into the destination and handles errors.
// Returns true if successful, false if there was an error (error response already written).
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
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

// WriteAppError maps an application error to the wire shape: the error code
// becomes the JSON "error" field and the HTTP status follows the taxonomy.
func WriteAppError(w http.ResponseWriter, err error) {
	WriteError(w, ErrorParams{
		Code:    statusForCode(errs.CodeOf(err)),
		ErrCode: string(errs.CodeOf(err)),
		Err:     err,
	})
}

func statusForCode(code errs.ErrorCode) int {
	switch code {
	case errs.ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case errs.ErrCodeForbidden:
		return http.StatusForbidden
	case errs.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	case errs.ErrCodeNotFound:
		return http.StatusNotFound
	case errs.ErrCodeConflict:
		return http.StatusConflict
	case errs.ErrCodeValidation:
		return http.StatusBadRequest
	case errs.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		// ProfileProvision, UpstreamUnavailable, Internal, Canceled.
		return http.StatusInternalServerError
	}
}
