package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"doudou-shop/internal/model"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// validate is shared across handlers; validator instances cache struct
// metadata and are safe for concurrent use.
var validate = validator.New()

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response. Domain errors map to their HTTP
// status and keep their code and detail; anything else becomes an opaque 500.
func writeError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		writeJSON(w, domainErr.HTTPStatus(), model.ErrorResponse{
			Error:   domainErr.Code,
			Message: domainErr.Message,
			Detail:  domainErr.Detail,
		})
		return
	}

	logger.Error().Err(err).Msg("handler error")
	writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
		Error:   model.ErrCodeInternalError,
		Message: "Internal server error",
	})
}

// decodeJSON decodes and validates a request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return model.ValidationError("Invalid request body")
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return model.ValidationError(fmt.Sprintf("Field %q failed validation on %q", f.Field(), f.Tag()))
		}
		return model.ValidationError("Invalid request body")
	}
	return nil
}

// pathID parses a numeric path segment registered with the given name.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, model.ValidationError(fmt.Sprintf("Invalid %s", name))
	}
	return id, nil
}
