package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "hotelbooking/pkg/errors"
)

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, err error) {
	apperrors.WriteError(w, err)
}

func WriteSuccess(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, Data: data})
}

func WriteMessage(w http.ResponseWriter, message string, data any) error {
	return WriteJSON(w, http.StatusOK, SuccessResponse{Success: true, Message: message, Data: data})
}

func WriteCreated(w http.ResponseWriter, data any) error {
	return WriteJSON(w, http.StatusCreated, SuccessResponse{Success: true, Data: data})
}

func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// DecodeJSON reads a JSON request body into v. Failures come back as
// AppErrors ready for WriteError.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return apperrors.BadRequest("Request body is required")
	}

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return apperrors.PayloadTooLarge(maxErr.Limit)
		}
		if errors.Is(err, io.EOF) {
			return apperrors.BadRequest("Request body is required")
		}
		return apperrors.BadRequest("Invalid request body")
	}
	return nil
}
