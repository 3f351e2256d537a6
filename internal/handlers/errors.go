package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"kotoba/internal/learning"
	"kotoba/internal/logger"
	"kotoba/internal/security"
	"kotoba/internal/service"
	"kotoba/internal/validation"
)

type errorBody struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorBody{Error: apiError{Message: message, Code: code}})
}

// errorMapping ties a sentinel to the status and code the client sees
type errorMapping struct {
	target error
	status int
	code   string
}

var errorMappings = []errorMapping{
	{service.ErrEmailTaken, http.StatusConflict, "email_taken"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{service.ErrSessionNotFound, http.StatusUnauthorized, "unauthorized"},
	{service.ErrSessionExpired, http.StatusUnauthorized, "session_expired"},
	{security.ErrInvalidToken, http.StatusUnauthorized, "unauthorized"},
	{service.ErrInvalidResetToken, http.StatusBadRequest, "invalid_reset_token"},
	{service.ErrResetTokenUsed, http.StatusBadRequest, "reset_token_used"},
	{service.ErrResetTokenExpired, http.StatusBadRequest, "reset_token_expired"},
	{service.ErrSetNotFound, http.StatusNotFound, "set_not_found"},
	{service.ErrWordNotFound, http.StatusNotFound, "word_not_found"},
	{service.ErrNothingToAdd, http.StatusUnprocessableEntity, "nothing_to_import"},
	{service.ErrLearningSessionNotFound, http.StatusNotFound, "session_not_found"},
	{service.ErrNoVocabulary, http.StatusUnprocessableEntity, "no_vocabulary"},
	{learning.ErrNotAnswering, http.StatusConflict, "not_answering"},
	{learning.ErrNotRevealed, http.StatusConflict, "not_revealed"},
	{learning.ErrInvalidOption, http.StatusBadRequest, "invalid_option"},
}

// respondWithError maps err to an HTTP error response. Unknown errors are
// logged and reported as a generic 500.
func respondWithError(w http.ResponseWriter, log *logger.Logger, err error) {
	var ve validation.ValidationError
	if errors.As(err, &ve) {
		respondError(w, http.StatusBadRequest, "validation_failed", ve.Error())
		return
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			respondError(w, m.status, m.code, m.target.Error())
			return
		}
	}

	log.Error("request failed", "error", err)
	respondError(w, http.StatusInternalServerError, "internal", "Internal server error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return validation.ValidationError{Field: "body", Message: "invalid JSON body"}
	}
	return nil
}
