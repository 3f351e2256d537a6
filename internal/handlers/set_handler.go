package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"kotoba/internal/importer"
	"kotoba/internal/logger"
	"kotoba/internal/service"
	"kotoba/internal/validation"
)

// SetHandler serves vocabulary sets and their words
type SetHandler struct {
	setService *service.SetService
	log        *logger.Logger
}

// NewSetHandler creates a new set handler
func NewSetHandler(setService *service.SetService, log *logger.Logger) *SetHandler {
	return &SetHandler{setService: setService, log: log.With("component", "SetHandler")}
}

type setRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, validation.ValidationError{Field: name, Message: "invalid id"}
	}
	return id, nil
}

// ListSets returns the user's sets
func (h *SetHandler) ListSets(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	sets, err := h.setService.ListSets(r.Context(), user.ID)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, sets)
}

// CreateSet creates an empty set
func (h *SetHandler) CreateSet(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	var req setRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	set, err := h.setService.CreateSet(r.Context(), user.ID, req.Name, req.Description)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, set)
}

// GetSet returns one set
func (h *SetHandler) GetSet(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	setID, err := pathID(r, "setID")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	set, err := h.setService.GetSet(r.Context(), user.ID, setID)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, set)
}

// UpdateSet renames a set
func (h *SetHandler) UpdateSet(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	setID, err := pathID(r, "setID")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	var req setRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	set, err := h.setService.UpdateSet(r.Context(), user.ID, setID, req.Name, req.Description)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, set)
}

// DeleteSet removes a set
func (h *SetHandler) DeleteSet(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	setID, err := pathID(r, "setID")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	if err := h.setService.DeleteSet(r.Context(), user.ID, setID); err != nil {
		respondWithError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListWords returns a set's words
func (h *SetHandler) ListWords(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	setID, err := pathID(r, "setID")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	words, err := h.setService.ListWords(r.Context(), user.ID, setID)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, words)
}

// AddWord adds one word to a set
func (h *SetHandler) AddWord(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	setID, err := pathID(r, "setID")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	var in service.WordInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	word, err := h.setService.AddWord(r.Context(), user.ID, setID, in)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, word)
}

// UpdateWord edits a word
func (h *SetHandler) UpdateWord(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	setID, err := pathID(r, "setID")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	wordID, err := pathID(r, "wordID")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	var in service.WordInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	word, err := h.setService.UpdateWord(r.Context(), user.ID, setID, wordID, in)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, word)
}

// DeleteWord removes a word
func (h *SetHandler) DeleteWord(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	setID, err := pathID(r, "setID")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	wordID, err := pathID(r, "wordID")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	if err := h.setService.DeleteWord(r.Context(), user.ID, setID, wordID); err != nil {
		respondWithError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ImportWords bulk-loads words from an uploaded .xlsx or .csv file sent in
// the multipart field "file".
func (h *SetHandler) ImportWords(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	setID, err := pathID(r, "setID")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "validation_failed", "file: upload is missing or too large")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_failed", "file: upload is required")
		return
	}
	defer file.Close()

	result, err := h.setService.ImportWords(r.Context(), user.ID, setID, header.Filename, file)
	if errors.Is(err, service.ErrNothingToAdd) && result != nil {
		respondJSON(w, http.StatusUnprocessableEntity, struct {
			Error  apiError            `json:"error"`
			Rows   int                 `json:"rows"`
			Errors []importer.RowError `json:"errors"`
		}{
			Error:  apiError{Message: err.Error(), Code: "nothing_to_import"},
			Rows:   result.Rows,
			Errors: result.Errors,
		})
		return
	}
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// RecountSet recomputes a set's word counter
func (h *SetHandler) RecountSet(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	setID, err := pathID(r, "setID")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	total, err := h.setService.RecountSet(r.Context(), user.ID, setID)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"totalWords": total})
}
