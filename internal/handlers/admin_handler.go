package handlers

import (
	"fmt"
	"net/http"
	"time"

	"kotoba/internal/logger"
	"kotoba/internal/service"
)

// AdminHandler handles admin-only routes
type AdminHandler struct {
	authService   *service.AuthService
	setService    *service.SetService
	backupService *service.BackupService
	log           *logger.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(authService *service.AuthService, setService *service.SetService, backupService *service.BackupService, log *logger.Logger) *AdminHandler {
	return &AdminHandler{
		authService:   authService,
		setService:    setService,
		backupService: backupService,
		log:           log.With("component", "AdminHandler"),
	}
}

// ListUsers returns every account
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers(r.Context())
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// RecountAll repairs every set's word counter
func (h *AdminHandler) RecountAll(w http.ResponseWriter, r *http.Request) {
	repaired, err := h.setService.RecountAll(r.Context())
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"repaired": repaired})
}

// ExportDatabase streams a JSON backup as a download
func (h *AdminHandler) ExportDatabase(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	filename := fmt.Sprintf("kotoba_backup_%s.json", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := h.backupService.ExportToWriter(r.Context(), w); err != nil {
		respondWithError(w, h.log, err)
		return
	}
	h.log.Info("database exported", "admin", user.Email)
}

// ImportDatabase restores an uploaded backup (multipart field "backup_file").
// With clear_data=true existing rows are deleted first.
func (h *AdminHandler) ImportDatabase(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		respondError(w, http.StatusBadRequest, "validation_failed", "backup_file: upload is missing or too large")
		return
	}
	file, _, err := r.FormFile("backup_file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_failed", "backup_file: upload is required")
		return
	}
	defer file.Close()

	clearData := r.FormValue("clear_data") == "true"
	if clearData {
		h.log.Warn("database clear requested before import", "admin", user.Email)
		if err := h.backupService.Clear(r.Context()); err != nil {
			respondWithError(w, h.log, err)
			return
		}
	}

	backup, err := h.backupService.ImportFromReader(r.Context(), file)
	if err != nil {
		h.log.Error("database import failed", "admin", user.Email, "error", err)
		respondError(w, http.StatusBadRequest, "import_failed", "Failed to import database")
		return
	}

	h.log.Info("database imported", "admin", user.Email, "clear_data", clearData)
	respondJSON(w, http.StatusOK, map[string]int{
		"users":   len(backup.Users),
		"sets":    len(backup.Sets),
		"words":   len(backup.Words),
		"history": len(backup.History),
	})
}
