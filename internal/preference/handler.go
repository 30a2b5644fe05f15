package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"naskahlokal/internal/document/model"
	"naskahlokal/internal/preference/repository"
	"naskahlokal/pkg/logger"
)

// ThemeToggle in a request flips the stored theme.
const ThemeToggle = "toggle"

type PreferenceHandler struct {
	Repo *repository.PreferenceRepository
}

func NewPreferenceHandler(repo *repository.PreferenceRepository) *PreferenceHandler {
	return &PreferenceHandler{Repo: repo}
}

func (h *PreferenceHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	h.writePreferences(w, r)
}

// UpdatePreferences applies the fields present in the body and returns
// the resulting preferences.
func (h *PreferenceHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req model.PreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	ctx := r.Context()

	if req.Theme != nil {
		var err error
		if *req.Theme == ThemeToggle {
			_, err = h.Repo.ToggleTheme(ctx)
		} else {
			err = h.Repo.SetTheme(ctx, *req.Theme)
		}
		if errors.Is(err, repository.ErrInvalidTheme) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			logger.Sugar.Errorf("Handler: Failed to update theme: %v", err)
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
	}
	if req.RulerColumn != nil {
		if _, err := h.Repo.SetRulerColumn(ctx, *req.RulerColumn); err != nil {
			logger.Sugar.Errorf("Handler: Failed to update ruler column: %v", err)
			http.Error(w, "Database error", http.StatusInternalServerError)
			return
		}
	}
	h.writePreferences(w, r)
}

func (h *PreferenceHandler) writePreferences(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	theme, err := h.Repo.Theme(ctx)
	if err != nil {
		logger.Sugar.Errorf("Error fetching preferences: %v", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	ruler, err := h.Repo.RulerColumn(ctx)
	if err != nil {
		logger.Sugar.Errorf("Error fetching preferences: %v", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	last, err := h.Repo.LastDocID(ctx)
	if err != nil {
		logger.Sugar.Errorf("Error fetching preferences: %v", err)
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(model.PreferencesResponse{Theme: theme, RulerColumn: ruler, LastDocID: last})
}
