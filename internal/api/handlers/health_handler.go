package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainerrors "github.com/central-university-dev/go-reward-tracker/internal/domain/errors"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
	"github.com/central-university-dev/go-reward-tracker/internal/monitor"
)

// HealthHandler отдаёт накопленное состояние источников для дашборда.
type HealthHandler struct {
	tracker *monitor.HealthTracker
	logger  *slog.Logger
}

func NewHealthHandler(tracker *monitor.HealthTracker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		tracker: tracker,
		logger:  logger,
	}
}

type sourcesHealthResponse struct {
	Sources []*models.SourceMonitoring `json:"sources"`
}

// GetSourcesHealth обрабатывает GET /api/v1/sources/health.
// Параметр ?url= сужает ответ до одного источника.
func (h *HealthHandler) GetSourcesHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	if sourceURL := r.URL.Query().Get("url"); sourceURL != "" {
		mon, err := h.tracker.GetSourceHealth(ctx, sourceURL)
		if err != nil {
			if errors.Is(err, &domainerrors.ErrSourceNotFound{}) {
				http.Error(w, "source not found", http.StatusNotFound)
				return
			}

			h.logger.Error("Ошибка при получении состояния источника",
				"url", sourceURL,
				"error", err,
			)
			http.Error(w, "internal error", http.StatusInternalServerError)

			return
		}

		h.writeJSON(w, sourcesHealthResponse{Sources: []*models.SourceMonitoring{mon}})

		return
	}

	all, err := h.tracker.GetAllHealth(ctx)
	if err != nil {
		h.logger.Error("Ошибка при получении состояния источников",
			"error", err,
		)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	h.writeJSON(w, sourcesHealthResponse{Sources: all})
}

func (h *HealthHandler) writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Ошибка при сериализации ответа",
			"error", err,
		)
	}
}
