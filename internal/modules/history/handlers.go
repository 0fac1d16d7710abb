package history

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mkarag/riskfolio/internal/domain"
)

// Handler exposes the price history provider over HTTP.
type Handler struct {
	provider *Provider
	log      zerolog.Logger
}

// NewHandler creates a new history handler
func NewHandler(provider *Provider, log zerolog.Logger) *Handler {
	return &Handler{
		provider: provider,
		log:      log.With().Str("handler", "history").Logger(),
	}
}

// Routes mounts the history endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/{symbol}", h.HandleGetSeries)
	r.Post("/{symbol}/refresh", h.HandleRefresh)
	r.Get("/{symbol}/cache", h.HandleCacheStatus)
}

// HandleGetSeries returns the daily series for a symbol.
// GET /api/history/{symbol}?days=N
func (h *Handler) HandleGetSeries(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	days := queryDays(r, 30)

	series, err := h.provider.GetSeries(r.Context(), symbol, days)
	if err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, series)
}

// HandleRefresh drops and re-fetches the cached series for a symbol.
// POST /api/history/{symbol}/refresh?days=N
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	symbol := chi.URLParam(r, "symbol")
	days := queryDays(r, 30)

	if err := h.provider.Refresh(r.Context(), symbol, days); err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "refreshed",
		"symbol": symbol,
		"days":   days,
	})
}

// HandleCacheStatus reports cache contents for a symbol.
// GET /api/history/{symbol}/cache
func (h *Handler) HandleCacheStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.provider.CacheStatus(chi.URLParam(r, "symbol"))
	if err != nil {
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, status)
}

func queryDays(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return fallback
	}
	days, err := strconv.Atoi(raw)
	if err != nil {
		return -1 // forces a validation error with the right kind
	}
	return days
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
