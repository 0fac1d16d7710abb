package allocation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mkarag/riskfolio/internal/domain"
)

// Handler exposes the allocation optimizer over HTTP.
type Handler struct {
	service *Service
	log     zerolog.Logger
}

// NewHandler creates a new allocation handler
func NewHandler(service *Service, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log.With().Str("handler", "allocation").Logger(),
	}
}

// Routes mounts the allocation endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/rebalance", h.HandlePlanRebalance)
}

// HandlePlanRebalance produces a rebalancing plan for a posted holding set.
// POST /api/allocation/rebalance
func (h *Handler) HandlePlanRebalance(w http.ResponseWriter, r *http.Request) {
	var req RebalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	report, err := h.service.Plan(r.Context(), req)
	if err != nil {
		h.log.Warn().Err(err).Msg("rebalance plan rejected")
		h.writeError(w, statusFor(err), err.Error())
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidParameter):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoData), errors.Is(err, domain.ErrDivisionHazard):
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
