package readiness

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/certprep/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

func (h *Handler) GetReadiness(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	snapshot, err := h.service.ComputeReadiness(userID)
	if err != nil {
		log.Printf("[handler] GetReadiness error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to compute readiness"})
		return
	}

	writeJSON(w, http.StatusOK, snapshot)
}

func (h *Handler) GetRevisionPlan(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	topics, err := h.service.RevisionPlan(userID)
	if err != nil {
		log.Printf("[handler] GetRevisionPlan error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to build revision plan"})
		return
	}

	if topics == nil {
		topics = []models.TopicScore{}
	}
	writeJSON(w, http.StatusOK, models.RevisionPlanResponse{Topics: topics})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
