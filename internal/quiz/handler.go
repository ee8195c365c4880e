package quiz

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/certprep/backend/internal/models"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// getUserID extracts the authenticated user ID from the request context.
func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	if req.Mode != "" && !models.ValidSessionModes[req.Mode] {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "mode must be 'random', 'category', 'subcategory', or 'certification'"})
		return
	}
	if req.QuestionCount < 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "question_count must be >= 0"})
		return
	}
	if req.Mode == models.ModeCategory && req.CategoryID == nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "category_id is required for category mode"})
		return
	}
	if req.Mode == models.ModeSubcategory && req.SubcategoryID == nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "subcategory_id is required for subcategory mode"})
		return
	}

	session, err := h.service.StartSession(userID, req)
	if err != nil {
		if errors.Is(err, ErrNoQuestions) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "No questions match the requested scope"})
			return
		}
		log.Printf("[handler] StartSession error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to start session"})
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

func (h *Handler) CurrentQuestion(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	question, session, err := h.service.CurrentQuestion(userID)
	if err != nil {
		if errors.Is(err, ErrNoActiveSession) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "No active quiz session"})
			return
		}
		log.Printf("[handler] CurrentQuestion error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get current question"})
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Question models.QuizQuestion    `json:"question"`
		Progress models.SessionProgress `json:"progress"`
	}{
		Question: question.ToQuizQuestion(),
		Progress: models.SessionProgress{
			SessionID:      session.ID,
			CurrentIndex:   session.CurrentIndex,
			TotalQuestions: session.TotalQuestions(),
			Percentage:     float64(session.CurrentIndex) / float64(session.TotalQuestions()) * 100,
		},
	})
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	var req models.SubmitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}

	// An empty selection is a valid submission; it evaluates as incorrect.
	resp, err := h.service.SubmitAnswer(userID, req.SelectedAnswerIDs)
	if err != nil {
		if errors.Is(err, ErrNoActiveSession) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "No active quiz session"})
			return
		}
		log.Printf("[handler] SubmitAnswer error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to submit answer"})
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	if err := h.service.Abandon(userID); err != nil {
		log.Printf("[handler] AbandonSession error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to abandon session"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	progress, err := h.service.Progress(userID)
	if err != nil {
		if errors.Is(err, ErrNoActiveSession) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "No active quiz session"})
			return
		}
		log.Printf("[handler] Progress error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get progress"})
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

func (h *Handler) Results(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	vars := mux.Vars(r)
	sessionID, err := strconv.ParseInt(vars["id"], 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid session ID"})
		return
	}

	results, err := h.service.Results(userID, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Session not found"})
			return
		}
		log.Printf("[handler] Results error: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to get results"})
		return
	}

	writeJSON(w, http.StatusOK, results)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
