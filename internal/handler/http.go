package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/real-or-render/daily-leaderboard/internal/domain"
	"github.com/real-or-render/daily-leaderboard/internal/service"
	"github.com/real-or-render/daily-leaderboard/internal/websocket"
)

// Handler provides HTTP handlers for the game API
type Handler struct {
	service *service.GameService
	hub     *websocket.Hub
	logger  *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(service *service.GameService, hub *websocket.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		hub:     hub,
		logger:  logger,
	}
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// WebSocket endpoint for live leaderboard updates
	r.Get("/ws", h.HandleWebSocket)

	// Game API
	r.Post("/api/save-score", h.SaveScore)
	r.Get("/api/leaderboard", h.GetLeaderboard)
	r.Get("/api/check-played-today", h.CheckPlayedToday)
	r.Post("/api/post-comment", h.PostComment)

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a generic error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, domain.ErrorResponse{
		Success: false,
		Message: message,
	})
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// SaveScore handles POST /api/save-score
func (h *Handler) SaveScore(w http.ResponseWriter, r *http.Request) {
	var req domain.SaveScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, domain.SaveScoreResponse{
			Success: false,
			Saved:   false,
			Message: "Invalid request data. Required: userId, score, date, correctGuesses, timeMs",
		})
		return
	}

	resp, err := h.service.SubmitScore(r.Context(), req)
	if err != nil {
		if domain.IsValidationError(err) {
			h.writeJSON(w, http.StatusBadRequest, domain.SaveScoreResponse{
				Success: false,
				Saved:   false,
				Message: err.Error(),
			})
			return
		}
		h.logger.Error("failed to save score", "error", err)
		h.writeJSON(w, http.StatusInternalServerError, domain.SaveScoreResponse{
			Success: false,
			Saved:   false,
			Message: "Failed to save score. Please try again.",
		})
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// GetLeaderboard handles GET /api/leaderboard
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		dateStr = domain.Today().String()
	}
	day, err := domain.ParseDay(dateStr)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := r.URL.Query().Get("userId")

	resp, err := h.service.GetLeaderboard(r.Context(), day, userID)
	if err != nil {
		h.logger.Error("failed to get leaderboard", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to retrieve leaderboard. Please try again.")
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// CheckPlayedToday handles GET /api/check-played-today
func (h *Handler) CheckPlayedToday(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		dateStr = domain.Today().String()
	}
	day, err := domain.ParseDay(dateStr)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.CheckPlayedToday(r.Context(), userID, day)
	if err != nil {
		h.logger.Error("failed to check play status", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to check play status. Please try again.")
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// PostComment handles POST /api/post-comment
func (h *Handler) PostComment(w http.ResponseWriter, r *http.Request) {
	var req domain.PostCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request data")
		return
	}

	resp, err := h.service.ShareScore(r.Context(), req)
	if err != nil {
		if domain.IsValidationError(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("failed to post comment", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to post comment. Please try again.")
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}
