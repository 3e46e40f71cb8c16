// Package http provides HTTP handlers for the topic manager service.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/arvoweaver/streamline-pubsub/internals/broker"
	"github.com/arvoweaver/streamline-pubsub/internals/metrics"
	"github.com/arvoweaver/streamline-pubsub/topicManagerService"
)

// ConnectionCounter reports the number of live WebSocket connections.
// subscriberService.SubscriberService satisfies this; it's narrowed to
// the one method /health needs so this package doesn't import
// subscriberService directly.
type ConnectionCounter interface {
	ActiveConnectionCount() int
}

// Handler provides HTTP handlers for topic management operations.
type Handler struct {
	topicManager topicManagerService.TopicManager
	conns        ConnectionCounter
}

// NewHandler creates a new HTTP handler with the specified topic manager.
// conns may be nil, in which case /health reports 0 WebSocket connections.
func NewHandler(topicManager topicManagerService.TopicManager, conns ConnectionCounter) *Handler {
	return &Handler{topicManager: topicManager, conns: conns}
}

// RegisterTopicManagerRoutes wires a Handler for tm and conns into r.
func RegisterTopicManagerRoutes(r chi.Router, tm topicManagerService.TopicManager, conns ConnectionCounter) {
	NewHandler(tm, conns).RegisterRoutes(r)
}

// RegisterRoutes registers all HTTP routes with the chi router, plus the
// Prometheus scrape endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)

	r.Route("/topics", func(r chi.Router) {
		r.Post("/", h.CreateTopic)
		r.Get("/", h.ListTopics)
		r.Delete("/{name}", h.DeleteTopic)
	})

	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)
	r.Handle("/metrics", metrics.Handler())
}

// CreateTopicRequest represents the request body for creating a topic.
type CreateTopicRequest struct {
	Name string `json:"name"`
}

// CreateTopicResponse represents the response for topic creation.
type CreateTopicResponse struct {
	Message string `json:"message"`
	Topic   string `json:"topic"`
}

// CreateTopic handles POST /topics requests.
// Expects JSON body: {"name": "topic-name"}
// Returns 201 Created on success, 409 Conflict if topic exists.
func (h *Handler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req CreateTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "topic name is required")
		return
	}

	if err := h.topicManager.CreateTopic(req.Name); err != nil {
		switch {
		case errors.Is(err, broker.ErrTopicAlreadyExists):
			h.writeError(w, http.StatusConflict, "topic already exists")
		case errors.Is(err, broker.ErrInvalidTopicName):
			h.writeError(w, http.StatusBadRequest, "invalid topic name")
		default:
			h.writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(CreateTopicResponse{
		Message: "topic created",
		Topic:   req.Name,
	})
}

// DeleteTopic handles DELETE /topics/{name} requests.
// Returns 200 OK on success, 404 Not Found if topic doesn't exist.
func (h *Handler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	topicName := chi.URLParam(r, "name")
	if topicName == "" {
		h.writeError(w, http.StatusBadRequest, "topic name is required")
		return
	}

	if err := h.topicManager.DeleteTopic(topicName); err != nil {
		switch {
		case errors.Is(err, broker.ErrTopicNotFound):
			h.writeError(w, http.StatusNotFound, "topic not found")
		case errors.Is(err, broker.ErrInvalidTopicName):
			h.writeError(w, http.StatusBadRequest, "invalid topic name")
		default:
			h.writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"message": "topic deleted",
		"topic":   topicName,
	})
}

// ListTopicsResponse represents the response for listing topics.
type ListTopicsResponse struct {
	Topics []topicManagerService.TopicInfo `json:"topics"`
}

// ListTopics handles GET /topics requests.
func (h *Handler) ListTopics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(ListTopicsResponse{Topics: h.topicManager.ListTopics()})
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status           string  `json:"status"`
	UptimeSeconds    float64 `json:"uptime_sec"`
	TopicsCount      int     `json:"topics"`
	TotalSubscribers int     `json:"subscribers"`
	WSConnections    int     `json:"ws_connections"`
	Timestamp        string  `json:"timestamp"`
}

// Health handles GET /health requests.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	topics := h.topicManager.ListTopics()
	totalSubscribers := 0
	for _, t := range topics {
		totalSubscribers += t.Subscribers
	}

	wsConnections := 0
	if h.conns != nil {
		wsConnections = h.conns.ActiveConnectionCount()
	}

	response := HealthResponse{
		Status:           "healthy",
		UptimeSeconds:    h.topicManager.Uptime().Seconds(),
		TopicsCount:      len(topics),
		TotalSubscribers: totalSubscribers,
		WSConnections:    wsConnections,
		Timestamp:        time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// Stats handles GET /stats requests.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"topics":    h.topicManager.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

func (h *Handler) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	})
}
