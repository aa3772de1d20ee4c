// Package api exposes the feedback intake, statistics, and sentiment
// endpoints over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tourpulse/feedbackanalyzer/internal/classifier"
	"github.com/tourpulse/feedbackanalyzer/internal/feedback"
	"github.com/tourpulse/feedbackanalyzer/internal/models"
	"github.com/tourpulse/feedbackanalyzer/pkg/tracing"
)

// Classifier is the sentiment capability behind the standalone sentiment
// endpoints.
type Classifier interface {
	Classify(ctx context.Context, text string, includeEmotions bool) *models.SentimentResult
	ClassifyBatch(ctx context.Context, texts []string) []*models.SentimentResult
}

// QueueClient enqueues background sentiment reprocessing runs.
type QueueClient interface {
	EnqueueReprocess(ctx context.Context, requestedBy string) (string, error)
}

// Handler handles HTTP requests
type Handler struct {
	service    *feedback.Service
	classifier Classifier  // nil when classification is disabled
	queue      QueueClient // nil when no queue is configured
	mux        *http.ServeMux
}

// NewHandler creates a new API handler with CORS support and metrics.
func NewHandler(service *feedback.Service, cls Classifier, queue QueueClient) http.Handler {
	h := &Handler{
		service:    service,
		classifier: cls,
		queue:      queue,
		mux:        http.NewServeMux(),
	}

	h.setupRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return c.Handler(h.mux)
}

// setupRoutes configures all API routes
func (h *Handler) setupRoutes() {
	h.mux.Handle("/metrics", promhttp.Handler())
	h.mux.HandleFunc("/api/feedback", h.handleFeedback)
	h.mux.HandleFunc("/api/feedback/location/", h.handleFeedbackByLocation)
	h.mux.HandleFunc("/api/feedback/stats", h.handleStats)
	h.mux.HandleFunc("/api/feedback/reprocess-sentiment", h.handleReprocess)
	h.mux.HandleFunc("/api/sentiment", h.handleSentiment)
	h.mux.HandleFunc("/api/sentiment/batch", h.handleSentimentBatch)
	h.mux.HandleFunc("/api/sentiment/summary", h.handleSentimentSummary)
	h.mux.HandleFunc("/health", h.handleHealth)
}

// handleHealth handles health check requests
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleFeedback dispatches submission and listing.
func (h *Handler) handleFeedback(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.submitFeedback(w, r)
	case http.MethodGet:
		h.listFeedback(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// submitFeedback validates and stores one visitor submission.
func (h *Handler) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var sub feedback.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	tracing.SetSpanAttributes(r.Context(),
		attribute.String("feedback.location", sub.LocationVisited),
		attribute.Int("feedback.text_length", len(sub.OverallExperience)),
	)

	record, err := h.service.Submit(r.Context(), sub)
	if err != nil {
		var verr *feedback.ValidationError
		if errors.As(err, &verr) {
			respondJSON(w, map[string]any{
				"error": verr.Message,
				"field": verr.Field,
			}, http.StatusBadRequest)
			return
		}
		respondError(w, fmt.Sprintf("Failed to process feedback: %v", err), http.StatusInternalServerError)
		return
	}

	var sentiment any
	if combined := record.SentimentAnalysis.CombinedAnalysis; combined != nil {
		sentiment = combined.Sentiment
	}

	respondJSON(w, map[string]any{
		"success":             true,
		"message":             "Feedback submitted successfully",
		"feedbackId":          record.ID,
		"sentiment":           sentiment,
		"averageRating":       record.Ratings.AverageScore,
		"recommendationScore": record.Analytics.RecommendationScore,
	}, http.StatusCreated)
}

// listFeedback returns every stored record in submission order.
func (h *Handler) listFeedback(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List()
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*models.FeedbackRecord{}
	}

	respondJSON(w, map[string]any{
		"success":  true,
		"total":    len(records),
		"feedback": records,
	}, http.StatusOK)
}

// handleFeedbackByLocation filters records by location, case-insensitively.
func (h *Handler) handleFeedbackByLocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	location := strings.TrimPrefix(r.URL.Path, "/api/feedback/location/")
	if idx := strings.Index(location, "/"); idx != -1 {
		location = location[:idx]
	}
	if location == "" {
		respondError(w, "Location is required", http.StatusBadRequest)
		return
	}

	records, err := h.service.ListByLocation(location)
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*models.FeedbackRecord{}
	}

	respondJSON(w, map[string]any{
		"success":  true,
		"location": location,
		"total":    len(records),
		"feedback": records,
	}, http.StatusOK)
}

// handleStats recomputes the aggregate report from the current store.
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats, err := h.service.Stats()
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	response := map[string]any{
		"success": true,
		"stats":   stats,
	}
	if stats.Total == 0 {
		response["message"] = "No feedback available"
	}

	respondJSON(w, response, http.StatusOK)
}

// handleReprocess re-runs sentiment analysis over records that lack it.
// Synchronous by default; with ?async=true and a configured queue the run
// is enqueued instead.
func (h *Handler) handleReprocess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Query().Get("async") == "true" && h.queue != nil {
		taskID, err := h.queue.EnqueueReprocess(r.Context(), r.RemoteAddr)
		if err != nil {
			respondError(w, fmt.Sprintf("Failed to enqueue reprocessing: %v", err), http.StatusInternalServerError)
			return
		}
		respondJSON(w, map[string]any{
			"success": true,
			"status":  "queued",
			"task_id": taskID,
		}, http.StatusAccepted)
		return
	}

	processed, updated, err := h.service.Reprocess(r.Context())
	if err != nil {
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, map[string]any{
		"success":        true,
		"message":        fmt.Sprintf("Sentiment analysis reprocessed for %d out of %d feedback entries", updated, processed),
		"processedCount": processed,
		"updatedCount":   updated,
	}, http.StatusOK)
}

// handleSentiment classifies a single text.
func (h *Handler) handleSentiment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.classifier == nil {
		respondError(w, "Sentiment analysis is not available", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		Feedback        string `json:"feedback"`
		IncludeEmotions *bool  `json:"includeEmotions"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Feedback == "" {
		respondError(w, "Missing feedback text", http.StatusBadRequest)
		return
	}

	includeEmotions := req.IncludeEmotions == nil || *req.IncludeEmotions
	result := h.classifier.Classify(r.Context(), req.Feedback, includeEmotions)
	respondJSON(w, result, http.StatusOK)
}

// handleSentimentBatch classifies a sequence of texts in input order.
func (h *Handler) handleSentimentBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.classifier == nil {
		respondError(w, "Sentiment analysis is not available", http.StatusServiceUnavailable)
		return
	}

	texts, ok := decodeBatch(w, r)
	if !ok {
		return
	}

	respondJSON(w, h.classifier.ClassifyBatch(r.Context(), texts), http.StatusOK)
}

// handleSentimentSummary classifies a batch and returns summary statistics.
func (h *Handler) handleSentimentSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if h.classifier == nil {
		respondError(w, "Sentiment analysis is not available", http.StatusServiceUnavailable)
		return
	}

	texts, ok := decodeBatch(w, r)
	if !ok {
		return
	}

	results := h.classifier.ClassifyBatch(r.Context(), texts)
	summary := classifier.Summarize(results)
	if summary == nil {
		respondJSON(w, map[string]any{}, http.StatusOK)
		return
	}
	respondJSON(w, summary, http.StatusOK)
}

// decodeBatch reads a {"feedbacks": [...]} body, writing a 400 on failure.
func decodeBatch(w http.ResponseWriter, r *http.Request) ([]string, bool) {
	var req struct {
		Feedbacks []string `json:"feedbacks"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return nil, false
	}
	if req.Feedbacks == nil {
		respondError(w, "feedbacks must be an array", http.StatusBadRequest)
		return nil, false
	}
	return req.Feedbacks, true
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
