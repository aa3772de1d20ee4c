// Package feedback implements the feedback intake pipeline: submission
// validation, sentiment classification of the free-text fields, derived
// scoring, and aggregate statistics over the stored records.
package feedback

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/tourpulse/feedbackanalyzer/internal/metrics"
	"github.com/tourpulse/feedbackanalyzer/internal/models"
	"github.com/tourpulse/feedbackanalyzer/internal/scoring"
	"github.com/tourpulse/feedbackanalyzer/internal/store"
)

// minAnalyzableLength is the minimum trimmed length a text must have to be
// worth a classifier call.
const minAnalyzableLength = 3

// Classifier is the sentiment classification capability the service
// depends on. Implementations never return errors: failures degrade to a
// fallback result.
type Classifier interface {
	Classify(ctx context.Context, text string, includeEmotions bool) *models.SentimentResult
}

// Submission is an inbound feedback payload before validation.
type Submission struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Mobile            string `json:"mobile"`
	Address           string `json:"address"`
	LocationVisited   string `json:"locationVisited"`
	Cleanliness       string `json:"cleanliness"`
	StaffBehavior     string `json:"staffBehavior"`
	Information       string `json:"information"`
	Signage           string `json:"signage"`
	Safety            string `json:"safety"`
	OverallExperience string `json:"overallExperience"`
	Suggestions       string `json:"suggestions"`
}

// ValidationError reports a missing or malformed submission field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	emailPattern  = regexp.MustCompile(`\S+@\S+\.\S+`)
	mobilePattern = regexp.MustCompile(`^\d{10}$`)
)

// Service builds feedback records and owns the store.
type Service struct {
	store      *store.Store
	classifier Classifier // nil when classification is disabled
	logger     *slog.Logger

	// mu serializes record writes: submissions append one at a time and
	// the reprocessing pass holds the lock for its whole iteration, so it
	// never races an in-flight submission on the same record.
	mu sync.Mutex
}

// NewService creates a feedback service. classifier may be nil, in which
// case records are stored without sentiment analysis.
func NewService(st *store.Store, classifier Classifier) *Service {
	return &Service{
		store:      st,
		classifier: classifier,
		logger:     slog.Default(),
	}
}

// Submit validates the payload, runs sentiment classification over its
// free-text fields, computes the derived analytics, and appends the
// resulting record to the store.
func (s *Service) Submit(ctx context.Context, sub Submission) (*models.FeedbackRecord, error) {
	if err := validate(sub); err != nil {
		metrics.ValidationFailuresTotal.WithLabelValues(err.Field).Inc()
		return nil, err
	}

	sentiment, combinedText := s.analyzeTexts(ctx, sub.OverallExperience, sub.Suggestions)

	ratings := models.Ratings{
		Cleanliness:   sub.Cleanliness,
		StaffBehavior: sub.StaffBehavior,
		Information:   sub.Information,
		Signage:       sub.Signage,
		Safety:        sub.Safety,
	}
	ratings.AverageScore = scoring.AverageRatingScore(ratings)

	record := &models.FeedbackRecord{
		ID:        s.store.NextID(),
		Timestamp: time.Now(),
		PersonalInfo: models.PersonalInfo{
			Name:    sub.Name,
			Email:   sub.Email,
			Mobile:  sub.Mobile,
			Address: sub.Address,
		},
		VisitInfo: models.VisitInfo{LocationVisited: sub.LocationVisited},
		Ratings:   ratings,
		Feedback: models.FeedbackText{
			OverallExperience: sub.OverallExperience,
			Suggestions:       sub.Suggestions,
		},
		SentimentAnalysis: sentiment,
		Analytics:         deriveAnalytics(ratings.AverageScore, sentiment, combinedText),
	}

	s.mu.Lock()
	err := s.store.Append(record)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("failed to store feedback: %w", err)
	}

	metrics.SubmissionsTotal.Inc()
	s.logger.Info("feedback received",
		"feedback_id", record.ID,
		"location", record.VisitInfo.LocationVisited,
		"sentiment", combinedSentiment(record),
		"recommendation_score", record.Analytics.RecommendationScore,
	)

	return record, nil
}

// Reprocess re-runs sentiment classification over stored records that lack
// a combined sentiment and recomputes their analytics in place. A failure
// on one record is logged and skipped, never fatal to the pass.
func (s *Service) Reprocess(ctx context.Context) (processed, updated int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.store.All()
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load feedback records: %w", err)
	}

	for _, record := range records {
		processed++

		if combined := record.SentimentAnalysis.CombinedAnalysis; combined != nil && combined.Sentiment != "" {
			continue
		}

		sentiment, combinedText := s.analyzeTexts(ctx, record.Feedback.OverallExperience, record.Feedback.Suggestions)
		record.SentimentAnalysis = sentiment
		record.Analytics = deriveAnalytics(record.Ratings.AverageScore, sentiment, combinedText)

		if err := s.store.Update(record); err != nil {
			s.logger.Error("failed to update reprocessed record",
				"feedback_id", record.ID,
				"error", err,
			)
			continue
		}

		updated++
		metrics.ReprocessedRecordsTotal.Inc()
	}

	s.logger.Info("sentiment reprocessing complete", "processed", processed, "updated", updated)
	return processed, updated, nil
}

// List returns all stored records in submission order.
func (s *Service) List() ([]*models.FeedbackRecord, error) {
	return s.store.All()
}

// ListByLocation returns the records for a location, matched
// case-insensitively.
func (s *Service) ListByLocation(location string) ([]*models.FeedbackRecord, error) {
	return s.store.ByLocation(location)
}

// Stats recomputes the aggregate report from the current store contents.
// Never cached.
func (s *Service) Stats() (models.Stats, error) {
	records, err := s.store.All()
	if err != nil {
		return models.Stats{}, fmt.Errorf("failed to load feedback records: %w", err)
	}
	return ComputeStats(records), nil
}

// analyzeTexts runs the classifier over the overall-experience text, the
// suggestions text, and their concatenation, each only when the source
// text has at least minAnalyzableLength trimmed characters. The combined
// text is built regardless of classifier availability since the word count
// derives from it. The three calls are sequential: overall, suggestions,
// combined.
func (s *Service) analyzeTexts(ctx context.Context, overall, suggestions string) (models.SentimentAnalysis, string) {
	var analysis models.SentimentAnalysis

	var parts []string
	if analyzable(overall) {
		parts = append(parts, overall)
		if s.classifier != nil {
			analysis.OverallExperience = s.classifier.Classify(ctx, overall, true)
		}
	}
	if analyzable(suggestions) {
		parts = append(parts, suggestions)
		if s.classifier != nil {
			analysis.Suggestions = s.classifier.Classify(ctx, suggestions, true)
		}
	}

	combined := strings.Join(parts, ". ")
	if analyzable(combined) && s.classifier != nil {
		analysis.CombinedAnalysis = s.classifier.Classify(ctx, combined, true)
	}

	return analysis, combined
}

// deriveAnalytics computes the derived fields from the average rating, the
// combined sentiment, and the combined text. Always recomputed together so
// the analytics stay consistent with the sentiment they were derived from.
func deriveAnalytics(averageScore float64, sentiment models.SentimentAnalysis, combinedText string) models.Analytics {
	combined := sentiment.CombinedAnalysis
	return models.Analytics{
		TotalWords:          len(strings.Fields(combinedText)),
		HasNegativeFeedback: combined != nil && combined.Sentiment == models.SentimentNegative,
		RecommendationScore: scoring.RecommendationScore(averageScore, combined),
		PriorityLevel:       scoring.PriorityLevel(combined, averageScore),
	}
}

func analyzable(text string) bool {
	return len(strings.TrimSpace(text)) >= minAnalyzableLength
}

func combinedSentiment(record *models.FeedbackRecord) string {
	if combined := record.SentimentAnalysis.CombinedAnalysis; combined != nil {
		return combined.Sentiment
	}
	return "unknown"
}

// validate checks the submission against the intake rules: all required
// fields present, a plausible email, and an exactly-10-digit mobile number.
func validate(sub Submission) *ValidationError {
	required := []struct {
		name  string
		value string
	}{
		{"name", sub.Name},
		{"email", sub.Email},
		{"mobile", sub.Mobile},
		{"locationVisited", sub.LocationVisited},
		{"cleanliness", sub.Cleanliness},
		{"staffBehavior", sub.StaffBehavior},
		{"information", sub.Information},
		{"signage", sub.Signage},
		{"safety", sub.Safety},
		{"overallExperience", sub.OverallExperience},
	}

	var missing []string
	for _, field := range required {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{
			Field:   missing[0],
			Message: "missing required fields: " + strings.Join(missing, ", "),
		}
	}

	if !emailPattern.MatchString(sub.Email) {
		return &ValidationError{Field: "email", Message: "invalid email format"}
	}
	if !mobilePattern.MatchString(sub.Mobile) {
		return &ValidationError{Field: "mobile", Message: "mobile number must be 10 digits"}
	}

	return nil
}
