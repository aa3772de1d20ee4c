// Package scoring holds the pure functions converting ratings and
// sentiment into derived scores. No side effects, no external calls.
package scoring

import (
	"math"

	"github.com/tourpulse/feedbackanalyzer/internal/models"
)

// RatingValues maps the categorical rating labels to their numeric scale.
// Unrecognized labels map to 0.
var RatingValues = map[string]int{
	"Excellent": 4,
	"Very Good": 3,
	"Average":   2,
	"Poor":      1,
}

// RatingCategories lists the five rated categories in canonical order.
var RatingCategories = []string{"cleanliness", "staffBehavior", "information", "signage", "safety"}

// AverageRatingScore maps the five categorical ratings through
// RatingValues and returns their arithmetic mean, rounded to 2 decimals.
func AverageRatingScore(r models.Ratings) float64 {
	labels := []string{r.Cleanliness, r.StaffBehavior, r.Information, r.Signage, r.Safety}
	sum := 0
	for _, label := range labels {
		sum += RatingValues[label]
	}
	return Round2(float64(sum) / float64(len(labels)))
}

// RecommendationScore blends the average rating and the combined sentiment
// into a 0-100 score. The base is averageRating*25; a present sentiment
// adds +10/0/-15 for positive/neutral/negative plus (confidence-0.5)*10.
// The total is clamped to [0, 100] and rounded to the nearest integer.
func RecommendationScore(averageRating float64, sentiment *models.SentimentResult) int {
	score := averageRating * 25

	if sentiment != nil {
		switch sentiment.Sentiment {
		case models.SentimentPositive:
			score += 10
		case models.SentimentNegative:
			score -= 15
		}
		score += (sentiment.Confidence - 0.5) * 10
	}

	return int(math.Round(math.Max(0, math.Min(100, score))))
}

// PriorityLevel assigns the triage level for a record. The high condition
// is checked first and short-circuits: a record with a low average rating
// is high priority even when its sentiment is positive.
func PriorityLevel(sentiment *models.SentimentResult, averageRating float64) string {
	if averageRating <= 2 || (sentiment != nil && sentiment.Sentiment == models.SentimentNegative) {
		return models.PriorityHigh
	}
	if averageRating <= 3 || (sentiment != nil && sentiment.Sentiment == models.SentimentNeutral) {
		return models.PriorityMedium
	}
	return models.PriorityLow
}

// Round2 rounds to 2 decimal places for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
