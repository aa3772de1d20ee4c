package feedback

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/tourpulse/feedbackanalyzer/internal/models"
	"github.com/tourpulse/feedbackanalyzer/internal/scoring"
)

// Insight thresholds, preserved from the production tuning.
const (
	negativeShareThreshold = 0.3
	lowRatingThreshold     = 2.5
	concernScoreThreshold  = 60
	positiveScoreThreshold = 80
)

// ComputeStats folds the full record set into the aggregate report. An
// empty input yields a zero-value report, not an error.
func ComputeStats(records []*models.FeedbackRecord) models.Stats {
	stats := models.Stats{
		ByLocation:            map[string]int{},
		AverageRatings:        map[string]float64{},
		SentimentDistribution: map[string]int{},
		PriorityDistribution:  map[string]int{},
		EmotionalInsights: models.EmotionalInsights{
			TopEmotions:      []models.ItemCount{},
			CommonKeyPhrases: []models.ItemCount{},
		},
		Insights: []models.Insight{},
	}

	if len(records) == 0 {
		return stats
	}

	stats.Total = len(records)
	stats.SentimentDistribution = map[string]int{
		models.SentimentPositive: 0,
		models.SentimentNeutral:  0,
		models.SentimentNegative: 0,
	}
	stats.PriorityDistribution = map[string]int{
		models.PriorityHigh:   0,
		models.PriorityMedium: 0,
		models.PriorityLow:    0,
	}
	for _, category := range scoring.RatingCategories {
		stats.AverageRatings[category] = 0
	}
	stats.AverageRatings["overall"] = 0

	ratingTotals := make(map[string]int)
	ratingCounts := make(map[string]int)
	var totalRecommendation int
	var allEmotions, allKeyPhrases []string

	for _, record := range records {
		stats.ByLocation[record.VisitInfo.LocationVisited]++

		if record.Analytics.PriorityLevel != "" {
			stats.PriorityDistribution[record.Analytics.PriorityLevel]++
		}

		for _, category := range scoring.RatingCategories {
			if label := ratingLabel(record.Ratings, category); label != "" {
				ratingTotals[category] += scoring.RatingValues[label]
				ratingCounts[category]++
			}
		}

		if combined := record.SentimentAnalysis.CombinedAnalysis; combined != nil {
			switch strings.ToLower(combined.Sentiment) {
			case models.SentimentPositive:
				stats.SentimentDistribution[models.SentimentPositive]++
			case models.SentimentNegative:
				stats.SentimentDistribution[models.SentimentNegative]++
			default:
				stats.SentimentDistribution[models.SentimentNeutral]++
			}
			allEmotions = append(allEmotions, combined.Emotions...)
			allKeyPhrases = append(allKeyPhrases, combined.KeyPhrases...)
		}

		totalRecommendation += record.Analytics.RecommendationScore
	}

	var observedSum float64
	var observedCount int
	for _, category := range scoring.RatingCategories {
		if ratingCounts[category] > 0 {
			mean := scoring.Round2(float64(ratingTotals[category]) / float64(ratingCounts[category]))
			stats.AverageRatings[category] = mean
			observedSum += mean
			observedCount++
		}
	}
	if observedCount > 0 {
		stats.AverageRatings["overall"] = scoring.Round2(observedSum / float64(observedCount))
	}

	stats.RecommendationScore = int(math.Round(float64(totalRecommendation) / float64(stats.Total)))

	stats.EmotionalInsights.TopEmotions = topItems(allEmotions, 5)
	stats.EmotionalInsights.CommonKeyPhrases = topItems(allKeyPhrases, 10)

	stats.Insights = generateInsights(stats)

	return stats
}

// topItems returns the n most frequent items with their counts, ties
// broken by first-seen order.
func topItems(items []string, n int) []models.ItemCount {
	counts := make(map[string]int)
	var order []string
	for _, item := range items {
		if counts[item] == 0 {
			order = append(order, item)
		}
		counts[item]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > n {
		order = order[:n]
	}

	top := make([]models.ItemCount, 0, len(order))
	for _, item := range order {
		top = append(top, models.ItemCount{Item: item, Count: counts[item]})
	}
	return top
}

// generateInsights evaluates every advisory rule and emits all that match.
// The rules are independent of each other, except that the concern and
// positive score insights cannot both fire.
func generateInsights(stats models.Stats) []models.Insight {
	insights := []models.Insight{}

	negative := stats.SentimentDistribution[models.SentimentNegative]
	if float64(negative) > float64(stats.Total)*negativeShareThreshold {
		percent := int(math.Round(float64(negative) / float64(stats.Total) * 100))
		insights = append(insights, models.Insight{
			Type:     "warning",
			Message:  fmt.Sprintf("%d%% of feedback has negative sentiment. Consider investigating common issues.", percent),
			Priority: models.PriorityHigh,
		})
	}

	categories := append(append([]string{}, scoring.RatingCategories...), "overall")
	for _, category := range categories {
		score := stats.AverageRatings[category]
		if score > 0 && score < lowRatingThreshold {
			insights = append(insights, models.Insight{
				Type:     "improvement",
				Message:  fmt.Sprintf("%s rating is below average (%s/4). Focus on improving this area.", category, formatScore(score)),
				Priority: models.PriorityMedium,
			})
		}
	}

	if high := stats.PriorityDistribution[models.PriorityHigh]; high > 0 {
		insights = append(insights, models.Insight{
			Type:     "urgent",
			Message:  fmt.Sprintf("%d feedback items require immediate attention.", high),
			Priority: models.PriorityHigh,
		})
	}

	if stats.RecommendationScore < concernScoreThreshold {
		insights = append(insights, models.Insight{
			Type:     "concern",
			Message:  fmt.Sprintf("Overall recommendation score is %d%%. Consider addressing key concerns.", stats.RecommendationScore),
			Priority: models.PriorityMedium,
		})
	} else if stats.RecommendationScore > positiveScoreThreshold {
		insights = append(insights, models.Insight{
			Type:     "positive",
			Message:  fmt.Sprintf("Excellent recommendation score of %d%%! Keep up the good work.", stats.RecommendationScore),
			Priority: models.PriorityLow,
		})
	}

	return insights
}

func ratingLabel(r models.Ratings, category string) string {
	switch category {
	case "cleanliness":
		return r.Cleanliness
	case "staffBehavior":
		return r.StaffBehavior
	case "information":
		return r.Information
	case "signage":
		return r.Signage
	case "safety":
		return r.Safety
	}
	return ""
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}
