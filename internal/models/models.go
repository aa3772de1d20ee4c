package models

import "time"

// Sentiment class labels, always lowercase.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Priority levels for feedback triage.
const (
	PriorityHigh   = "high"
	PriorityMedium = "medium"
	PriorityLow    = "low"
)

// SentimentResult is the structured output of one classification call.
// A confidence of exactly 0.0 marks a fallback result, not a genuine
// low-confidence reading.
type SentimentResult struct {
	Text       string    `json:"text"`
	Sentiment  string    `json:"sentiment"` // positive, negative, neutral
	Confidence float64   `json:"confidence"`
	Emotions   []string  `json:"emotions"`
	KeyPhrases []string  `json:"key_phrases"`
	Timestamp  time.Time `json:"timestamp"`
}

// IsFallback reports whether this result came from the fallback path.
func (r *SentimentResult) IsFallback() bool {
	return r.Confidence == 0.0
}

// PersonalInfo holds the visitor's contact details.
type PersonalInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Mobile  string `json:"mobile"`
	Address string `json:"address,omitempty"`
}

// VisitInfo holds details about the visit itself.
type VisitInfo struct {
	LocationVisited string `json:"locationVisited"`
}

// Ratings holds the five categorical ratings plus the derived average.
// Each rating is one of: Excellent, Very Good, Average, Poor.
type Ratings struct {
	Cleanliness   string  `json:"cleanliness"`
	StaffBehavior string  `json:"staffBehavior"`
	Information   string  `json:"information"`
	Signage       string  `json:"signage"`
	Safety        string  `json:"safety"`
	AverageScore  float64 `json:"averageScore"`
}

// FeedbackText holds the free-text portions of a submission.
type FeedbackText struct {
	OverallExperience string `json:"overallExperience"`
	Suggestions       string `json:"suggestions"`
}

// SentimentAnalysis groups the up-to-three classification results for a
// record. A field is nil when its source text was too short to classify
// or the classifier was unavailable.
type SentimentAnalysis struct {
	OverallExperience *SentimentResult `json:"overallExperience"`
	Suggestions       *SentimentResult `json:"suggestions"`
	CombinedAnalysis  *SentimentResult `json:"combinedAnalysis"`
}

// Analytics holds the derived fields computed from ratings and sentiment.
// These are always recomputed together with SentimentAnalysis.
type Analytics struct {
	TotalWords          int    `json:"totalWords"`
	HasNegativeFeedback bool   `json:"hasNegativeFeedback"`
	RecommendationScore int    `json:"recommendationScore"`
	PriorityLevel       string `json:"priorityLevel"`
}

// FeedbackRecord is one visitor submission with its derived analytics.
type FeedbackRecord struct {
	ID                string            `json:"id"`
	Timestamp         time.Time         `json:"timestamp"`
	PersonalInfo      PersonalInfo      `json:"personalInfo"`
	VisitInfo         VisitInfo         `json:"visitInfo"`
	Ratings           Ratings           `json:"ratings"`
	Feedback          FeedbackText      `json:"feedback"`
	SentimentAnalysis SentimentAnalysis `json:"sentimentAnalysis"`
	Analytics         Analytics         `json:"analytics"`
}

// ItemCount is a frequency table entry.
type ItemCount struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// Insight is a generated advisory message derived from aggregate stats.
type Insight struct {
	Type     string `json:"type"` // warning, improvement, urgent, concern, positive
	Message  string `json:"message"`
	Priority string `json:"priority"`
}

// EmotionalInsights holds pooled emotion and key-phrase frequency tables.
type EmotionalInsights struct {
	TopEmotions      []ItemCount `json:"topEmotions"`
	CommonKeyPhrases []ItemCount `json:"commonKeyPhrases"`
}

// Stats is the aggregate report over the full feedback store.
type Stats struct {
	Total                 int                `json:"total"`
	ByLocation            map[string]int     `json:"byLocation"`
	AverageRatings        map[string]float64 `json:"averageRatings"`
	SentimentDistribution map[string]int     `json:"sentimentDistribution"`
	PriorityDistribution  map[string]int     `json:"priorityDistribution"`
	EmotionalInsights     EmotionalInsights  `json:"emotionalInsights"`
	RecommendationScore   int                `json:"recommendationScore"`
	Insights              []Insight          `json:"insights"`
}

// SummaryStats summarizes a batch of classification results.
type SummaryStats struct {
	TotalFeedback      int       `json:"total_feedback"`
	PositivePercent    float64   `json:"positive"`
	NegativePercent    float64   `json:"negative"`
	NeutralPercent     float64   `json:"neutral"`
	AverageConfidence  float64   `json:"average_confidence"`
	MostCommonEmotions []string  `json:"most_common_emotions"`
	AnalysisTimestamp  time.Time `json:"analysis_timestamp"`
}
