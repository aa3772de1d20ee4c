// Package classifier wraps the external LLM behind a sentiment
// classification contract. Classify never returns an error: any network,
// model, or parse failure degrades to a zero-confidence fallback result so
// callers always receive a well-formed SentimentResult.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/tourpulse/feedbackanalyzer/internal/metrics"
	"github.com/tourpulse/feedbackanalyzer/internal/models"
)

const (
	DefaultModel   = "gpt-oss:20b"
	DefaultTimeout = 60 * time.Second

	systemInstruction = "You are an expert sentiment analysis AI. Provide accurate, detailed sentiment analysis in the exact JSON format requested."
)

// Fixed decoding parameters for classification calls.
const (
	temperature     = 0.3
	topP            = 0.9
	maxOutputTokens = 1024
)

// Client wraps the Ollama API client as a sentiment classifier.
type Client struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a new classifier client.
func New(ollamaURL, model string) (*Client, error) {
	if ollamaURL == "" {
		ollamaURL = "http://localhost:11434"
	}
	if model == "" {
		model = DefaultModel
	}

	baseURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	return &Client{
		client:  api.NewClient(baseURL, http.DefaultClient),
		model:   model,
		timeout: DefaultTimeout,
		logger:  slog.Default(),
	}, nil
}

// Classify runs sentiment classification over a single text. Failures are
// absorbed: the returned result is the fallback (neutral, confidence 0.0)
// whenever the round-trip or response parsing fails.
func (c *Client) Classify(ctx context.Context, text string, includeEmotions bool) *models.SentimentResult {
	ctx, span := otel.Tracer("feedbackanalyzer").Start(ctx, "classifier.classify")
	defer span.End()
	span.SetAttributes(attribute.Int("text.length", len(text)))

	start := time.Now()
	response, err := c.generate(ctx, c.buildPrompt(text, includeEmotions))
	metrics.ClassificationDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		c.logger.Warn("sentiment classification failed, using fallback",
			"error", err,
			"text_length", len(text),
		)
		metrics.ClassificationsTotal.WithLabelValues("fallback").Inc()
		span.SetAttributes(attribute.String("outcome", "fallback"))
		return fallbackResult(text)
	}

	result, err := parseResponse(text, response)
	if err != nil {
		c.logger.Warn("failed to parse classifier response, using fallback",
			"error", err,
			"response_length", len(response),
		)
		metrics.ClassificationsTotal.WithLabelValues("fallback").Inc()
		span.SetAttributes(attribute.String("outcome", "fallback"))
		return fallbackResult(text)
	}

	metrics.ClassificationsTotal.WithLabelValues("ok").Inc()
	span.SetAttributes(
		attribute.String("outcome", "ok"),
		attribute.String("sentiment", result.Sentiment),
	)
	return result
}

// ClassifyBatch classifies texts sequentially in input order, one result
// per input. A failure on one element falls back without aborting the rest.
func (c *Client) ClassifyBatch(ctx context.Context, texts []string) []*models.SentimentResult {
	results := make([]*models.SentimentResult, 0, len(texts))
	for _, text := range texts {
		results = append(results, c.Classify(ctx, text, true))
	}
	return results
}

// Summarize computes summary statistics over a batch of results. Returns
// nil for an empty input.
func Summarize(results []*models.SentimentResult) *models.SummaryStats {
	if len(results) == 0 {
		return nil
	}

	total := len(results)
	var positive, negative, neutral int
	var confidenceSum float64
	for _, r := range results {
		switch strings.ToLower(r.Sentiment) {
		case models.SentimentPositive:
			positive++
		case models.SentimentNegative:
			negative++
		default:
			neutral++
		}
		confidenceSum += r.Confidence
	}

	return &models.SummaryStats{
		TotalFeedback:      total,
		PositivePercent:    float64(positive) / float64(total) * 100,
		NegativePercent:    float64(negative) / float64(total) * 100,
		NeutralPercent:     float64(neutral) / float64(total) * 100,
		AverageConfidence:  confidenceSum / float64(total),
		MostCommonEmotions: topEmotions(results, 5),
		AnalysisTimestamp:  time.Now(),
	}
}

// generate sends the prompt to the model with the fixed decoding
// parameters and a bounded timeout. No retries: a failed call resolves
// straight to the fallback path in the caller.
func (c *Client) generate(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := &api.ChatRequest{
		Model: c.model,
		Messages: []api.Message{
			{Role: "system", Content: systemInstruction},
			{Role: "user", Content: prompt},
		},
		Stream: new(bool), // false
		Options: map[string]any{
			"temperature": temperature,
			"top_p":       topP,
			"num_predict": maxOutputTokens,
		},
	}

	var response strings.Builder
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		response.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("generation failed: %w", err)
	}

	return strings.TrimSpace(response.String()), nil
}

// buildPrompt constructs the classification prompt. The model is asked for
// strictly a JSON object; the reasoning field is requested but not retained.
func (c *Client) buildPrompt(text string, includeEmotions bool) string {
	emotionInstruction := ""
	if includeEmotions {
		emotionInstruction = "\n    \"emotions\": [\"happy\", \"frustrated\", \"excited\"],"
	}

	return fmt.Sprintf(`Analyze the sentiment of this feedback text and respond with ONLY a JSON object in this exact format:

{
    "sentiment": "positive|negative|neutral",
    "confidence": 0.95,
    "key_phrases": ["phrase1", "phrase2"],%s
    "reasoning": "Brief explanation of the analysis"
}

Feedback text to analyze:
"%s"

Rules:
- sentiment must be exactly one of: positive, negative, neutral
- confidence should be between 0.0 and 1.0
- key_phrases should be the most important words/phrases that influenced the sentiment
- emotions should be common emotion words (if requested)
- Keep reasoning brief and factual
- Respond with ONLY the JSON object, no other text
`, emotionInstruction, text)
}

// rawResult is the loosely-specified JSON shape the model returns. Missing
// fields are filled with defaults after parsing.
type rawResult struct {
	Sentiment  string   `json:"sentiment"`
	Confidence *float64 `json:"confidence"`
	Emotions   []string `json:"emotions"`
	KeyPhrases []string `json:"key_phrases"`
}

// parseResponse scans the raw response for the first {...} substring and
// coerces it into a SentimentResult with default-filling: sentiment
// lowercased and defaulted to neutral, confidence defaulted to 0.5,
// sequences defaulted to empty.
func parseResponse(originalText, response string) (*models.SentimentResult, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	var raw rawResult
	if err := json.Unmarshal([]byte(response[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse classifier JSON: %w", err)
	}

	sentiment := strings.ToLower(raw.Sentiment)
	if sentiment == "" {
		sentiment = models.SentimentNeutral
	}

	confidence := 0.5
	if raw.Confidence != nil {
		confidence = *raw.Confidence
	}

	emotions := raw.Emotions
	if emotions == nil {
		emotions = []string{}
	}
	keyPhrases := raw.KeyPhrases
	if keyPhrases == nil {
		keyPhrases = []string{}
	}

	return &models.SentimentResult{
		Text:       originalText,
		Sentiment:  sentiment,
		Confidence: confidence,
		Emotions:   emotions,
		KeyPhrases: keyPhrases,
		Timestamp:  time.Now(),
	}, nil
}

// fallbackResult is returned whenever real classification cannot be
// obtained or parsed.
func fallbackResult(text string) *models.SentimentResult {
	return &models.SentimentResult{
		Text:       text,
		Sentiment:  models.SentimentNeutral,
		Confidence: 0.0,
		Emotions:   []string{},
		KeyPhrases: []string{},
		Timestamp:  time.Now(),
	}
}

// topEmotions returns the n most frequent emotion labels across results,
// ties broken by first-seen order.
func topEmotions(results []*models.SentimentResult, n int) []string {
	counts := make(map[string]int)
	var order []string
	for _, r := range results {
		for _, emotion := range r.Emotions {
			if counts[emotion] == 0 {
				order = append(order, emotion)
			}
			counts[emotion]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > n {
		order = order[:n]
	}
	if order == nil {
		order = []string{}
	}
	return order
}
