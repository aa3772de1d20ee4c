package classifier

import (
	"strings"
	"testing"

	"github.com/tourpulse/feedbackanalyzer/internal/models"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		model     string
		wantModel string
		wantErr   bool
	}{
		{"defaults applied", "", "", DefaultModel, false},
		{"explicit model", "http://localhost:11434", "llama3.2", "llama3.2", false},
		{"invalid url", "http://loc alhost:11434", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.url, tt.model)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.model != tt.wantModel {
				t.Errorf("expected model %q, got %q", tt.wantModel, c.model)
			}
			if c.timeout != DefaultTimeout {
				t.Errorf("expected timeout %v, got %v", DefaultTimeout, c.timeout)
			}
		})
	}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name           string
		response       string
		wantSentiment  string
		wantConfidence float64
		wantKeyPhrases []string
		wantErr        bool
	}{
		{
			name:           "clean json object",
			response:       `{"sentiment":"POSITIVE","confidence":0.87,"key_phrases":["great trip"]}`,
			wantSentiment:  "positive",
			wantConfidence: 0.87,
			wantKeyPhrases: []string{"great trip"},
		},
		{
			name:           "json wrapped in prose",
			response:       "Sure, here is the analysis:\n{\"sentiment\":\"negative\",\"confidence\":0.7}\nHope that helps!",
			wantSentiment:  "negative",
			wantConfidence: 0.7,
			wantKeyPhrases: []string{},
		},
		{
			name:           "missing fields get defaults",
			response:       `{}`,
			wantSentiment:  "neutral",
			wantConfidence: 0.5,
			wantKeyPhrases: []string{},
		},
		{
			name:           "explicit zero confidence is kept",
			response:       `{"sentiment":"neutral","confidence":0.0}`,
			wantSentiment:  "neutral",
			wantConfidence: 0.0,
			wantKeyPhrases: []string{},
		},
		{
			name:     "no json object",
			response: "the sentiment is positive",
			wantErr:  true,
		},
		{
			name:     "empty response",
			response: "",
			wantErr:  true,
		},
		{
			name:     "malformed json",
			response: `{"sentiment": "positive",}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseResponse("some feedback", tt.response)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Text != "some feedback" {
				t.Errorf("expected original text to be preserved, got %q", result.Text)
			}
			if result.Sentiment != tt.wantSentiment {
				t.Errorf("expected sentiment %q, got %q", tt.wantSentiment, result.Sentiment)
			}
			if result.Confidence != tt.wantConfidence {
				t.Errorf("expected confidence %v, got %v", tt.wantConfidence, result.Confidence)
			}
			if result.Emotions == nil {
				t.Error("emotions should never be nil")
			}
			if len(result.KeyPhrases) != len(tt.wantKeyPhrases) {
				t.Fatalf("expected key phrases %v, got %v", tt.wantKeyPhrases, result.KeyPhrases)
			}
			for i, phrase := range tt.wantKeyPhrases {
				if result.KeyPhrases[i] != phrase {
					t.Errorf("expected key phrase %q at %d, got %q", phrase, i, result.KeyPhrases[i])
				}
			}
			if result.Timestamp.IsZero() {
				t.Error("timestamp should be set")
			}
		})
	}
}

func TestFallbackResult(t *testing.T) {
	result := fallbackResult("unreachable model text")

	if result.Sentiment != models.SentimentNeutral {
		t.Errorf("expected neutral sentiment, got %q", result.Sentiment)
	}
	if result.Confidence != 0.0 {
		t.Errorf("expected confidence 0.0, got %v", result.Confidence)
	}
	if len(result.Emotions) != 0 || result.Emotions == nil {
		t.Errorf("expected empty emotions slice, got %v", result.Emotions)
	}
	if len(result.KeyPhrases) != 0 || result.KeyPhrases == nil {
		t.Errorf("expected empty key phrases slice, got %v", result.KeyPhrases)
	}
	if !result.IsFallback() {
		t.Error("fallback result should report IsFallback")
	}
}

func TestBuildPrompt(t *testing.T) {
	c := &Client{model: DefaultModel}

	withEmotions := c.buildPrompt("lovely beach", true)
	if !strings.Contains(withEmotions, `"emotions"`) {
		t.Error("prompt with emotions should request the emotions field")
	}
	if !strings.Contains(withEmotions, "lovely beach") {
		t.Error("prompt should embed the feedback text")
	}

	withoutEmotions := c.buildPrompt("lovely beach", false)
	if strings.Contains(withoutEmotions, `"emotions"`) {
		t.Error("prompt without emotions should not request the emotions field")
	}
}

func TestTopEmotions(t *testing.T) {
	results := []*models.SentimentResult{
		{Emotions: []string{"happy", "happy", "calm"}},
		{Emotions: []string{"excited", "excited", "excited"}},
	}

	top := topEmotions(results, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 emotions, got %d", len(top))
	}
	if top[0] != "excited" {
		t.Errorf("expected most frequent emotion first, got %q", top[0])
	}
	if top[1] != "happy" {
		t.Errorf("expected second emotion %q, got %q", "happy", top[1])
	}
}

func TestTopEmotionsTieOrder(t *testing.T) {
	// Equal counts keep first-seen order.
	results := []*models.SentimentResult{
		{Emotions: []string{"calm", "happy"}},
		{Emotions: []string{"happy", "calm"}},
	}

	top := topEmotions(results, 5)
	if len(top) != 2 || top[0] != "calm" || top[1] != "happy" {
		t.Errorf("expected [calm happy], got %v", top)
	}
}

func TestTopEmotionsEmpty(t *testing.T) {
	top := topEmotions(nil, 5)
	if top == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(top) != 0 {
		t.Errorf("expected no emotions, got %v", top)
	}
}

func TestSummarize(t *testing.T) {
	results := []*models.SentimentResult{
		{Sentiment: "positive", Confidence: 0.9, Emotions: []string{"happy"}},
		{Sentiment: "positive", Confidence: 0.8, Emotions: []string{"happy", "excited"}},
		{Sentiment: "negative", Confidence: 0.7},
		{Sentiment: "neutral", Confidence: 0.6},
	}

	summary := Summarize(results)
	if summary == nil {
		t.Fatal("expected summary, got nil")
	}
	if summary.TotalFeedback != 4 {
		t.Errorf("expected total 4, got %d", summary.TotalFeedback)
	}
	if summary.PositivePercent != 50.0 {
		t.Errorf("expected 50%% positive, got %v", summary.PositivePercent)
	}
	if summary.NegativePercent != 25.0 {
		t.Errorf("expected 25%% negative, got %v", summary.NegativePercent)
	}
	if summary.NeutralPercent != 25.0 {
		t.Errorf("expected 25%% neutral, got %v", summary.NeutralPercent)
	}
	if summary.AverageConfidence != 0.75 {
		t.Errorf("expected average confidence 0.75, got %v", summary.AverageConfidence)
	}
	if len(summary.MostCommonEmotions) == 0 || summary.MostCommonEmotions[0] != "happy" {
		t.Errorf("expected happy as most common emotion, got %v", summary.MostCommonEmotions)
	}
}

func TestSummarizeUnknownSentimentCountsAsNeutral(t *testing.T) {
	summary := Summarize([]*models.SentimentResult{
		{Sentiment: "confused", Confidence: 0.5},
	})
	if summary.NeutralPercent != 100.0 {
		t.Errorf("expected unknown sentiment counted as neutral, got %v", summary.NeutralPercent)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	if summary := Summarize(nil); summary != nil {
		t.Errorf("expected nil summary for empty input, got %+v", summary)
	}
}
