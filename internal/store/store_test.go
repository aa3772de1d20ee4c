package store

import (
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/tourpulse/feedbackanalyzer/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "feedback.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return s
}

func testRecord(id, location string) *models.FeedbackRecord {
	return &models.FeedbackRecord{
		ID:        id,
		Timestamp: time.Now(),
		PersonalInfo: models.PersonalInfo{
			Name:   "Asha Rao",
			Email:  "asha@example.com",
			Mobile: "9876543210",
		},
		VisitInfo: models.VisitInfo{LocationVisited: location},
		Ratings: models.Ratings{
			Cleanliness:   "Excellent",
			StaffBehavior: "Very Good",
			Information:   "Average",
			Signage:       "Very Good",
			Safety:        "Excellent",
			AverageScore:  3.2,
		},
		Feedback: models.FeedbackText{OverallExperience: "Wonderful place"},
	}
}

func TestAppendAndAll(t *testing.T) {
	s := newTestStore(t)

	for i, id := range []string{"100", "101", "102"} {
		rec := testRecord(id, "Hampi")
		if err := s.Append(rec); err != nil {
			t.Fatalf("failed to append record %d: %v", i, err)
		}
	}

	records, err := s.All()
	if err != nil {
		t.Fatalf("failed to load records: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, id := range []string{"100", "101", "102"} {
		if records[i].ID != id {
			t.Errorf("expected record %d to have ID %s, got %s", i, id, records[i].ID)
		}
	}
}

func TestAllEmpty(t *testing.T) {
	s := newTestStore(t)

	records, err := s.All()
	if err != nil {
		t.Fatalf("failed to load records: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records, got %d", len(records))
	}
}

func TestAppendDuplicateID(t *testing.T) {
	s := newTestStore(t)

	if err := s.Append(testRecord("100", "Hampi")); err != nil {
		t.Fatalf("failed to append record: %v", err)
	}
	if err := s.Append(testRecord("100", "Mysore")); err == nil {
		t.Error("expected error appending duplicate ID")
	}
}

func TestByLocation(t *testing.T) {
	s := newTestStore(t)

	for id, location := range map[string]string{
		"100": "Hampi",
		"101": "Mysore Palace",
		"102": "hampi",
	} {
		if err := s.Append(testRecord(id, location)); err != nil {
			t.Fatalf("failed to append record: %v", err)
		}
	}

	records, err := s.ByLocation("HAMPI")
	if err != nil {
		t.Fatalf("failed to query by location: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("expected case-insensitive match to find 2 records, got %d", len(records))
	}

	records, err = s.ByLocation("Gokarna")
	if err != nil {
		t.Fatalf("failed to query by location: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("expected no records for unknown location, got %d", len(records))
	}
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t)

	rec := testRecord("100", "Hampi")
	if err := s.Append(rec); err != nil {
		t.Fatalf("failed to append record: %v", err)
	}

	rec.Analytics.RecommendationScore = 85
	rec.SentimentAnalysis.CombinedAnalysis = &models.SentimentResult{
		Sentiment:  models.SentimentPositive,
		Confidence: 0.9,
		Emotions:   []string{},
		KeyPhrases: []string{},
	}
	if err := s.Update(rec); err != nil {
		t.Fatalf("failed to update record: %v", err)
	}

	records, err := s.All()
	if err != nil {
		t.Fatalf("failed to load records: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].Analytics.RecommendationScore != 85 {
		t.Errorf("expected updated score 85, got %d", records[0].Analytics.RecommendationScore)
	}
	if combined := records[0].SentimentAnalysis.CombinedAnalysis; combined == nil || combined.Sentiment != models.SentimentPositive {
		t.Errorf("expected updated combined sentiment, got %+v", combined)
	}
}

func TestUpdateNotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.Update(testRecord("999", "Hampi"))
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCount(t *testing.T) {
	s := newTestStore(t)

	count, err := s.Count()
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 records, got %d", count)
	}

	if err := s.Append(testRecord("100", "Hampi")); err != nil {
		t.Fatalf("failed to append record: %v", err)
	}

	count, err = s.Count()
	if err != nil {
		t.Fatalf("failed to count: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 record, got %d", count)
	}
}

func TestNextIDMonotonic(t *testing.T) {
	s := newTestStore(t)

	seen := make(map[string]bool)
	var prev int64
	for i := 0; i < 1000; i++ {
		id := s.NextID()
		if seen[id] {
			t.Fatalf("duplicate ID generated: %s", id)
		}
		seen[id] = true

		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			t.Fatalf("ID is not numeric: %s", id)
		}
		if n <= prev {
			t.Fatalf("ID %d not greater than previous %d", n, prev)
		}
		prev = n
	}
}

func TestMigrateIdempotent(t *testing.T) {
	s := newTestStore(t)

	// newTestStore already migrated once.
	if err := s.Migrate(); err != nil {
		t.Fatalf("second migration run failed: %v", err)
	}
}
