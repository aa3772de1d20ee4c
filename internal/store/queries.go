package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/tourpulse/feedbackanalyzer/internal/models"
)

// Append inserts a new feedback record at the end of the store.
func (s *Store) Append(record *models.FeedbackRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	_, err = s.conn.Exec(`
		INSERT INTO feedback (id, location, record, created_at)
		VALUES (?, ?, ?, ?)
	`, record.ID, record.VisitInfo.LocationVisited, recordJSON, record.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert feedback record: %w", err)
	}

	return nil
}

// All returns every feedback record in insertion order.
func (s *Store) All() ([]*models.FeedbackRecord, error) {
	rows, err := s.conn.Query(`
		SELECT record FROM feedback ORDER BY position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ByLocation returns the records whose location matches, case-insensitively,
// in insertion order.
func (s *Store) ByLocation(location string) ([]*models.FeedbackRecord, error) {
	rows, err := s.conn.Query(`
		SELECT record FROM feedback
		WHERE LOWER(location) = LOWER(?)
		ORDER BY position ASC
	`, location)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback by location: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Update overwrites a record in place, keyed by its ID. The insertion
// position is unchanged.
func (s *Store) Update(record *models.FeedbackRecord) error {
	recordJSON, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	result, err := s.conn.Exec(`
		UPDATE feedback SET record = ? WHERE id = ?
	`, recordJSON, record.ID)
	if err != nil {
		return fmt.Errorf("failed to update feedback record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// Count returns the number of stored records.
func (s *Store) Count() (int, error) {
	var count int
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM feedback").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count feedback records: %w", err)
	}
	return count, nil
}

func scanRecords(rows *sql.Rows) ([]*models.FeedbackRecord, error) {
	var records []*models.FeedbackRecord
	for rows.Next() {
		var recordJSON string
		if err := rows.Scan(&recordJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		var record models.FeedbackRecord
		if err := json.Unmarshal([]byte(recordJSON), &record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		records = append(records, &record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return records, nil
}
