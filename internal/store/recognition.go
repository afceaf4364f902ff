package store

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Recognition is one confirmed sign in the recognition log.
type Recognition struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	SignKey      string    `json:"sign_key"`
	Text         string    `json:"text"`
	Confidence   float64   `json:"confidence"`
	Handedness   string    `json:"handedness,omitempty"`
	Sequence     string    `json:"sequence,omitempty"`
	RecognizedAt time.Time `json:"recognized_at"`
}

// RecognitionRepository stores the recognition log.
type RecognitionRepository struct {
	db *sql.DB
}

// Recognitions returns the recognition repository for this store.
func (s *Store) Recognitions() *RecognitionRepository {
	return &RecognitionRepository{db: s.db}
}

// Create appends a recognition, assigning an ID if none is set.
func (r *RecognitionRepository) Create(rec *Recognition) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.RecognizedAt.IsZero() {
		rec.RecognizedAt = time.Now()
	}

	_, err := r.db.Exec(
		`INSERT INTO recognitions (id, session_id, sign_key, text, confidence, handedness, sequence, recognized_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.SignKey, rec.Text, rec.Confidence, rec.Handedness, rec.Sequence, rec.RecognizedAt,
	)
	return err
}

// List returns up to limit recognitions, newest first.
func (r *RecognitionRepository) List(limit int) ([]*Recognition, error) {
	rows, err := r.db.Query(
		`SELECT id, session_id, sign_key, text, confidence, handedness, sequence, recognized_at
		 FROM recognitions ORDER BY recognized_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*Recognition
	for rows.Next() {
		rec := &Recognition{}
		err := rows.Scan(&rec.ID, &rec.SessionID, &rec.SignKey, &rec.Text, &rec.Confidence,
			&rec.Handedness, &rec.Sequence, &rec.RecognizedAt)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Count returns the number of logged recognitions.
func (r *RecognitionRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM recognitions`).Scan(&n)
	return n, err
}

// Clear deletes the whole log and returns how many rows were removed.
func (r *RecognitionRepository) Clear() (int64, error) {
	result, err := r.db.Exec(`DELETE FROM recognitions`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
