package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
)

// Sign is a stored dictionary rule. Position orders the dictionary and so
// decides ties between rules.
type Sign struct {
	gesture.SignRule
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SignRepository provides CRUD operations for signs.
type SignRepository struct {
	db *sql.DB
}

// Signs returns the sign repository for this store.
func (s *Store) Signs() *SignRepository {
	return &SignRepository{db: s.db}
}

const signColumns = `key, position, name, text, fingers, thumb_direction, predicates, min_confidence, created_at, updated_at`

// Create appends a sign to the end of the dictionary.
func (r *SignRepository) Create(sg *Sign) error {
	fingers, predicates, err := encodeRule(sg.SignRule)
	if err != nil {
		return err
	}

	now := time.Now()
	sg.CreatedAt = now
	sg.UpdatedAt = now

	err = r.db.QueryRow(`SELECT COALESCE(MAX(position), -1) + 1 FROM signs`).Scan(&sg.Position)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(
		`INSERT INTO signs (`+signColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sg.Key, sg.Position, sg.Name, sg.Text, fingers, string(sg.ThumbDirection), predicates,
		sg.MinConfidence, sg.CreatedAt, sg.UpdatedAt,
	)
	return err
}

// GetByKey retrieves a sign by its key.
func (r *SignRepository) GetByKey(key string) (*Sign, error) {
	sg, err := scanSign(r.db.QueryRow(`SELECT `+signColumns+` FROM signs WHERE key = ?`, key))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return sg, err
}

// List retrieves all signs in dictionary order.
func (r *SignRepository) List() ([]*Sign, error) {
	rows, err := r.db.Query(`SELECT ` + signColumns + ` FROM signs ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var signs []*Sign
	for rows.Next() {
		sg, err := scanSign(rows)
		if err != nil {
			return nil, err
		}
		signs = append(signs, sg)
	}
	return signs, rows.Err()
}

// Update rewrites a sign in place, keeping its position.
func (r *SignRepository) Update(sg *Sign) error {
	fingers, predicates, err := encodeRule(sg.SignRule)
	if err != nil {
		return err
	}
	sg.UpdatedAt = time.Now()

	result, err := r.db.Exec(
		`UPDATE signs SET name = ?, text = ?, fingers = ?, thumb_direction = ?, predicates = ?,
		 min_confidence = ?, updated_at = ? WHERE key = ?`,
		sg.Name, sg.Text, fingers, string(sg.ThumbDirection), predicates, sg.MinConfidence, sg.UpdatedAt, sg.Key,
	)
	if err != nil {
		return err
	}
	return rowsAffected(result)
}

// Delete removes a sign and its action bindings.
func (r *SignRepository) Delete(key string) error {
	result, err := r.db.Exec(`DELETE FROM signs WHERE key = ?`, key)
	if err != nil {
		return err
	}
	return rowsAffected(result)
}

// Count returns the number of stored signs.
func (r *SignRepository) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM signs`).Scan(&n)
	return n, err
}

// Seed stores dict in order when the table is empty. It reports whether
// anything was written.
func (r *SignRepository) Seed(dict gesture.Dictionary) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM signs`).Scan(&n); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	now := time.Now()
	for i, rule := range dict {
		fingers, predicates, err := encodeRule(rule)
		if err != nil {
			return false, err
		}
		_, err = tx.Exec(
			`INSERT INTO signs (`+signColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rule.Key, i, rule.Name, rule.Text, fingers, string(rule.ThumbDirection), predicates,
			rule.MinConfidence, now, now,
		)
		if err != nil {
			return false, fmt.Errorf("seed %s: %w", rule.Key, err)
		}
	}
	return true, tx.Commit()
}

// Dictionary loads the stored signs as a recognizer dictionary.
func (r *SignRepository) Dictionary() (gesture.Dictionary, error) {
	signs, err := r.List()
	if err != nil {
		return nil, err
	}
	dict := make(gesture.Dictionary, len(signs))
	for i, sg := range signs {
		dict[i] = sg.SignRule
	}
	return dict, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSign(row rowScanner) (*Sign, error) {
	sg := &Sign{}
	var thumb, fingers, predicates string

	err := row.Scan(&sg.Key, &sg.Position, &sg.Name, &sg.Text, &fingers, &thumb, &predicates,
		&sg.MinConfidence, &sg.CreatedAt, &sg.UpdatedAt)
	if err != nil {
		return nil, err
	}

	sg.ThumbDirection = gesture.ThumbDirection(thumb)
	if err := json.Unmarshal([]byte(fingers), &sg.Fingers); err != nil {
		return nil, fmt.Errorf("sign %s: decode fingers: %w", sg.Key, err)
	}
	if err := json.Unmarshal([]byte(predicates), &sg.Predicates); err != nil {
		return nil, fmt.Errorf("sign %s: decode predicates: %w", sg.Key, err)
	}
	return sg, nil
}

func encodeRule(rule gesture.SignRule) (fingers, predicates string, err error) {
	f, err := json.Marshal(rule.Fingers)
	if err != nil {
		return "", "", fmt.Errorf("encode fingers: %w", err)
	}
	preds := rule.Predicates
	if preds == nil {
		preds = []gesture.Predicate{}
	}
	p, err := json.Marshal(preds)
	if err != nil {
		return "", "", fmt.Errorf("encode predicates: %w", err)
	}
	return string(f), string(p), nil
}
