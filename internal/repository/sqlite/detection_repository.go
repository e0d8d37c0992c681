package sqlite

import (
	"fmt"

	"smartpole/internal/model"
)

// DetectionRepository implements repository.DetectionRepository for SQLite.
type DetectionRepository struct {
	db *DB
}

// NewDetectionRepository creates a new SQLite detection repository.
func NewDetectionRepository(db *DB) *DetectionRepository {
	return &DetectionRepository{db: db}
}

// GetByAccidentID retrieves all detections recorded for an accident.
func (r *DetectionRepository) GetByAccidentID(accidentID int64) ([]model.StoredDetection, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, accident_id, class, confidence, x1, y1, x2, y2
		FROM detections WHERE accident_id = ? ORDER BY id
	`, accidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query detections: %w", err)
	}
	defer rows.Close()

	var detections []model.StoredDetection
	for rows.Next() {
		var det model.StoredDetection
		if err := rows.Scan(&det.ID, &det.AccidentID, &det.Class, &det.Confidence, &det.X1, &det.Y1, &det.X2, &det.Y2); err != nil {
			return nil, fmt.Errorf("failed to scan detection: %w", err)
		}
		detections = append(detections, det)
	}

	return detections, rows.Err()
}

// GetClassCounts returns how many detections of each class were stored.
func (r *DetectionRepository) GetClassCounts() (map[string]int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`SELECT class, COUNT(*) FROM detections GROUP BY class ORDER BY class`)
	if err != nil {
		return nil, fmt.Errorf("failed to query classes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var class string
		var n int
		if err := rows.Scan(&class, &n); err != nil {
			return nil, fmt.Errorf("failed to scan class: %w", err)
		}
		counts[class] = n
	}

	return counts, rows.Err()
}
