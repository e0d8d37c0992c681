package sqlite

import (
	"database/sql"
	"fmt"

	"smartpole/internal/dto"
	"smartpole/internal/model"
)

// AccidentRepository implements repository.AccidentRepository for SQLite.
type AccidentRepository struct {
	db *DB
}

// NewAccidentRepository creates a new SQLite accident repository.
func NewAccidentRepository(db *DB) *AccidentRepository {
	return &AccidentRepository{db: db}
}

const insertAccidentSQL = `
	INSERT INTO accidents (event_id, frame, timestamp, score, severity, location, pole_id, frame_path)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

const insertDetectionSQL = `
	INSERT INTO detections (accident_id, class, confidence, x1, y1, x2, y2)
	VALUES (?, ?, ?, ?, ?, ?, ?)
`

// Insert stores an accident and its detections in a single transaction.
// Timestamps are stored in UTC.
func (r *AccidentRepository) Insert(acc *model.Accident) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := insertAccident(tx, acc)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit accident: %w", err)
	}
	acc.ID = id
	return id, nil
}

// InsertBatch adds multiple accidents in a single transaction.
func (r *AccidentRepository) InsertBatch(accidents []model.Accident) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range accidents {
		id, err := insertAccident(tx, &accidents[i])
		if err != nil {
			return err
		}
		accidents[i].ID = id
	}

	return tx.Commit()
}

func insertAccident(tx *sql.Tx, acc *model.Accident) (int64, error) {
	result, err := tx.Exec(insertAccidentSQL,
		acc.EventID, acc.Frame, acc.Timestamp.UTC(), acc.Score, string(acc.Severity),
		acc.Location, acc.PoleID, acc.FramePath)
	if err != nil {
		return 0, fmt.Errorf("failed to insert accident: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read accident id: %w", err)
	}

	for _, det := range acc.Detections {
		if _, err := tx.Exec(insertDetectionSQL, id, det.Class, det.Confidence, det.X1, det.Y1, det.X2, det.Y2); err != nil {
			return 0, fmt.Errorf("failed to insert detection: %w", err)
		}
	}

	return id, nil
}

const selectAccidentSQL = `
	SELECT id, event_id, frame, timestamp, score, severity, location, pole_id, frame_path
	FROM accidents
`

func scanAccident(row interface{ Scan(...any) error }) (*model.Accident, error) {
	var acc model.Accident
	var severity string
	if err := row.Scan(&acc.ID, &acc.EventID, &acc.Frame, &acc.Timestamp, &acc.Score,
		&severity, &acc.Location, &acc.PoleID, &acc.FramePath); err != nil {
		return nil, err
	}
	acc.Severity = model.Severity(severity)
	return &acc, nil
}

// GetByID retrieves an accident by its ID. It returns nil when no record exists.
func (r *AccidentRepository) GetByID(id int64) (*model.Accident, error) {
	return r.getOne(selectAccidentSQL+" WHERE id = ?", id)
}

// GetByEventID retrieves an accident by its event UUID.
func (r *AccidentRepository) GetByEventID(eventID string) (*model.Accident, error) {
	return r.getOne(selectAccidentSQL+" WHERE event_id = ?", eventID)
}

func (r *AccidentRepository) getOne(query string, arg any) (*model.Accident, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	acc, err := scanAccident(r.db.Conn().QueryRow(query, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get accident: %w", err)
	}
	return acc, nil
}

// whereClause builds the filter part shared by list and count queries.
func whereClause(filter *dto.AccidentFilters) (string, []interface{}) {
	query := " WHERE 1=1"
	args := []interface{}{}
	if filter == nil {
		return query, args
	}

	if filter.Severity != "" {
		query += " AND severity = ?"
		args = append(args, string(filter.Severity))
	}

	if !filter.DateAfter.IsZero() {
		query += " AND DATE(timestamp) >= DATE(?)"
		args = append(args, filter.DateAfter.Format("2006-01-02"))
	}

	if !filter.DateBefore.IsZero() {
		query += " AND DATE(timestamp) <= DATE(?)"
		args = append(args, filter.DateBefore.Format("2006-01-02"))
	}

	if filter.MinScore > 0 {
		query += " AND score >= ?"
		args = append(args, filter.MinScore)
	}

	return query, args
}

// GetAll retrieves accidents based on filter criteria, newest first.
func (r *AccidentRepository) GetAll(filter *dto.AccidentFilters) ([]model.Accident, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)
	query := selectAccidentSQL + where + " ORDER BY timestamp DESC, id DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query accidents: %w", err)
	}
	defer rows.Close()

	var accidents []model.Accident
	for rows.Next() {
		acc, err := scanAccident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan accident: %w", err)
		}
		accidents = append(accidents, *acc)
	}

	return accidents, rows.Err()
}

// GetTotalCount returns the total count of accidents matching the filter.
func (r *AccidentRepository) GetTotalCount(filter *dto.AccidentFilters) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := whereClause(filter)

	var count int
	if err := r.db.Conn().QueryRow("SELECT COUNT(*) FROM accidents"+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count accidents: %w", err)
	}

	return count, nil
}

// GetStats returns aggregate statistics about stored accidents. ClassCounts
// is left empty; it comes from DetectionRepository.GetClassCounts.
func (r *AccidentRepository) GetStats() (*model.AccidentStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.AccidentStats{
		PerSeverity: make(map[model.Severity]int),
		ClassCounts: make(map[string]int),
	}

	err := r.db.Conn().QueryRow(`
		SELECT COUNT(*), COALESCE(MAX(score), 0), COALESCE(AVG(score), 0) FROM accidents
	`).Scan(&stats.TotalAccidents, &stats.MaxScore, &stats.AvgScore)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate accidents: %w", err)
	}

	rows, err := r.db.Conn().Query(`SELECT severity, COUNT(*) FROM accidents GROUP BY severity`)
	if err != nil {
		return nil, fmt.Errorf("failed to query severities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var severity string
		var count int
		if err := rows.Scan(&severity, &count); err != nil {
			return nil, fmt.Errorf("failed to scan severity: %w", err)
		}
		stats.PerSeverity[model.Severity(severity)] = count
	}
	return stats, rows.Err()
}

// Delete removes an accident; its detections are removed by the foreign key cascade.
func (r *AccidentRepository) Delete(id int64) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM accidents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete accident: %w", err)
	}
	return nil
}
