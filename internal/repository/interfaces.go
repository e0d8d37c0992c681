package repository

import (
	"smartpole/internal/dto"
	"smartpole/internal/model"
)

// AccidentRepository defines the interface for accident data operations.
type AccidentRepository interface {
	// Create operations
	Insert(acc *model.Accident) (int64, error)
	InsertBatch(accidents []model.Accident) error

	// Read operations
	GetByID(id int64) (*model.Accident, error)
	GetByEventID(eventID string) (*model.Accident, error)
	GetAll(filter *dto.AccidentFilters) ([]model.Accident, error)
	GetTotalCount(filter *dto.AccidentFilters) (int, error)
	GetStats() (*model.AccidentStats, error)

	// Delete operations
	Delete(id int64) error
}

// DetectionRepository defines the interface for detection rows attached to accidents.
// Rows are written together with their accident by AccidentRepository.Insert
// and removed by the foreign key cascade on delete.
type DetectionRepository interface {
	GetByAccidentID(accidentID int64) ([]model.StoredDetection, error)
	GetClassCounts() (map[string]int, error)
}
