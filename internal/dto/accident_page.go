package dto

import "smartpole/internal/model"

// AccidentPage is the paginated response of the accident list endpoint.
type AccidentPage struct {
	Accidents   []model.Accident `json:"accidents"`
	Length      int              `json:"length"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
	Limit       int              `json:"pageSize"`
}
