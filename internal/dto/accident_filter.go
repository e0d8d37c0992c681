// AccidentFilters describe user-provided filters to narrow the accident list.
package dto

import (
	"time"

	"smartpole/internal/model"
)

type AccidentFilters struct {
	Severity   model.Severity
	DateAfter  time.Time
	DateBefore time.Time
	MinScore   float64
	Limit      int
	Offset     int
}
