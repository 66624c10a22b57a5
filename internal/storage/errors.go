package storage

import "errors"

// ErrPlanNotFound is returned when a requested plan does not exist.
var ErrPlanNotFound = errors.New("plan not found")
