package common

import (
	"github.com/google/uuid"
)

// NewRunID generates a unique backfill run ID
// Format: run_<uuid>
func NewRunID() string {
	return "run_" + uuid.New().String()
}
