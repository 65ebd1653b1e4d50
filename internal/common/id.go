package common

import (
	"strings"

	"github.com/google/uuid"
)

// NewCycleID generates a short correlation id for one producer update cycle.
// Format: cycle_<8 hex chars>
func NewCycleID() string {
	return "cycle_" + strings.Split(uuid.New().String(), "-")[0]
}
