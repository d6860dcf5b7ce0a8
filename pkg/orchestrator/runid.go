package orchestrator

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RunIDLayout is the timestamp part of generated run ids.
const RunIDLayout = "20060102T150405Z"

// NewRunID returns "<UTC timestamp>_<first 8 hex of a random UUID>".
func NewRunID(at time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return at.UTC().Format(RunIDLayout) + "_" + suffix
}
